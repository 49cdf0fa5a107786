package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/srs"
)

var testKey = domain.Key{Deck: domain.Sentences, Direction: domain.DirectionProduction}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openTestDB(t *testing.T, c *clock) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), Options{
		Clock:    c.now,
		Defaults: domain.Settings{NewCardsPerDay: 15},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadStoreEmpty(t *testing.T) {
	c := &clock{time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	db := openTestDB(t, c)
	store, err := db.LoadStore(context.Background(), testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.Cards) != 0 || store.LastReviewDate != "2026-03-10" || store.ReviewedToday == nil {
		t.Errorf("unexpected empty store %+v", store)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := &clock{time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	db := openTestDB(t, c)
	ctx := context.Background()

	sched, err := fsrs.NewScheduler(fsrs.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	due := time.Date(2026, 3, 10, 8, 0, 0, 123456789, time.FixedZone("CET", 3600))
	graded, entry, err := sched.Grade(sched.EmptyCard(c.t), fsrs.Good, c.t)
	if err != nil {
		t.Fatal(err)
	}
	store := domain.NewReviewStore("2026-03-10").
		WithRecord(domain.ReviewRecord{ItemID: "a"}.WithReview(graded, entry)).
		WithRecord(domain.ReviewRecord{ItemID: "b", Card: fsrs.Card{State: fsrs.Review, Due: due, Stability: 3.5, Difficulty: 4}}).
		WithReviewed("a").WithIntroduced("a")

	if err := db.SaveStore(ctx, testKey, store); err != nil {
		t.Fatal(err)
	}
	loaded, err := db.LoadStore(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(loaded.ReviewedToday, []string{"a"}) || !reflect.DeepEqual(loaded.NewCardsToday, []string{"a"}) {
		t.Errorf("day lists = %v / %v", loaded.ReviewedToday, loaded.NewCardsToday)
	}
	if len(loaded.Cards) != 2 || len(loaded.Cards["a"].Log) != 1 {
		t.Fatalf("records = %+v", loaded.Cards)
	}
	instants := []time.Time{due.Add(-time.Nanosecond), due, due.Add(time.Nanosecond), c.t, c.t.Add(10 * time.Minute)}
	for id, rec := range store.Cards {
		got := loaded.Cards[id]
		if !got.Card.Due.Equal(rec.Card.Due) || got.Card.State != rec.Card.State {
			t.Errorf("%s: card changed %+v -> %+v", id, rec.Card, got.Card)
		}
		for _, p := range instants {
			if srs.IsDue(got, p) != srs.IsDue(rec, p) {
				t.Errorf("%s: IsDue(%v) changed after round trip", id, p)
			}
		}
	}

	// Saving again upserts rather than duplicating.
	if err := db.SaveStore(ctx, testKey, loaded.WithReviewed("b")); err != nil {
		t.Fatal(err)
	}
	again, err := db.LoadStore(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Cards) != 2 || !again.Reviewed("b") {
		t.Errorf("second save: %+v", again)
	}

	summaries, err := db.Summaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 || summaries[0].Cards != 2 || summaries[0].States[fsrs.Review] != 1 {
		t.Errorf("summaries = %+v", summaries)
	}
}

func TestLoadStoreResetsDay(t *testing.T) {
	c := &clock{time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	db := openTestDB(t, c)
	ctx := context.Background()

	store := domain.NewReviewStore("2026-03-10").
		WithRecord(domain.ReviewRecord{ItemID: "a", Card: fsrs.Card{State: fsrs.Review, Due: c.t.Add(48 * time.Hour)}}).
		WithReviewed("a").WithIntroduced("a")
	if err := db.SaveStore(ctx, testKey, store); err != nil {
		t.Fatal(err)
	}

	c.t = c.t.Add(24 * time.Hour)
	loaded, err := db.LoadStore(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.ReviewedToday) != 0 || len(loaded.NewCardsToday) != 0 || loaded.LastReviewDate != "2026-03-11" {
		t.Errorf("day not reset: %+v", loaded)
	}
	if _, ok := loaded.Record("a"); !ok {
		t.Error("cards must survive the daily reset")
	}
}

func TestClearStore(t *testing.T) {
	c := &clock{time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	db := openTestDB(t, c)
	ctx := context.Background()
	other := domain.Key{Deck: domain.Sentences, Direction: domain.DirectionRecognition}

	store := domain.NewReviewStore("2026-03-10").WithRecord(domain.ReviewRecord{ItemID: "a", Card: fsrs.Card{State: fsrs.Learning, Due: c.t}})
	for _, k := range []domain.Key{testKey, other} {
		if err := db.SaveStore(ctx, k, store); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.ClearStore(ctx, testKey); err != nil {
		t.Fatal(err)
	}

	cleared, err := db.LoadStore(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared.Cards) != 0 {
		t.Errorf("cleared store still has cards: %+v", cleared.Cards)
	}
	kept, err := db.LoadStore(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if len(kept.Cards) != 1 {
		t.Error("clearing one direction must not touch the other")
	}
}

func TestSettings(t *testing.T) {
	c := &clock{time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	db := openTestDB(t, c)
	ctx := context.Background()

	s, err := db.LoadSettings(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if s.NewCardsPerDay != 15 {
		t.Errorf("defaults = %+v", s)
	}

	want := domain.Settings{NewCardsPerDay: 7, Levels: []string{"A1", "B2"}}
	if err := db.SaveSettings(ctx, testKey, want); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadSettings(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Errorf("settings = %+v, want %+v", got, want)
	}

	if err := db.SaveSettings(ctx, testKey, domain.Settings{NewCardsPerDay: 10000}); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
}
