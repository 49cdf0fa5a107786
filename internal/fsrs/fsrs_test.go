package fsrs

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultParams())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func TestGradeMemory(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reviewed := Card{
		State:         Review,
		Due:           now.Add(-24 * time.Hour),
		Stability:     10,
		Difficulty:    5,
		ScheduledDays: 9,
		Reps:          4,
		LastReview:    now.Add(-10 * 24 * time.Hour),
	}

	t.Run("Review with Again", func(t *testing.T) {
		next, _, err := s.Grade(reviewed, Again, now)
		if err != nil {
			t.Fatal(err)
		}
		if next.Stability >= reviewed.Stability {
			t.Errorf("Expected stability to drop after a lapse, but got %.2f", next.Stability)
		}
		if next.Difficulty <= reviewed.Difficulty {
			t.Errorf("Expected difficulty to increase, but it did not. Got %.2f", next.Difficulty)
		}
		if next.State != Relearning {
			t.Errorf("Expected state %s, got %s", Relearning, next.State)
		}
		if next.Lapses != 1 {
			t.Errorf("Expected one lapse, got %d", next.Lapses)
		}
	})

	t.Run("Review with Good", func(t *testing.T) {
		next, _, err := s.Grade(reviewed, Good, now)
		if err != nil {
			t.Fatal(err)
		}
		if next.Stability <= reviewed.Stability {
			t.Errorf("Expected stability to increase, but it did not. Got %.2f", next.Stability)
		}
		if next.State != Review || next.ScheduledDays < 1 {
			t.Errorf("Expected a review interval of at least a day, got %s / %d days", next.State, next.ScheduledDays)
		}
		if want := now.Add(time.Duration(next.ScheduledDays) * 24 * time.Hour); !next.Due.Equal(want) {
			t.Errorf("Expected due %v, got %v", want, next.Due)
		}
		if next.Reps != reviewed.Reps+1 || !next.LastReview.Equal(now) {
			t.Errorf("Expected reps %d and last review %v, got %+v", reviewed.Reps+1, now, next)
		}
	})

	t.Run("Review with Hard", func(t *testing.T) {
		next, _, err := s.Grade(reviewed, Hard, now)
		if err != nil {
			t.Fatal(err)
		}
		if next.Difficulty <= reviewed.Difficulty {
			t.Errorf("Expected difficulty to increase for 'Hard', but it did not. Got %.2f", next.Difficulty)
		}
		good, _, _ := s.Grade(reviewed, Good, now)
		if next.Due.After(good.Due) {
			t.Errorf("Hard (%v) must not be scheduled after Good (%v)", next.Due, good.Due)
		}
	})

	t.Run("input card is not modified", func(t *testing.T) {
		before := reviewed
		if _, _, err := s.Grade(reviewed, Easy, now); err != nil {
			t.Fatal(err)
		}
		if before != reviewed {
			t.Errorf("card was mutated: %+v", reviewed)
		}
	})
}

func TestGradeTransitions(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fresh := s.EmptyCard(now)
	learning, _, _ := s.Grade(fresh, Good, now)
	review := Card{State: Review, Due: now, Stability: 4, Difficulty: 6, ScheduledDays: 4, Reps: 5, LastReview: now.Add(-4 * 24 * time.Hour)}
	relearning, _, _ := s.Grade(review, Again, now)

	// wantDue of zero means "at least a day".
	testCases := []struct {
		name      string
		card      Card
		rating    Rating
		wantState State
		wantDue   time.Duration
	}{
		{"new again", fresh, Again, Learning, time.Minute},
		{"new hard", fresh, Hard, Learning, 5 * time.Minute},
		{"new good", fresh, Good, Learning, 10 * time.Minute},
		{"new easy", fresh, Easy, Review, 0},
		{"learning again", learning, Again, Learning, 5 * time.Minute},
		{"learning hard", learning, Hard, Learning, 10 * time.Minute},
		{"learning good", learning, Good, Review, 0},
		{"review again", review, Again, Relearning, 5 * time.Minute},
		{"relearning good", relearning, Good, Review, 0},
		{"relearning again", relearning, Again, Relearning, 5 * time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, log, err := s.Grade(tc.card, tc.rating, now)
			if err != nil {
				t.Fatal(err)
			}
			if next.State != tc.wantState {
				t.Errorf("state = %s, want %s", next.State, tc.wantState)
			}
			got := next.Due.Sub(now)
			if tc.wantDue == 0 && got < 24*time.Hour {
				t.Errorf("due in %s, want at least a day", got)
			}
			if tc.wantDue != 0 && got != tc.wantDue {
				t.Errorf("due in %s, want %s", got, tc.wantDue)
			}
			if log.State != tc.card.State || log.Rating != tc.rating || !log.ReviewedAt.Equal(now) {
				t.Errorf("unexpected log %+v", log)
			}
		})
	}
}

func TestGradeNonAgainMovesDueForward(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, state := range []State{New, Learning, Review, Relearning} {
		card := Card{State: state, Due: now.Add(-time.Hour), Stability: 2, Difficulty: 5, Reps: 1}
		if state == New {
			card = s.EmptyCard(now)
		}
		for _, r := range []Rating{Hard, Good, Easy} {
			next, _, err := s.Grade(card, r, now)
			if err != nil {
				t.Fatal(err)
			}
			if !next.Due.After(now) {
				t.Errorf("%s/%s: due %v not after %v", state, r, next.Due, now)
			}
		}
		next, _, _ := s.Grade(card, Again, now)
		if !next.State.ShortTerm() {
			t.Errorf("%s/again: state %s is not short-term", state, next.State)
		}
	}
}

func TestGradeInvalidRating(t *testing.T) {
	s := newTestScheduler(t)
	_, _, err := s.Grade(s.EmptyCard(time.Now()), Rating(7), time.Now())
	if !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	preview := s.Preview(s.EmptyCard(now), now)
	if len(preview) != 4 {
		t.Fatalf("expected 4 labels, got %v", preview)
	}
	if preview[Again] != "1 minute" {
		t.Errorf("Again label = %q", preview[Again])
	}
	if preview[Good] != "10 minutes" {
		t.Errorf("Good label = %q", preview[Good])
	}
}

func TestNewSchedulerRejectsInvalidParams(t *testing.T) {
	testCases := []struct {
		name   string
		params Params
	}{
		{"retention of one", Params{DesiredRetention: 1, MaximumInterval: 365}},
		{"zero retention", Params{DesiredRetention: 0, MaximumInterval: 365}},
		{"zero interval", Params{DesiredRetention: 0.9, MaximumInterval: 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewScheduler(&tc.params); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestMaximumIntervalCapsReviews(t *testing.T) {
	s, err := NewScheduler(&Params{DesiredRetention: 0.9, MaximumInterval: 3})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	card := Card{State: Review, Due: now, Stability: 200, Difficulty: 3, ScheduledDays: 3, Reps: 9, LastReview: now.Add(-3 * 24 * time.Hour)}
	for _, r := range []Rating{Hard, Good, Easy} {
		next, _, err := s.Grade(card, r, now)
		if err != nil {
			t.Fatal(err)
		}
		if next.Due.After(now.Add(3 * 24 * time.Hour)) {
			t.Errorf("%s: due %v beyond the 3 day maximum", r, next.Due)
		}
	}
}

func TestDefaultParamsAreValid(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	if p.DesiredRetention != 0.9 {
		t.Errorf("default retention = %v, want 0.9", p.DesiredRetention)
	}
}

func TestCardJSONRoundTrip(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 30, 15, 123456789, time.FixedZone("CET", 3600))
	card := Card{State: Review, Due: due, Stability: 4.2, Difficulty: 5.5, Reps: 3, LastReview: due.Add(-time.Hour)}
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatal(err)
	}
	var back Card
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Due.Equal(card.Due) || back.State != card.State {
		t.Errorf("round trip changed card: %+v -> %+v", card, back)
	}
}

func TestStateJSONAcceptsLegacyIntegers(t *testing.T) {
	var s State
	if err := json.Unmarshal([]byte("3"), &s); err != nil || s != Relearning {
		t.Errorf("got %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`"review"`), &s); err != nil || s != Review {
		t.Errorf("got %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte("9"), &s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestParseRating(t *testing.T) {
	for in, want := range map[string]Rating{"again": Again, "Hard": Hard, " good ": Good, "4": Easy} {
		got, err := ParseRating(in)
		if err != nil || got != want {
			t.Errorf("ParseRating(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRating("meh"); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}
