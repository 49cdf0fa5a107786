package domain

import (
	"maps"
	"slices"

	"github.com/conorfennell/langdrill/internal/fsrs"
)

// MaxReviewLog bounds the review history kept on each record.
const MaxReviewLog = 50

// ReviewRecord is the persisted state of one drillable item.
type ReviewRecord struct {
	ItemID string           `json:"item_id"`
	Card   fsrs.Card        `json:"card"`
	Log    []fsrs.ReviewLog `json:"log,omitempty"`
}

// WithReview returns a copy of r carrying the new card and the log entry.
func (r ReviewRecord) WithReview(card fsrs.Card, entry fsrs.ReviewLog) ReviewRecord {
	log := append(slices.Clone(r.Log), entry)
	if len(log) > MaxReviewLog {
		log = log[len(log)-MaxReviewLog:]
	}
	return ReviewRecord{ItemID: r.ItemID, Card: card, Log: log}
}

// ReviewStore is the scheduling state of one deck/direction.
//
// ReviewedToday and NewCardsToday only hold ids graded on LastReviewDate, each
// at most once. Methods never modify the receiver: they return an updated copy
// so that stores stay comparable by identity between renders.
type ReviewStore struct {
	Cards          map[string]ReviewRecord `json:"cards"`
	ReviewedToday  []string                `json:"reviewed_today"`
	NewCardsToday  []string                `json:"new_cards_today"`
	LastReviewDate Day                     `json:"last_review_date"`
}

// NewReviewStore returns an empty store for today.
func NewReviewStore(today Day) ReviewStore {
	return ReviewStore{
		Cards:          map[string]ReviewRecord{},
		ReviewedToday:  []string{},
		NewCardsToday:  []string{},
		LastReviewDate: today,
	}
}

// Record returns the stored record for id.
func (s ReviewStore) Record(id string) (ReviewRecord, bool) {
	rec, ok := s.Cards[id]
	return rec, ok
}

// Reviewed reports whether id has been graded done today.
func (s ReviewStore) Reviewed(id string) bool {
	return slices.Contains(s.ReviewedToday, id)
}

// Introduced reports whether id was drawn as a new card today.
func (s ReviewStore) Introduced(id string) bool {
	return slices.Contains(s.NewCardsToday, id)
}

// WithRecord returns a copy of s with rec stored under its item id.
func (s ReviewStore) WithRecord(rec ReviewRecord) ReviewStore {
	out := s
	out.Cards = maps.Clone(s.Cards)
	if out.Cards == nil {
		out.Cards = map[string]ReviewRecord{}
	}
	out.Cards[rec.ItemID] = rec
	return out
}

// WithReviewed returns a copy of s with id appended to ReviewedToday.
func (s ReviewStore) WithReviewed(id string) ReviewStore {
	if s.Reviewed(id) {
		return s
	}
	out := s
	out.ReviewedToday = append(slices.Clone(s.ReviewedToday), id)
	return out
}

// WithIntroduced returns a copy of s with id appended to NewCardsToday.
func (s ReviewStore) WithIntroduced(id string) ReviewStore {
	if s.Introduced(id) {
		return s
	}
	out := s
	out.NewCardsToday = append(slices.Clone(s.NewCardsToday), id)
	return out
}

// Clone returns a deep copy of s.
func (s ReviewStore) Clone() ReviewStore {
	out := ReviewStore{
		Cards:          make(map[string]ReviewRecord, len(s.Cards)),
		ReviewedToday:  slices.Clone(s.ReviewedToday),
		NewCardsToday:  slices.Clone(s.NewCardsToday),
		LastReviewDate: s.LastReviewDate,
	}
	for id, rec := range s.Cards {
		rec.Log = slices.Clone(rec.Log)
		out.Cards[id] = rec
	}
	if out.ReviewedToday == nil {
		out.ReviewedToday = []string{}
	}
	if out.NewCardsToday == nil {
		out.NewCardsToday = []string{}
	}
	return out
}
