package srs

import (
	"time"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

// IsDue reports whether the record's due timestamp is at or before now.
func IsDue(rec domain.ReviewRecord, now time.Time) bool {
	return !rec.Card.Due.After(now)
}

// ReconcileDay clears the day-scoped lists of a store last used on another day.
// It is the only daily reset: every read path must pass through it. Cards are
// left untouched. The second result reports whether a reset happened.
func ReconcileDay(store domain.ReviewStore, today domain.Day) (domain.ReviewStore, bool) {
	if store.Cards == nil {
		store.Cards = map[string]domain.ReviewRecord{}
	}
	if store.LastReviewDate == today {
		if store.ReviewedToday == nil {
			store.ReviewedToday = []string{}
		}
		if store.NewCardsToday == nil {
			store.NewCardsToday = []string{}
		}
		return store, false
	}
	return domain.ReviewStore{
		Cards:          store.Cards,
		ReviewedToday:  []string{},
		NewCardsToday:  []string{},
		LastReviewDate: today,
	}, true
}

// Scheduler is the per-card spaced-repetition algorithm.
type Scheduler interface {
	EmptyCard(now time.Time) fsrs.Card
	Grade(card fsrs.Card, rating fsrs.Rating, now time.Time) (fsrs.Card, fsrs.ReviewLog, error)
	Preview(card fsrs.Card, now time.Time) map[fsrs.Rating]string
}
