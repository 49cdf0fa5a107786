package srs

import (
	"time"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

// PracticeAhead selects up to n cards the learner has already used up today or
// that are not yet due, for extra practice once the scheduled session is done.
// New cards are never included. Cards are ordered by due date, custom first.
func (e *Engine[T]) PracticeAhead(items []T, store domain.ReviewStore, n int, now time.Time) []Card[T] {
	if n <= 0 {
		return nil
	}
	reviewed := toSet(store.ReviewedToday)
	var picked []Card[T]
	for _, item := range items {
		id := e.identity.Key(item)
		rec, ok := store.Record(id)
		if !ok || rec.Card.State == fsrs.New {
			continue
		}
		rec.ItemID = id
		if _, done := reviewed[id]; done || !IsDue(rec, now) {
			picked = append(picked, Card[T]{Item: item, Record: rec})
		}
	}
	picked = dedupe(picked)
	picked = e.sortByDue(picked)
	if len(picked) > n {
		picked = picked[:n]
	}
	return picked
}

// ExtraNew selects up to n new cards not yet introduced today, in content order,
// ignoring the daily new-card allowance.
func (e *Engine[T]) ExtraNew(items []T, store domain.ReviewStore, n int, now time.Time) []Card[T] {
	if n <= 0 {
		return nil
	}
	introduced := toSet(store.NewCardsToday)
	var picked []Card[T]
	for _, item := range items {
		if len(picked) >= n {
			break
		}
		id := e.identity.Key(item)
		if _, ok := introduced[id]; ok {
			continue
		}
		rec := e.record(store, id, now)
		if rec.Card.State != fsrs.New {
			continue
		}
		introduced[id] = struct{}{}
		picked = append(picked, Card[T]{Item: item, Record: rec, IsNew: true})
	}
	return picked
}

func dedupe[T any](cards []Card[T]) []Card[T] {
	seen := make(map[string]struct{}, len(cards))
	out := cards[:0]
	for _, c := range cards {
		if _, ok := seen[c.ID()]; ok {
			continue
		}
		seen[c.ID()] = struct{}{}
		out = append(out, c)
	}
	return out
}
