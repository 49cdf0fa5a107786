package srs

import (
	"errors"
	"time"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

// ErrNoScheduler is returned by NewEngine when no scheduler is given.
var ErrNoScheduler = errors.New("srs: engine has no scheduler")

// Engine builds and grades sessions for one deck.
type Engine[T any] struct {
	identity  Identity[T]
	scheduler Scheduler
}

// NewEngine returns an engine for items recognised by identity.
func NewEngine[T any](identity Identity[T], scheduler Scheduler) (*Engine[T], error) {
	if scheduler == nil {
		return nil, ErrNoScheduler
	}
	if identity.Key == nil {
		return nil, errors.New("srs: identity needs a key function")
	}
	return &Engine[T]{identity: identity, scheduler: scheduler}, nil
}

// Plan is the result of a session build.
type Plan[T any] struct {
	Review []Card[T]
	New    []Card[T]
}

// Queue returns the presentation order: reviews before new introductions.
func (p Plan[T]) Queue() []Card[T] {
	queue := make([]Card[T], 0, len(p.Review)+len(p.New))
	queue = append(queue, p.Review...)
	return append(queue, p.New...)
}

// Len returns the number of cards in the plan.
func (p Plan[T]) Len() int {
	return len(p.Review) + len(p.New)
}

// RemainingNew returns how many new cards may still be introduced today.
func RemainingNew(store domain.ReviewStore, settings domain.Settings) int {
	return max(0, settings.NewCardsPerDay-len(store.NewCardsToday))
}

// Build partitions items into the review and new queues for a visit at now.
// Items are scanned once in content order; the review queue is then sorted by
// due date. Calling Build again on an unchanged store yields the same plan.
func (e *Engine[T]) Build(items []T, store domain.ReviewStore, settings domain.Settings, now time.Time) Plan[T] {
	var plan Plan[T]
	e.admit(items, store, settings, now, func(c Card[T]) {
		if c.IsNew {
			plan.New = append(plan.New, c)
		} else {
			plan.Review = append(plan.Review, c)
		}
	})
	plan.Review = e.sortByDue(plan.Review)
	return plan
}

// Count is the number of actionable cards of one deck/direction.
type Count struct {
	Reviews int `json:"reviews"`
	New     int `json:"new"`
}

// Total returns due reviews plus the remaining new-card allowance in use.
func (c Count) Total() int {
	return c.Reviews + c.New
}

// DueCount reports how many cards Build would return, without ordering them.
func (e *Engine[T]) DueCount(items []T, store domain.ReviewStore, settings domain.Settings, now time.Time) Count {
	var count Count
	e.admit(items, store, settings, now, func(c Card[T]) {
		if c.IsNew {
			count.New++
		} else {
			count.Reviews++
		}
	})
	return count
}

// admit is the single inclusion predicate shared by Build and DueCount.
func (e *Engine[T]) admit(items []T, store domain.ReviewStore, settings domain.Settings, now time.Time, visit func(Card[T])) {
	remaining := RemainingNew(store, settings)
	reviewed := toSet(store.ReviewedToday)
	introduced := toSet(store.NewCardsToday)
	seen := make(map[string]struct{}, len(items))
	admittedNew := 0

	for _, item := range items {
		id := e.identity.Key(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		rec := e.record(store, id, now)
		switch rec.Card.State {
		case fsrs.New:
			if _, ok := introduced[id]; ok || admittedNew >= remaining {
				continue
			}
			admittedNew++
			visit(Card[T]{Item: item, Record: rec, IsNew: true})
		case fsrs.Learning, fsrs.Relearning:
			// Mid-session corrections stay actionable all day.
			if _, ok := reviewed[id]; ok {
				continue
			}
			visit(Card[T]{Item: item, Record: rec})
		default:
			if _, ok := reviewed[id]; ok || !IsDue(rec, now) {
				continue
			}
			visit(Card[T]{Item: item, Record: rec})
		}
	}
}

// record fetches the stored record for id, or synthesizes a fresh New one. The
// synthesized record is not added to the store until it is graded.
func (e *Engine[T]) record(store domain.ReviewStore, id string, now time.Time) domain.ReviewRecord {
	if rec, ok := store.Record(id); ok {
		rec.ItemID = id
		return rec
	}
	return domain.ReviewRecord{ItemID: id, Card: e.scheduler.EmptyCard(now)}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
