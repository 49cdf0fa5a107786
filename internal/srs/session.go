package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

// ErrSessionFinished is returned when grading a session with no card left.
var ErrSessionFinished = errors.New("srs: session has no current card")

// Session is the in-memory presentation state of one visit: the ordered main
// queue, the index of the card being shown, and the learning loop of cards
// answered Again. It is not persisted.
type Session[T any] struct {
	queue  []Card[T]
	index  int
	loop   []Card[T]
	graded int
}

// NewSession starts a session over queue.
func NewSession[T any](queue []Card[T]) *Session[T] {
	return &Session[T]{queue: queue}
}

// Current returns the card to show. Main-queue cards come first; once the main
// queue is exhausted the learning loop is drained from its front.
func (s *Session[T]) Current() (Card[T], bool) {
	if s.index < len(s.queue) {
		return s.queue[s.index], true
	}
	if len(s.loop) > 0 {
		return s.loop[0], true
	}
	return Card[T]{}, false
}

// Finished reports whether the main queue is exhausted and the learning loop is
// empty. It is the only terminal condition.
func (s *Session[T]) Finished() bool {
	return s.index >= len(s.queue) && len(s.loop) == 0
}

// Progress summarises a session for badges.
type Progress struct {
	Remaining int `json:"remaining"`
	Learning  int `json:"learning"`
	Graded    int `json:"graded"`
}

// Progress reports how much of the session is left.
func (s *Session[T]) Progress() Progress {
	return Progress{
		Remaining: max(0, len(s.queue)-s.index),
		Learning:  len(s.loop),
		Graded:    s.graded,
	}
}

// advance moves past the current card. Again keeps the updated card in the
// learning loop; any other grade retires it from the session.
func (s *Session[T]) advance(updated Card[T], rating fsrs.Rating) {
	s.graded++
	inMain := s.index < len(s.queue)
	switch {
	case inMain && rating == fsrs.Again:
		s.loop = append(s.loop, updated)
		s.index++
	case inMain:
		s.index++
	case rating == fsrs.Again:
		s.loop = append(s.loop[1:], updated)
	default:
		s.loop = s.loop[1:]
	}
}

// Grade applies rating to the session's current card at now. It returns the
// updated store and advances the session. The store passed in is not modified.
//
// The graded record replaces the stored one. A card drawn as new is added to
// NewCardsToday. Any grade other than Again marks the card done for the day.
func (e *Engine[T]) Grade(store domain.ReviewStore, session *Session[T], rating fsrs.Rating, now time.Time) (domain.ReviewStore, Card[T], error) {
	current, ok := session.Current()
	if !ok {
		return store, Card[T]{}, ErrSessionFinished
	}
	next, entry, err := e.scheduler.Grade(current.Record.Card, rating, now)
	if err != nil {
		return store, Card[T]{}, fmt.Errorf("grade %s: %w", current.ID(), err)
	}

	updated := current
	updated.Record = current.Record.WithReview(next, entry)

	store = store.WithRecord(updated.Record)
	if current.IsNew {
		store = store.WithIntroduced(current.ID())
	}
	if rating != fsrs.Again {
		store = store.WithReviewed(current.ID())
	}

	session.advance(updated, rating)
	return store, updated, nil
}

// Preview labels each rating button for card.
func (e *Engine[T]) Preview(card Card[T], now time.Time) map[fsrs.Rating]string {
	return e.scheduler.Preview(card.Record.Card, now)
}
