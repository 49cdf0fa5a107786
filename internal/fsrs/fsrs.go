// Package fsrs schedules single cards. It wraps go-fsrs behind closed State
// and Rating enums that persist by name.
package fsrs

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	gofsrs "github.com/open-spaced-repetition/go-fsrs"
)

// Params holds the parameters for the FSRS algorithm.
type Params struct {
	DesiredRetention float64 // desired retention rate (e.g., 0.9 for 90%)
	MaximumInterval  int     // days
}

// DefaultParams returns the go-fsrs defaults.
func DefaultParams() *Params {
	p := gofsrs.DefaultParam()
	return &Params{
		DesiredRetention: p.RequestRetention,
		MaximumInterval:  int(p.MaximumInterval),
	}
}

// Validate checks the parameters a Scheduler relies on.
func (p *Params) Validate() error {
	if p.DesiredRetention <= 0 || p.DesiredRetention >= 1 {
		return fmt.Errorf("%w: desired retention %.2f out of range (0, 1)", ErrInvalidParams, p.DesiredRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("%w: maximum interval %d", ErrInvalidParams, p.MaximumInterval)
	}
	return nil
}

// Scheduler applies ratings to cards.
type Scheduler struct {
	params gofsrs.Parameters
}

// NewScheduler validates p and returns a Scheduler using it.
func NewScheduler(p *Params) (*Scheduler, error) {
	if p == nil {
		p = DefaultParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	params := gofsrs.DefaultParam()
	params.RequestRetention = p.DesiredRetention
	params.MaximumInterval = float64(p.MaximumInterval)
	return &Scheduler{params: params}, nil
}

// EmptyCard returns a card that has never been reviewed. It is due immediately.
func (s *Scheduler) EmptyCard(now time.Time) Card {
	return Card{State: New, Due: now}
}

// Grade returns the card that results from answering card with rating at now.
// The input card is not modified. Again always leaves the card in Learning or
// Relearning; every other rating moves the due date past now.
func (s *Scheduler) Grade(card Card, rating Rating, now time.Time) (Card, ReviewLog, error) {
	if !rating.Valid() {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	infos := s.params.Repeat(card.toLib(), now)
	next := fromLib(infos[gofsrs.Rating(rating)].Card)
	return next, ReviewLog{Rating: rating, State: card.State, Due: card.Due, ReviewedAt: now}, nil
}

// Preview labels every rating with how long until the card would be due again.
func (s *Scheduler) Preview(card Card, now time.Time) map[Rating]string {
	infos := s.params.Repeat(card.toLib(), now)
	out := make(map[Rating]string, len(Ratings))
	for _, r := range Ratings {
		info, ok := infos[gofsrs.Rating(r)]
		if !ok {
			continue
		}
		out[r] = strings.TrimSpace(humanize.RelTime(now, info.Card.Due, "", ""))
	}
	return out
}
