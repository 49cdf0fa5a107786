package fsrs

import (
	"time"

	gofsrs "github.com/open-spaced-repetition/go-fsrs"
)

// Card holds the memory state of a single drillable item.
type Card struct {
	State         State     `json:"state"`
	Due           time.Time `json:"due"`
	Stability     float64   `json:"stability"`
	Difficulty    float64   `json:"difficulty"`
	ElapsedDays   int       `json:"elapsed_days"`
	ScheduledDays int       `json:"scheduled_days"`
	Reps          int       `json:"reps"`
	Lapses        int       `json:"lapses"`
	LastReview    time.Time `json:"last_review"`
}

// ReviewLog records a single review event for a card.
type ReviewLog struct {
	Rating     Rating    `json:"rating"`
	State      State     `json:"state"` // state before the review
	Due        time.Time `json:"due"`   // due date before the review
	ReviewedAt time.Time `json:"reviewed_at"`
}

func (c Card) toLib() gofsrs.Card {
	return gofsrs.Card{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         gofsrs.State(c.State),
		LastReview:    c.LastReview,
	}
}

func fromLib(c gofsrs.Card) Card {
	return Card{
		State:         State(c.State),
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   int(c.ElapsedDays),
		ScheduledDays: int(c.ScheduledDays),
		Reps:          int(c.Reps),
		Lapses:        int(c.Lapses),
		LastReview:    c.LastReview,
	}
}
