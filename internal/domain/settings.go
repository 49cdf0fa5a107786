package domain

import "fmt"

// MaxNewCardsPerDay bounds the daily new-card allowance.
const MaxNewCardsPerDay = 9999

// Settings configures one deck/direction.
type Settings struct {
	NewCardsPerDay int      `json:"new_cards_per_day"`
	Levels         []string `json:"levels,omitempty"` // empty selects every level
}

// Validate checks the ranges the session builder relies on.
func (s Settings) Validate() error {
	if s.NewCardsPerDay < 0 || s.NewCardsPerDay > MaxNewCardsPerDay {
		return fmt.Errorf("%w: new_cards_per_day %d out of range [0, %d]", ErrInvalidSettings, s.NewCardsPerDay, MaxNewCardsPerDay)
	}
	return nil
}

// Equal reports whether two settings would build the same session.
func (s Settings) Equal(other Settings) bool {
	if s.NewCardsPerDay != other.NewCardsPerDay || len(s.Levels) != len(other.Levels) {
		return false
	}
	for i := range s.Levels {
		if s.Levels[i] != other.Levels[i] {
			return false
		}
	}
	return true
}
