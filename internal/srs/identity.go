package srs

import "github.com/conorfennell/langdrill/internal/domain"

// Identity tells the engine how to recognise items of one deck.
type Identity[T any] struct {
	// Key returns the stable unique id of an item.
	Key func(T) string
	// Custom reports learner-authored items. Nil when the deck does not
	// distinguish custom from system content.
	Custom func(T) bool
}

// Card is the unit handed to the UI: an item, its current review record and
// whether it was drawn as a new card.
type Card[T any] struct {
	Item   T                   `json:"item"`
	Record domain.ReviewRecord `json:"record"`
	IsNew  bool                `json:"is_new"`
}

// ID returns the item id the card was built for.
func (c Card[T]) ID() string {
	return c.Record.ItemID
}
