package srs

import (
	"slices"

	"github.com/samber/lo"
)

// sortByDue orders cards by due date ascending, keeping input order on ties.
// When the deck distinguishes custom content, custom cards are sorted on their
// own and placed ahead of system cards.
func (e *Engine[T]) sortByDue(cards []Card[T]) []Card[T] {
	if e.identity.Custom == nil {
		return sortedByDue(cards)
	}
	custom := lo.Filter(cards, func(c Card[T], _ int) bool {
		return e.identity.Custom(c.Item)
	})
	system := lo.Filter(cards, func(c Card[T], _ int) bool {
		return !e.identity.Custom(c.Item)
	})
	return append(sortedByDue(custom), sortedByDue(system)...)
}

func sortedByDue[T any](cards []Card[T]) []Card[T] {
	out := slices.Clone(cards)
	slices.SortStableFunc(out, func(a, b Card[T]) int {
		return a.Record.Card.Due.Compare(b.Record.Card.Due)
	})
	return out
}
