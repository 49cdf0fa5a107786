// Package content reads deck items from the content directory.
package content

import (
	"context"
	"errors"
	"slices"

	"github.com/conorfennell/langdrill/internal/domain"
)

var ErrNoDeckDir = errors.New("content: deck directory missing")

// Entry is one raw content item before it is converted to a typed deck item.
type Entry struct {
	ID     string            `koanf:"id"`
	Level  string            `koanf:"level"`
	Custom bool              `koanf:"custom"`
	Fields map[string]string `koanf:"fields"`
}

// Filter narrows the entries listed for a deck.
type Filter struct {
	// Levels selects entries by level. Empty selects all levels; entries
	// without a level always pass.
	Levels []string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if len(f.Levels) == 0 || e.Level == "" {
		return true
	}
	return slices.Contains(f.Levels, e.Level)
}

// Source lists the items of a deck in their natural content order.
type Source interface {
	ListEntries(ctx context.Context, deck domain.Deck, filter Filter) ([]Entry, error)
}

// Static is an in-memory Source.
type Static map[domain.Deck][]Entry

func (s Static) ListEntries(ctx context.Context, deck domain.Deck, filter Filter) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range s[deck] {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
