// Package decks binds the five content decks to study controllers.
package decks

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/conorfennell/langdrill/internal/content"
	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/srs"
	"github.com/conorfennell/langdrill/internal/study"
)

// Registry holds one controller per deck/direction.
type Registry struct {
	keys  []domain.Key
	decks map[domain.Key]Deck
}

// NewRegistry creates a controller for every deck/direction. Controllers are
// opened lazily.
func NewRegistry(src content.Source, persist study.Persistence, sched srs.Scheduler, opts study.Options) (*Registry, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	builders := []func() ([]Deck, error){
		func() ([]Deck, error) {
			return deckDef[VocabularyItem]{
				deck:    domain.Vocabulary,
				levels:  true,
				convert: toVocabulary,
				identity: srs.Identity[VocabularyItem]{
					Key:    func(i VocabularyItem) string { return i.ID },
					Custom: func(i VocabularyItem) bool { return i.Custom },
				},
			}.controllers(src, persist, sched, validate, opts)
		},
		func() ([]Deck, error) {
			return deckDef[DeclensionItem]{
				deck:     domain.Declension,
				levels:   true,
				convert:  toDeclension,
				identity: srs.Identity[DeclensionItem]{Key: func(i DeclensionItem) string { return i.ID }},
			}.controllers(src, persist, sched, validate, opts)
		},
		func() ([]Deck, error) {
			return deckDef[SentenceItem]{
				deck:    domain.Sentences,
				levels:  true,
				convert: toSentence,
				identity: srs.Identity[SentenceItem]{
					Key:    func(i SentenceItem) string { return i.ID },
					Custom: func(i SentenceItem) bool { return i.Custom },
				},
			}.controllers(src, persist, sched, validate, opts)
		},
		func() ([]Deck, error) {
			return deckDef[ConjugationItem]{
				deck:     domain.Conjugation,
				levels:   true,
				convert:  toConjugation,
				identity: srs.Identity[ConjugationItem]{Key: func(i ConjugationItem) string { return i.ID }},
			}.controllers(src, persist, sched, validate, opts)
		},
		func() ([]Deck, error) {
			return deckDef[AspectItem]{
				deck:    domain.Aspect,
				convert: toAspect,
				identity: srs.Identity[AspectItem]{
					Key:    func(i AspectItem) string { return i.ID },
					Custom: func(i AspectItem) bool { return i.Custom },
				},
			}.controllers(src, persist, sched, validate, opts)
		},
	}

	r := &Registry{decks: make(map[domain.Key]Deck)}
	for _, build := range builders {
		decks, err := build()
		if err != nil {
			return nil, err
		}
		for _, d := range decks {
			r.keys = append(r.keys, d.Key())
			r.decks[d.Key()] = d
		}
	}
	return r, nil
}

// Keys returns every deck/direction in catalogue order.
func (r *Registry) Keys() []domain.Key {
	return append([]domain.Key(nil), r.keys...)
}

// Deck returns the controller for key, opening it on first use.
func (r *Registry) Deck(ctx context.Context, key domain.Key) (Deck, error) {
	d, ok := r.decks[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDirection, key)
	}
	if err := d.EnsureOpen(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// DueCount is the dashboard badge of one deck/direction.
type DueCount struct {
	Key     domain.Key `json:"key"`
	Reviews int        `json:"reviews"`
	New     int        `json:"new"`
	Total   int        `json:"total"`
}

// DueCounts re-derives the badge of every deck/direction.
func (r *Registry) DueCounts(ctx context.Context) ([]DueCount, error) {
	counts := make([]DueCount, 0, len(r.keys))
	for _, key := range r.keys {
		c, err := r.decks[key].DueCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("due count for %s: %w", key, err)
		}
		counts = append(counts, DueCount{Key: key, Reviews: c.Reviews, New: c.New, Total: c.Total()})
	}
	return counts, nil
}

// TotalDue sums the badges.
func TotalDue(counts []DueCount) int {
	return lo.SumBy(counts, func(c DueCount) int { return c.Total })
}

// Wait blocks until every controller's background writes are done.
func (r *Registry) Wait() {
	lo.ForEach(lo.Values(r.decks), func(d Deck, _ int) { d.Wait() })
}
