package decks

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/conorfennell/langdrill/internal/content"
	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/srs"
	"github.com/conorfennell/langdrill/internal/study"
)

// Deck is the item-type independent view of one deck/direction controller.
type Deck interface {
	Key() domain.Key
	Open(ctx context.Context) error
	EnsureOpen(ctx context.Context) error
	View() study.View[any]
	Grade(ctx context.Context, rating fsrs.Rating) (srs.Card[any], error)
	Settings() domain.Settings
	UpdateSettings(ctx context.Context, settings domain.Settings) error
	PracticeAhead(n int) (int, error)
	ExtraNew(n int) (int, error)
	Restart() error
	ClearProgress(ctx context.Context) error
	DueCount(ctx context.Context) (srs.Count, error)
	DrainNotices() []study.Notice
	Wait()
}

type typedDeck[T any] struct {
	*study.Controller[T]
}

func (d typedDeck[T]) View() study.View[any] {
	v := d.Controller.View()
	out := study.View[any]{
		Key:      v.Key,
		Status:   v.Status,
		Mode:     v.Mode,
		Preview:  v.Preview,
		Progress: v.Progress,
		Pending:  v.Pending,
	}
	if v.Card != nil {
		c := erase(*v.Card)
		out.Card = &c
	}
	return out
}

func (d typedDeck[T]) Grade(ctx context.Context, rating fsrs.Rating) (srs.Card[any], error) {
	c, err := d.Controller.Grade(ctx, rating)
	if err != nil {
		return srs.Card[any]{}, err
	}
	return erase(c), nil
}

func erase[T any](c srs.Card[T]) srs.Card[any] {
	return srs.Card[any]{Item: c.Item, Record: c.Record, IsNew: c.IsNew}
}

// deckDef describes how one deck turns content entries into typed items.
type deckDef[T any] struct {
	deck     domain.Deck
	levels   bool
	convert  func(content.Entry) T
	identity srs.Identity[T]
}

// loader lists, converts and validates the deck's items. Entries failing
// validation are skipped; a missing deck directory is an empty deck.
func (s deckDef[T]) loader(src content.Source, validate *validator.Validate, log logrus.FieldLogger) study.Loader[T] {
	return func(ctx context.Context, settings domain.Settings) ([]T, error) {
		var filter content.Filter
		if s.levels {
			filter.Levels = settings.Levels
		}
		entries, err := src.ListEntries(ctx, s.deck, filter)
		if errors.Is(err, content.ErrNoDeckDir) {
			log.WithField("deck", s.deck).Debug("no content for deck")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		items := make([]T, 0, len(entries))
		for _, e := range entries {
			item := s.convert(e)
			if err := validate.Struct(item); err != nil {
				log.WithFields(logrus.Fields{"deck": s.deck, "item": e.ID}).WithError(err).Warn("skipping invalid item")
				continue
			}
			items = append(items, item)
		}
		return items, nil
	}
}

func (s deckDef[T]) controllers(src content.Source, persist study.Persistence, sched srs.Scheduler, validate *validator.Validate, opts study.Options) ([]Deck, error) {
	engine, err := srs.NewEngine(s.identity, sched)
	if err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	load := s.loader(src, validate, log)
	var out []Deck
	for _, dir := range s.deck.Directions() {
		key := domain.Key{Deck: s.deck, Direction: dir}
		out = append(out, typedDeck[T]{study.NewController(key, engine, persist, load, opts)})
	}
	return out, nil
}
