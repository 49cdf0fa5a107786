package study

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/optimistic"
	"github.com/conorfennell/langdrill/internal/srs"
)

// maxNotices bounds the undelivered notices a controller keeps.
const maxNotices = 20

// Options configures a Controller. Zero values select wall-clock time, UTC,
// a discarded log and no metrics.
type Options struct {
	Clock    func() time.Time
	Location *time.Location
	Log      logrus.FieldLogger
	Recorder Recorder
	// Notices receives rollback notices without blocking. Notices that do not
	// fit are still kept for DrainNotices.
	Notices chan<- Notice
}

// Controller is the single active session of one deck/direction. It is safe
// for concurrent use.
type Controller[T any] struct {
	key     domain.Key
	engine  *srs.Engine[T]
	persist Persistence
	load    Loader[T]

	now      func() time.Time
	loc      *time.Location
	log      logrus.FieldLogger
	recorder Recorder
	out      chan<- Notice

	mu       sync.Mutex
	store    *optimistic.Value[domain.ReviewStore]
	settings domain.Settings
	items    []T
	session  *srs.Session[T]
	status   Status
	mode     Mode

	noticeMu sync.Mutex
	notices  []Notice

	saves   sync.WaitGroup
	saveSeq uint64 // guarded by mu

	saveMu    sync.Mutex
	persisted uint64 // sequence of the last store written, guarded by saveMu
}

// NewController returns a controller in the loading state. Call Open before use.
func NewController[T any](key domain.Key, engine *srs.Engine[T], persist Persistence, load Loader[T], opts Options) *Controller[T] {
	c := &Controller[T]{
		key:      key,
		engine:   engine,
		persist:  persist,
		load:     load,
		now:      opts.Clock,
		loc:      opts.Location,
		log:      opts.Log,
		recorder: opts.Recorder,
		out:      opts.Notices,
		status:   StatusLoading,
		mode:     ModeScheduled,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		c.log = l
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	c.log = c.log.WithFields(logrus.Fields{"deck": key.Deck, "direction": key.Direction})
	return c
}

// Key returns the deck/direction the controller drives.
func (c *Controller[T]) Key() domain.Key {
	return c.key
}

// Open loads settings, store and items and builds a scheduled session. Calling
// it again reloads everything and discards the current session.
func (c *Controller[T]) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open(ctx)
}

// EnsureOpen opens the controller unless it already has a session.
func (c *Controller[T]) EnsureOpen(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return nil
	}
	return c.open(ctx)
}

func (c *Controller[T]) open(ctx context.Context) error {
	c.status = StatusLoading
	settings, err := c.persist.LoadSettings(ctx, c.key)
	if err != nil {
		return fmt.Errorf("load settings for %s: %w", c.key, err)
	}
	store, err := c.persist.LoadStore(ctx, c.key)
	if err != nil {
		return fmt.Errorf("load store for %s: %w", c.key, err)
	}
	items, err := c.load(ctx, settings)
	if err != nil {
		return fmt.Errorf("load items for %s: %w", c.key, err)
	}

	c.settings = settings
	c.items = items
	if c.store == nil {
		c.store = optimistic.New(store)
	} else {
		c.store.Reset(store)
	}
	c.rebuild()
	return nil
}

// rebuild replaces the session with a freshly built scheduled one.
func (c *Controller[T]) rebuild() {
	now := c.now()
	store := c.reconciled(now)
	plan := c.engine.Build(c.items, store, c.settings, now)
	c.replace(plan.Queue(), ModeScheduled)
	c.log.WithFields(logrus.Fields{"review": len(plan.Review), "new": len(plan.New)}).Debug("session built")
}

func (c *Controller[T]) replace(queue []srs.Card[T], mode Mode) {
	c.session = srs.NewSession(queue)
	c.mode = mode
	if len(queue) == 0 {
		c.status = StatusEmpty
	} else {
		c.status = StatusActive
	}
}

// reconciled returns the in-memory store with the daily reset applied for now.
// A reset is written back into the holder without a persistence round trip;
// the next save carries it. A pending write stays pending, and its rollback
// value gets the same reset.
func (c *Controller[T]) reconciled(now time.Time) domain.ReviewStore {
	today := domain.DayOf(now, c.loc)
	store, reset := srs.ReconcileDay(c.store.Get(), today)
	if reset {
		c.store.Amend(func(s domain.ReviewStore) domain.ReviewStore {
			s, _ = srs.ReconcileDay(s, today)
			return s
		})
		c.log.WithField("day", store.LastReviewDate).Info("day rolled over, daily lists cleared")
	}
	return store
}

// Grade applies rating to the current card. The in-memory store is updated
// before the write completes; a failed write rolls it back and is reported as
// a Notice. Grading continues on the rolled-back store.
func (c *Controller[T]) Grade(ctx context.Context, rating fsrs.Rating) (srs.Card[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return srs.Card[T]{}, ErrNotOpen
	}
	if !rating.Valid() {
		return srs.Card[T]{}, fmt.Errorf("%w: %d", fsrs.ErrInvalidRating, rating)
	}

	now := c.now()
	store := c.reconciled(now)
	next, graded, err := c.engine.Grade(store, c.session, rating, now)
	if err != nil {
		if errors.Is(err, srs.ErrSessionFinished) {
			return srs.Card[T]{}, ErrNoCard
		}
		return srs.Card[T]{}, err
	}
	op := c.store.Apply(next)
	c.saveSeq++
	c.recorder.Graded(c.key, rating)
	if c.session.Finished() {
		c.status = StatusFinished
	}

	c.log.WithFields(logrus.Fields{"item": graded.ID(), "rating": rating, "state": graded.Record.Card.State}).Debug("graded")
	c.save(context.WithoutCancel(ctx), c.saveSeq, op, next, graded.ID())
	return graded, nil
}

// save writes store in the background and settles op when the write returns.
// Writes run one at a time. A write whose seq is older than the last store
// persisted is skipped, so a stale store never lands after a newer one.
func (c *Controller[T]) save(ctx context.Context, seq uint64, op optimistic.Op, store domain.ReviewStore, itemID string) {
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		written, err := c.write(ctx, seq, store)
		if err == nil {
			c.store.Commit(op)
			if !written {
				c.log.WithFields(logrus.Fields{"item": itemID, "op": op}).Debug("stale save skipped")
			}
			return
		}

		c.recorder.PersistFailed(c.key)
		rolledBack := c.store.Rollback(op)
		if rolledBack {
			c.recorder.RolledBack(c.key)
		}
		c.log.WithFields(logrus.Fields{"item": itemID, "op": op, "rolled_back": rolledBack}).
			WithError(err).Warn("failed to save review store")
		c.notify(Notice{
			Key:        c.key,
			ItemID:     itemID,
			Err:        err.Error(),
			RolledBack: rolledBack,
			At:         c.now(),
		})
	}()
}

func (c *Controller[T]) write(ctx context.Context, seq uint64, store domain.ReviewStore) (bool, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if seq <= c.persisted {
		return false, nil
	}
	if err := c.persist.SaveStore(ctx, c.key, store); err != nil {
		return true, err
	}
	c.persisted = seq
	return true, nil
}

func (c *Controller[T]) notify(n Notice) {
	c.noticeMu.Lock()
	c.notices = append(c.notices, n)
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
	c.noticeMu.Unlock()

	if c.out == nil {
		return
	}
	select {
	case c.out <- n:
	default:
		c.log.Warn("notice channel full, notice kept for polling only")
	}
}

// DrainNotices returns and forgets the notices collected so far.
func (c *Controller[T]) DrainNotices() []Notice {
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// Wait blocks until every background write has completed.
func (c *Controller[T]) Wait() {
	c.saves.Wait()
}

// UpdateSettings validates and saves settings. A change reloads the items and
// rebuilds the session, discarding the queue and learning loop.
func (c *Controller[T]) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNotOpen
	}
	if settings.Equal(c.settings) {
		return nil
	}
	if err := c.persist.SaveSettings(ctx, c.key, settings); err != nil {
		return fmt.Errorf("save settings for %s: %w", c.key, err)
	}
	items, err := c.load(ctx, settings)
	if err != nil {
		return fmt.Errorf("load items for %s: %w", c.key, err)
	}
	c.settings = settings
	c.items = items
	c.rebuild()
	c.log.WithField("new_cards_per_day", settings.NewCardsPerDay).Info("settings changed, session rebuilt")
	return nil
}

// Settings returns the settings the session was built with.
func (c *Controller[T]) Settings() domain.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// PracticeAhead replaces the session with up to n cards already done today or
// not yet due.
func (c *Controller[T]) PracticeAhead(n int) (int, error) {
	return c.replaceWith(n, ModePracticeAhead, c.engine.PracticeAhead)
}

// ExtraNew replaces the session with up to n new cards beyond the daily cap.
func (c *Controller[T]) ExtraNew(n int) (int, error) {
	return c.replaceWith(n, ModeExtraNew, c.engine.ExtraNew)
}

func (c *Controller[T]) replaceWith(n int, mode Mode, pick func([]T, domain.ReviewStore, int, time.Time) []srs.Card[T]) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidArg, n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, ErrNotOpen
	}
	now := c.now()
	cards := pick(c.items, c.reconciled(now), n, now)
	c.replace(cards, mode)
	c.log.WithFields(logrus.Fields{"mode": mode, "cards": len(cards)}).Info("session replaced")
	return len(cards), nil
}

// Restart rebuilds the scheduled session from the current store.
func (c *Controller[T]) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNotOpen
	}
	c.rebuild()
	return nil
}

// ClearProgress deletes the persisted store and starts over with an empty one.
// Writes still in flight complete first.
func (c *Controller[T]) ClearProgress(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNotOpen
	}
	c.saves.Wait()
	if err := c.persist.ClearStore(ctx, c.key); err != nil {
		return fmt.Errorf("clear store for %s: %w", c.key, err)
	}
	c.store.Reset(domain.NewReviewStore(domain.DayOf(c.now(), c.loc)))
	c.rebuild()
	c.log.Info("progress cleared")
	return nil
}

// DueCount re-derives the dashboard count from the in-memory store, opening
// the controller first if needed.
func (c *Controller[T]) DueCount(ctx context.Context) (srs.Count, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		if err := c.open(ctx); err != nil {
			return srs.Count{}, err
		}
	}
	now := c.now()
	return c.engine.DueCount(c.items, c.reconciled(now), c.settings, now), nil
}

// Store returns the current in-memory store, including optimistic updates.
func (c *Controller[T]) Store() domain.ReviewStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return domain.ReviewStore{}
	}
	return c.store.Get()
}

// View is a snapshot of the controller for rendering.
type View[T any] struct {
	Key      domain.Key             `json:"key"`
	Status   Status                 `json:"status"`
	Mode     Mode                   `json:"mode"`
	Card     *srs.Card[T]           `json:"card,omitempty"`
	Preview  map[fsrs.Rating]string `json:"preview,omitempty"`
	Progress srs.Progress           `json:"progress"`
	Pending  bool                   `json:"pending"`
}

// View returns the current snapshot.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View[T]{Key: c.key, Status: c.status, Mode: c.mode}
	if c.session == nil {
		return v
	}
	v.Progress = c.session.Progress()
	v.Pending = c.store.Pending()
	if card, ok := c.session.Current(); ok {
		v.Card = &card
		v.Preview = c.engine.Preview(card, c.now())
	}
	return v
}
