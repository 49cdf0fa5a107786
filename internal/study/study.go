// Package study drives one deck/direction visit: it loads the review store,
// settings and items, builds the session and persists every grade
// optimistically.
package study

import (
	"context"
	"errors"
	"time"

	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
)

var (
	// ErrNotOpen is returned by operations that need a session before Open.
	ErrNotOpen = errors.New("study: controller not opened")
	// ErrNoCard is returned when grading a finished or empty session.
	ErrNoCard = errors.New("study: no card to grade")
	// ErrInvalidArg is returned for a non-positive card count.
	ErrInvalidArg = errors.New("study: invalid argument")
)

// Status is what the UI should render for a controller.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusEmpty    Status = "empty"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Mode names how the current session was selected.
type Mode string

const (
	ModeScheduled     Mode = "scheduled"
	ModePracticeAhead Mode = "practice_ahead"
	ModeExtraNew      Mode = "extra_new"
)

// Persistence stores review state per deck/direction. LoadStore must apply
// the daily reset on read; LoadSettings must return defaults when absent.
type Persistence interface {
	LoadStore(ctx context.Context, key domain.Key) (domain.ReviewStore, error)
	SaveStore(ctx context.Context, key domain.Key, store domain.ReviewStore) error
	ClearStore(ctx context.Context, key domain.Key) error
	LoadSettings(ctx context.Context, key domain.Key) (domain.Settings, error)
	SaveSettings(ctx context.Context, key domain.Key, settings domain.Settings) error
}

// Loader lists the items of a deck for the given settings, in content order.
type Loader[T any] func(ctx context.Context, settings domain.Settings) ([]T, error)

// Notice reports a failed background write that has been rolled back.
type Notice struct {
	Key        domain.Key `json:"key"`
	ItemID     string     `json:"item_id,omitempty"`
	Err        string     `json:"error"`
	RolledBack bool       `json:"rolled_back"`
	At         time.Time  `json:"at"`
}

// Recorder observes controller events. metrics.Collector implements it.
type Recorder interface {
	Graded(key domain.Key, rating fsrs.Rating)
	PersistFailed(key domain.Key)
	RolledBack(key domain.Key)
}

type nopRecorder struct{}

func (nopRecorder) Graded(domain.Key, fsrs.Rating) {}
func (nopRecorder) PersistFailed(domain.Key)       {}
func (nopRecorder) RolledBack(domain.Key)          {}
