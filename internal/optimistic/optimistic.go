// Package optimistic holds a value that is updated before the write backing it
// completes, and rolled back if that write fails.
//
// The holder is either Idle or Pending(op, rollback). Each Apply captures its
// own rollback value and supersedes any earlier pending operation. Completion
// is a compare-and-swap on the operation id: only the most recent operation
// may commit or roll back, and a superseded one is a no-op.
package optimistic

import (
	"sync"

	"github.com/google/uuid"
)

// Op identifies one optimistic update.
type Op uuid.UUID

func (o Op) String() string {
	return uuid.UUID(o).String()
}

type pending[T any] struct {
	op       Op
	rollback T
}

// Value is a mutex-guarded optimistic holder. The zero value is not usable;
// create one with New.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	pending *pending[T]
}

// New returns an idle holder with initial as its value.
func New[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current, possibly optimistic, value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Pending reports whether an operation is in flight.
func (v *Value[T]) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending != nil
}

// Apply replaces the value optimistically and returns the id the write must
// complete with. The value before this call becomes the rollback value.
func (v *Value[T]) Apply(next T) Op {
	return v.Update(func(T) T { return next })
}

// Update is Apply with the next value computed from the current one under the
// holder's lock.
func (v *Value[T]) Update(fn func(T) T) Op {
	v.mu.Lock()
	defer v.mu.Unlock()
	op := Op(uuid.New())
	v.pending = &pending[T]{op: op, rollback: v.current}
	v.current = fn(v.current)
	return op
}

// Commit marks op as durable. It reports false when op was superseded.
func (v *Value[T]) Commit(op Op) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending == nil || v.pending.op != op {
		return false
	}
	v.pending = nil
	return true
}

// Rollback restores the value captured when op was applied. It reports false
// and changes nothing when op was superseded.
func (v *Value[T]) Rollback(op Op) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending == nil || v.pending.op != op {
		return false
	}
	v.current = v.pending.rollback
	v.pending = nil
	return true
}

// Reset replaces the value outright and forgets any pending operation.
func (v *Value[T]) Reset(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = value
	v.pending = nil
}

// Amend applies fn to the current value and, when an operation is pending, to
// its rollback value too. The pending operation is kept.
func (v *Value[T]) Amend(fn func(T) T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = fn(v.current)
	if v.pending != nil {
		v.pending.rollback = fn(v.pending.rollback)
	}
}
