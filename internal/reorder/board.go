// Package reorder implements drag-and-drop re-sequencing of ordered lists
// whose authoritative order lives on the backend.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotDragging is returned by DragEnd when no drag is in progress.
	ErrNotDragging = errors.New("reorder: no drag in progress")

	// ErrUnknownItem is returned when an id is not on the board.
	ErrUnknownItem = errors.New("reorder: unknown item")
)

// Move tells the backend to place UID directly after AfterUID. An empty
// AfterUID means the first position.
type Move struct {
	UID      string `json:"uid"`
	AfterUID string `json:"after_uid"`
}

// FailurePolicy decides what happens to the optimistic local state when the
// backend rejects a change.
type FailurePolicy int

const (
	// KeepLocal keeps the optimistic state and reports the failure.
	KeepLocal FailurePolicy = iota
	// Rollback restores the state from before the change.
	Rollback
)

func (p FailurePolicy) String() string {
	switch p {
	case KeepLocal:
		return "keep_local"
	case Rollback:
		return "rollback"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// State is the drag state machine: Idle -> Dragging -> Idle.
type State int

const (
	Idle State = iota
	Dragging
)

// CommitMove sends a move to the backend.
type CommitMove func(ctx context.Context, m Move) error

// CommitRemove deletes an item on the backend.
type CommitRemove func(ctx context.Context, id string) error

// Outcome describes what a drop or removal did.
type Outcome struct {
	// Changed reports whether the local order changed at all.
	Changed bool
	Move    Move
	// Err is the backend error, if the commit failed.
	Err error
	// RolledBack reports that local state was restored after Err.
	RolledBack bool
}

// Board is an ordered list of items keyed by id. Commits run with the board
// locked, so operations on one board are serialized.
type Board[T any] struct {
	mu       sync.Mutex
	items    []T
	key      func(T) string
	policy   FailurePolicy
	state    State
	dragging string
}

// NewBoard copies items into a board in Idle state.
func NewBoard[T any](items []T, key func(T) string, policy FailurePolicy) *Board[T] {
	return &Board[T]{
		items:  append([]T(nil), items...),
		key:    key,
		policy: policy,
	}
}

// Items returns a copy of the current order.
func (b *Board[T]) Items() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]T(nil), b.items...)
}

// DragStart records the dragged item. Starting a new drag replaces any
// drag in progress.
func (b *Board[T]) DragStart(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	b.state = Dragging
	b.dragging = id
	return nil
}

// DragEnd drops the dragged item onto overID. Dropping onto itself or onto an
// unknown id is a no-op and commit is not called. Otherwise the item is moved
// to overID's index, commit receives only the move, and a commit failure is
// handled per the board's FailurePolicy. The board is Idle afterwards.
func (b *Board[T]) DragEnd(ctx context.Context, overID string, commit CommitMove) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Dragging {
		return Outcome{}, ErrNotDragging
	}
	activeID := b.dragging
	b.state = Idle
	b.dragging = ""

	next, move, ok := Plan(b.items, b.key, activeID, overID)
	if !ok {
		return Outcome{}, nil
	}
	prev := b.items
	b.items = next

	out := Outcome{Changed: true, Move: move}
	if err := commit(ctx, move); err != nil {
		out.Err = err
		if b.policy == Rollback {
			b.items = prev
			out.RolledBack = true
		}
	}
	return out, nil
}

// Remove deletes id locally before calling commit. On failure the item stays
// removed under KeepLocal and is restored at its old position under Rollback.
func (b *Board[T]) Remove(ctx context.Context, id string, commit CommitRemove) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if b.dragging == id {
		b.state = Idle
		b.dragging = ""
	}
	prev := b.items
	next := make([]T, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	b.items = next

	out := Outcome{Changed: true}
	if err := commit(ctx, id); err != nil {
		out.Err = err
		if b.policy == Rollback {
			b.items = prev
			out.RolledBack = true
		}
	}
	return out, nil
}

func (b *Board[T]) indexOf(id string) int {
	for i, it := range b.items {
		if b.key(it) == id {
			return i
		}
	}
	return -1
}

func (b *Board[T]) ids() []string {
	out := make([]string, len(b.items))
	for i, it := range b.items {
		out[i] = b.key(it)
	}
	return out
}

// Plan computes the order after dropping activeID onto overID: the active
// item is removed and reinserted at overID's index. The anchor is the item
// now directly before it, or "" at the first position. ok is false for a
// same-position drop or an unknown id. items is not modified.
func Plan[T any](items []T, key func(T) string, activeID, overID string) (next []T, move Move, ok bool) {
	if activeID == "" || activeID == overID {
		return nil, Move{}, false
	}
	from, to := -1, -1
	for i, it := range items {
		switch key(it) {
		case activeID:
			from = i
		case overID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return nil, Move{}, false
	}

	next = make([]T, 0, len(items))
	next = append(next, items[:from]...)
	next = append(next, items[from+1:]...)
	next = append(next[:to], append([]T{items[from]}, next[to:]...)...)

	move = Move{UID: activeID}
	if to > 0 {
		move.AfterUID = key(next[to-1])
	}
	return next, move, true
}
