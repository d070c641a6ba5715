// Package ordering maintains a user-visible order over owner-scoped records that
// carry a persisted integer sort key.
//
// Every mutation is executed as a command: the collection computes the attempted
// state from the prior state, applies it locally, then persists. When persistence
// fails the prior state is restored and the error is returned, so the local view
// and the store never disagree from the caller's perspective.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Step is the distance between consecutive sort keys after a renumber.
const Step = 10

// ErrItemNotFound is returned when an operation references an id that is not part of the collection.
var ErrItemNotFound = errors.New("ordered item not found")

// Item is implemented by records that can live in a Collection.
// WithSortIndex must return a copy; implementations are expected to be value types.
type Item[T any] interface {
	ItemID() uuid.UUID
	SortIndex() int
	WithSortIndex(index int) T
}

// Store persists the effects of collection commands. Move issues one
// UpdateSortIndex call per renumbered row and never upserts.
type Store[T any] interface {
	Insert(ctx context.Context, item T) (T, error)
	UpdateSortIndex(ctx context.Context, id uuid.UUID, index int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Direction is a single-step move.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// ParseDirection maps "up"/"down" (and -1/+1 literals) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "-1":
		return Up, nil
	case "down", "+1", "1":
		return Down, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: must be up or down", s)
	}
}

// Op names the command that produced a Result.
type Op string

const (
	OpAppend Op = "append"
	OpMove   Op = "move"
	OpRemove Op = "remove"
)

// Result captures the state before and after a command. Changed is false for
// no-op commands (e.g. moving the first item up), in which case nothing was persisted.
type Result[T any] struct {
	Op        Op
	Prior     []T
	Attempted []T
	Changed   bool
}

// Collection is the in-memory ordered view of one owner's records.
type Collection[T Item[T]] struct {
	mu      sync.Mutex
	ownerID uuid.UUID
	store   Store[T]
	items   []T
}

// NewCollection builds a Collection from rows loaded for ownerID. Rows are
// sorted by sort key; ties keep their load order.
func NewCollection[T Item[T]](ownerID uuid.UUID, store Store[T], items []T) *Collection[T] {
	if store == nil {
		panic("ordering store is required")
	}
	sorted := clone(items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SortIndex() < sorted[j].SortIndex() })
	return &Collection[T]{ownerID: ownerID, store: store, items: sorted}
}

// OwnerID returns the owner every item of this collection belongs to.
func (c *Collection[T]) OwnerID() uuid.UUID {
	return c.ownerID
}

// Items returns a copy of the current display order.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.items)
}

// Len reports the number of items.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Find returns the item with the given id.
func (c *Collection[T]) Find(id uuid.UUID) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.items, id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Replace swaps in an updated copy of an existing item without touching the order.
func (c *Collection[T]) Replace(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.items, item.ItemID())
	if i < 0 {
		return false
	}
	c.items[i] = item
	return true
}

// Reset replaces the whole local state, typically after a reload from the store.
func (c *Collection[T]) Reset(items []T) {
	sorted := clone(items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SortIndex() < sorted[j].SortIndex() })

	c.mu.Lock()
	c.items = sorted
	c.mu.Unlock()
}

// Append assigns the next sort key (max+Step, or Step when empty) and inserts the item.
// The returned item is the one the store handed back.
func (c *Collection[T]) Append(ctx context.Context, item T) (T, Result[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prior := clone(c.items)
	placed := item.WithSortIndex(NextIndex(prior))
	attempted := append(clone(prior), placed)

	res := Result[T]{Op: OpAppend, Prior: prior, Attempted: attempted, Changed: true}
	c.items = attempted

	stored, err := c.store.Insert(ctx, placed)
	if err != nil {
		c.rollback(res)
		var zero T
		return zero, res, fmt.Errorf("append item: %w", err)
	}

	c.items[len(c.items)-1] = stored
	res.Attempted = clone(c.items)
	return stored, res, nil
}

// Move shifts the item one position in dir and renumbers the entire visible
// sequence to Step, 2*Step, ... Every row is rewritten, even ones whose key did
// not change, so inconsistent prior data converges to a clean sequence.
// Moving past either end is a no-op.
func (c *Collection[T]) Move(ctx context.Context, id uuid.UUID, dir Direction) (Result[T], error) {
	if dir != Up && dir != Down {
		return Result[T]{Op: OpMove}, fmt.Errorf("invalid direction %d", dir)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prior := clone(c.items)
	from := indexOf(prior, id)
	if from < 0 {
		return Result[T]{Op: OpMove, Prior: prior, Attempted: prior}, ErrItemNotFound
	}

	to := from + int(dir)
	if to < 0 || to >= len(prior) {
		return Result[T]{Op: OpMove, Prior: prior, Attempted: prior}, nil
	}

	next := clone(prior)
	picked := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]T{picked}, next[to:]...)...)
	attempted := Renumber(next)

	res := Result[T]{Op: OpMove, Prior: prior, Attempted: attempted, Changed: true}
	c.items = attempted

	for i, it := range attempted {
		if err := c.store.UpdateSortIndex(ctx, it.ItemID(), it.SortIndex()); err != nil {
			c.rollback(res)
			err = fmt.Errorf("persist order of %s: %w", it.ItemID(), err)
			if restoreErr := c.restoreWritten(ctx, prior, attempted[:i]); restoreErr != nil {
				err = errors.Join(err, restoreErr)
			}
			return res, err
		}
	}

	return res, nil
}

// restoreWritten puts the prior keys back on rows a failed move already
// rewrote. It is best effort: rows it cannot restore stay as written.
func (c *Collection[T]) restoreWritten(ctx context.Context, prior, written []T) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, it := range written {
		i := indexOf(prior, it.ItemID())
		if i < 0 || prior[i].SortIndex() == it.SortIndex() {
			continue
		}
		if err := c.store.UpdateSortIndex(ctx, it.ItemID(), prior[i].SortIndex()); err != nil {
			errs = append(errs, fmt.Errorf("restore order of %s: %w", it.ItemID(), err))
		}
	}
	return errors.Join(errs...)
}

// Remove deletes the item. Remaining items keep their keys; gaps are fine.
func (c *Collection[T]) Remove(ctx context.Context, id uuid.UUID) (Result[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prior := clone(c.items)
	i := indexOf(prior, id)
	if i < 0 {
		return Result[T]{Op: OpRemove, Prior: prior, Attempted: prior}, ErrItemNotFound
	}

	attempted := append(clone(prior[:i]), prior[i+1:]...)
	res := Result[T]{Op: OpRemove, Prior: prior, Attempted: attempted, Changed: true}
	c.items = attempted

	if err := c.store.Delete(ctx, id); err != nil {
		c.rollback(res)
		return res, fmt.Errorf("remove item: %w", err)
	}

	return res, nil
}

// rollback restores the state captured before a command. Callers hold c.mu.
func (c *Collection[T]) rollback(res Result[T]) {
	c.items = clone(res.Prior)
}

// NextIndex returns the sort key an appended item receives.
func NextIndex[T Item[T]](items []T) int {
	if len(items) == 0 {
		return Step
	}
	highest := items[0].SortIndex()
	for _, it := range items[1:] {
		if it.SortIndex() > highest {
			highest = it.SortIndex()
		}
	}
	return highest + Step
}

// Renumber returns copies of items keyed Step, 2*Step, ... in slice order.
func Renumber[T Item[T]](items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.WithSortIndex((i + 1) * Step)
	}
	return out
}

func indexOf[T Item[T]](items []T, id uuid.UUID) int {
	for i, it := range items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

func clone[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
