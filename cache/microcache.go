package cache

import (
	"context"
	"errors"
	"sync"
)

// Hooks receive cache lookups for instrumentation. Nil fields are ignored.
type Hooks struct {
	OnHit  func(ctx context.Context, key string)
	OnMiss func(ctx context.Context, key string)

	// OnDependencyError reports a dependency that could not be watched. The
	// entry is cached anyway and lives until it expires or is removed.
	OnDependencyError func(ctx context.Context, key string, err error)
}

// MicroCache is a get-or-add cache with a single load per key.
//
// Contract:
// - Concurrency: safe for concurrent use; loads for different keys never
//   block each other and concurrent loads for one key run the loader once.
//   The internal lock only guards the reservation of a new key; hits, the
//   load itself, and dependency setup run outside it.
// - Errors: a failed load is returned to every caller waiting on it and is
//   never cached; the next call for the key loads again.
// - Context: the load runs detached from the caller's cancellation so that
//   one abandoned request does not fail co-waiters; waiters may give up early.
type MicroCache[T any] struct {
	storage Storage[*Lazy[T]]
	hooks   Hooks

	mu      sync.Mutex
	pending map[string]*Lazy[T]
}

// NewMicroCache creates a cache over storage. The optional hooks observe hits and misses.
func NewMicroCache[T any](storage Storage[*Lazy[T]], hooks ...Hooks) (*MicroCache[T], error) {
	if storage == nil {
		return nil, ErrNilStorage
	}
	c := &MicroCache[T]{storage: storage, pending: make(map[string]*Lazy[T])}
	if len(hooks) > 0 {
		c.hooks = hooks[0]
	}
	return c, nil
}

// GetOrAdd returns the cached value for key, or runs load to produce it.
// details is evaluated only when a new entry is inserted.
func (c *MicroCache[T]) GetOrAdd(ctx context.Context, key string, load LoadFunc[T], details func() Details) (T, error) {
	var zero T
	if err := ValidateKey(key); err != nil {
		return zero, err
	}
	if load == nil {
		return zero, ErrNilLoader
	}

	cell, ok := c.storage.TryGet(key)
	if ok {
		c.hit(ctx, key)
	} else {
		var reserved bool
		cell, reserved = c.reserve(key, load)
		if reserved {
			c.miss(ctx, key)
			if err := c.store(ctx, key, cell, details); err != nil {
				return zero, err
			}
		} else {
			c.hit(ctx, key)
		}
	}

	v, err := cell.Value(ctx)
	if err != nil {
		if cell.State() == StateFailed {
			c.evictFailed(key, cell)
		}
		return zero, err
	}
	return v, nil
}

// reserve returns the cell already stored or pending for key, or registers
// a new pending cell. reserved is true when the caller owns the new cell.
func (c *MicroCache[T]) reserve(key string, load LoadFunc[T]) (cell *Lazy[T], reserved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cell, ok := c.pending[key]; ok {
		return cell, false
	}
	// A concurrent store completes before its pending mark is cleared, so a
	// second probe under the lock cannot miss it.
	if cell, ok := c.storage.TryGet(key); ok {
		return cell, false
	}
	cell = NewLazy(load)
	c.pending[key] = cell
	return cell, true
}

// store adds a reserved cell to the storage. Dependency watches are set up
// here, outside the lock, so a slow watch only delays callers of this key.
func (c *MicroCache[T]) store(ctx context.Context, key string, cell *Lazy[T], details func() Details) error {
	var d Details
	if details != nil {
		d = details()
	}
	err := c.storage.Add(ctx, key, cell, d)

	c.mu.Lock()
	removed := c.pending[key] != cell
	if !removed {
		delete(c.pending, key)
	}
	c.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, ErrDependencyInit):
		if c.hooks.OnDependencyError != nil {
			c.hooks.OnDependencyError(ctx, key, err)
		}
	default:
		return err
	}
	// Remove ran while the entry was being stored.
	if removed {
		c.removeIfSame(key, cell)
	}
	return nil
}

// Remove evicts key unconditionally. A pending entry for key is dropped as
// soon as it is stored; callers already waiting on it still receive its value.
func (c *MicroCache[T]) Remove(key string) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
	c.storage.Remove(key)
}

// Contains reports whether key has an entry (loaded or loading).
func (c *MicroCache[T]) Contains(key string) bool {
	c.mu.Lock()
	_, ok := c.pending[key]
	c.mu.Unlock()
	return ok || c.storage.Contains(key)
}

// OnRemoved registers fn for removals of successfully loaded entries.
func (c *MicroCache[T]) OnRemoved(fn RemovedFunc[T]) {
	c.storage.OnRemoved(func(key string, cell *Lazy[T], reason RemovalReason) {
		if cell == nil {
			return
		}
		if v, ok := cell.Peek(); ok {
			fn(key, v, reason)
		}
	})
}

// evictFailed removes key only if it still holds the failed cell.
func (c *MicroCache[T]) evictFailed(key string, cell *Lazy[T]) {
	c.mu.Lock()
	if c.pending[key] == cell {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	c.removeIfSame(key, cell)
}

// conditionalRemover is implemented by storages that can remove an entry
// only while it still holds a given value.
type conditionalRemover[T any] interface {
	RemoveFunc(key string, match func(T) bool) bool
}

func (c *MicroCache[T]) removeIfSame(key string, cell *Lazy[T]) {
	if cr, ok := c.storage.(conditionalRemover[*Lazy[T]]); ok {
		cr.RemoveFunc(key, func(cur *Lazy[T]) bool { return cur == cell })
		return
	}
	if cur, ok := c.storage.TryGet(key); ok && cur == cell {
		c.storage.Remove(key)
	}
}

func (c *MicroCache[T]) hit(ctx context.Context, key string) {
	if c.hooks.OnHit != nil {
		c.hooks.OnHit(ctx, key)
	}
}

func (c *MicroCache[T]) miss(ctx context.Context, key string) {
	if c.hooks.OnMiss != nil {
		c.hooks.OnMiss(ctx, key)
	}
}
