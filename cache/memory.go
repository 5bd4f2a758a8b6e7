package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryStorage is an in-process Storage with absolute and sliding expiration.
// Expired entries are removed lazily on access and by Sweep.
type MemoryStorage[T any] struct {
	entries *xsync.MapOf[string, *memoryEntry[T]]
	now     func() time.Time

	mu        sync.RWMutex
	listeners []RemovedFunc[T]
}

type memoryEntry[T any] struct {
	value      T
	expiresAt  time.Time
	sliding    time.Duration
	lastAccess atomic.Int64
	handles    []io.Closer

	// invalidated is set by a dependency firing, possibly before the entry is stored.
	invalidated atomic.Bool
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage[T any]() *MemoryStorage[T] {
	return &MemoryStorage[T]{
		entries: xsync.NewMapOf[string, *memoryEntry[T]](),
		now:     time.Now,
	}
}

// Contains reports whether a live entry exists for key.
func (s *MemoryStorage[T]) Contains(key string) bool {
	_, ok := s.TryGet(key)
	return ok
}

// Get returns the value for key or the zero value.
func (s *MemoryStorage[T]) Get(key string) T {
	v, _ := s.TryGet(key)
	return v
}

// TryGet returns the value for key. Reading refreshes sliding expiration.
func (s *MemoryStorage[T]) TryGet(key string) (T, bool) {
	var zero T
	entry, ok := s.entries.Load(key)
	if !ok {
		return zero, false
	}

	now := s.now()
	if entry.expired(now) {
		// Expired - clean up lazily
		s.removeEntry(key, entry, ReasonExpired)
		return zero, false
	}

	entry.lastAccess.Store(now.UnixNano())
	return entry.value, true
}

// Add stores value under key. Dependencies are watched before the entry
// becomes visible. A dependency that cannot be watched does not prevent the
// store: the entry is kept with the remaining watches and the failures are
// returned wrapped in ErrDependencyInit. An invalidation that fires before
// the entry is visible removes it right after the store.
func (s *MemoryStorage[T]) Add(ctx context.Context, key string, value T, details Details) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	now := s.now()
	entry := &memoryEntry[T]{
		value:   value,
		sliding: details.SlidingExpiration,
	}
	if details.AbsoluteExpiration > 0 {
		entry.expiresAt = now.Add(details.AbsoluteExpiration)
	}
	entry.lastAccess.Store(now.UnixNano())

	var errs []error
	for _, dep := range details.Dependencies {
		if dep == nil {
			continue
		}
		h, err := dep.Watch(ctx, func() {
			entry.invalidated.Store(true)
			s.removeEntry(key, entry, ReasonDependencyChanged)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entry.handles = append(entry.handles, h)
	}

	old, replaced := s.entries.LoadAndStore(key, entry)
	if replaced && old != entry {
		s.finish(key, old, ReasonReplaced)
	}
	if entry.invalidated.Load() {
		s.removeEntry(key, entry, ReasonDependencyChanged)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrDependencyInit, errors.Join(errs...))
	}
	return nil
}

// Remove evicts key. Idempotent - no error on miss.
func (s *MemoryStorage[T]) Remove(key string) {
	if entry, ok := s.entries.LoadAndDelete(key); ok {
		s.finish(key, entry, ReasonRemoved)
	}
}

// RemoveFunc evicts key if match accepts its current value and reports
// whether it did.
func (s *MemoryStorage[T]) RemoveFunc(key string, match func(T) bool) bool {
	entry, ok := s.entries.Load(key)
	if !ok || !match(entry.value) {
		return false
	}
	return s.removeEntry(key, entry, ReasonRemoved)
}

// OnRemoved registers a listener invoked after each removal.
func (s *MemoryStorage[T]) OnRemoved(fn RemovedFunc[T]) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-swept expired ones.
func (s *MemoryStorage[T]) Len() int {
	return s.entries.Size()
}

// Sweep removes all expired entries and returns how many were removed.
func (s *MemoryStorage[T]) Sweep() int {
	now := s.now()
	var expired []string
	s.entries.Range(func(key string, entry *memoryEntry[T]) bool {
		if entry.expired(now) {
			expired = append(expired, key)
		}
		return true
	})

	n := 0
	for _, key := range expired {
		if entry, ok := s.entries.Load(key); ok && entry.expired(now) {
			if s.removeEntry(key, entry, ReasonExpired) {
				n++
			}
		}
	}
	return n
}

// removeEntry deletes key only while it still maps to entry.
func (s *MemoryStorage[T]) removeEntry(key string, entry *memoryEntry[T], reason RemovalReason) bool {
	removed := false
	s.entries.Compute(key, func(cur *memoryEntry[T], loaded bool) (*memoryEntry[T], bool) {
		if loaded && cur == entry {
			removed = true
			return nil, true
		}
		return cur, !loaded
	})
	if removed {
		s.finish(key, entry, reason)
	}
	return removed
}

func (s *MemoryStorage[T]) finish(key string, entry *memoryEntry[T], reason RemovalReason) {
	closeAll(entry.handles)

	s.mu.RLock()
	listeners := make([]RemovedFunc[T], len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(key, entry.value, reason)
	}
}

func (e *memoryEntry[T]) expired(now time.Time) bool {
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		return true
	}
	if e.sliding > 0 {
		last := time.Unix(0, e.lastAccess.Load())
		if !now.Before(last.Add(e.sliding)) {
			return true
		}
	}
	return false
}

func closeAll(handles []io.Closer) {
	for _, h := range handles {
		if h != nil {
			_ = h.Close()
		}
	}
}

// Ensure MemoryStorage implements Storage
var _ Storage[int] = (*MemoryStorage[int])(nil)
