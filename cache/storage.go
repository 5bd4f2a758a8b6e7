package cache

import (
	"context"
	"io"
	"strings"
	"time"
)

// RemovalReason explains why an entry left the storage.
type RemovalReason int

const (
	// ReasonRemoved indicates an explicit Remove call.
	ReasonRemoved RemovalReason = iota
	// ReasonReplaced indicates the entry was overwritten by Add.
	ReasonReplaced
	// ReasonExpired indicates absolute or sliding expiration.
	ReasonExpired
	// ReasonDependencyChanged indicates a Dependency fired.
	ReasonDependencyChanged
)

// String returns the string representation of the reason.
func (r RemovalReason) String() string {
	switch r {
	case ReasonRemoved:
		return "removed"
	case ReasonReplaced:
		return "replaced"
	case ReasonExpired:
		return "expired"
	case ReasonDependencyChanged:
		return "dependency_changed"
	default:
		return "unknown"
	}
}

// RemovedFunc is notified after an entry has been removed.
type RemovedFunc[T any] func(key string, value T, reason RemovalReason)

// Details controls how long an entry lives and what evicts it.
type Details struct {
	// AbsoluteExpiration evicts the entry this long after it was added.
	// Zero means no absolute expiration.
	AbsoluteExpiration time.Duration

	// SlidingExpiration evicts the entry when it has not been read for this long.
	// Zero means no sliding expiration.
	SlidingExpiration time.Duration

	// Dependencies evict the entry when any of them changes.
	Dependencies []Dependency
}

// Dependency signals that a cached entry has become stale.
//
// Contract:
// - Concurrency: Watch may be called concurrently for different entries.
// - Context: ctx bounds setup only; the watch lives until the handle is closed.
// - Errors: Watch returns an error when the watch cannot be established.
// - Ownership: the returned handle is closed by the storage when the entry leaves.
type Dependency interface {
	// Watch starts observing and calls invalidate when the dependency changes.
	Watch(ctx context.Context, invalidate func()) (io.Closer, error)
}

// Storage is the backend behind MicroCache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: lookups never error; a miss returns ok=false. Add stores the
//   entry even when a dependency cannot be watched and reports that failure
//   wrapped in ErrDependencyInit.
// - Notifications: every removal, including expiry, is reported to OnRemoved listeners.
type Storage[T any] interface {
	// Contains reports whether a live entry exists for key.
	Contains(key string) bool

	// Get returns the value for key or the zero value.
	Get(key string) T

	// TryGet returns the value for key and whether it was found.
	TryGet(key string) (T, bool)

	// Add stores value under key, replacing any existing entry. It may block
	// while dependency watches are set up.
	Add(ctx context.Context, key string, value T, details Details) error

	// Remove evicts key. Idempotent.
	Remove(key string)

	// OnRemoved registers a listener for removals.
	OnRemoved(fn RemovedFunc[T])
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
