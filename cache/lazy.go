package cache

import (
	"context"
	"fmt"
	"sync"
)

// State is the lifecycle state of a Lazy cell.
type State int

const (
	// StateEmpty means the load function has not started.
	StateEmpty State = iota
	// StateComputing means a caller is running the load function.
	StateComputing
	// StateDone means the value is available.
	StateDone
	// StateFailed means the load function returned an error or panicked.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateComputing:
		return "computing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadFunc produces the value for a cache entry.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Lazy is a single-assignment cell. The first caller of Value runs the load
// function; concurrent callers wait for it and observe the same outcome.
// A Failed cell never retries; callers discard it and create a new one.
type Lazy[T any] struct {
	mu    sync.Mutex
	state State
	load  LoadFunc[T]
	done  chan struct{}
	value T
	err   error
}

// NewLazy creates an empty cell around load.
func NewLazy[T any](load LoadFunc[T]) *Lazy[T] {
	return &Lazy[T]{
		load: load,
		done: make(chan struct{}),
	}
}

// State returns the current state of the cell.
func (l *Lazy[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Peek returns the value if the cell is Done.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateDone {
		var zero T
		return zero, false
	}
	return l.value, true
}

// Value returns the cell's value, running the load function on first use.
// The load does not observe ctx cancellation. Waiting callers return
// ctx.Err() if ctx ends first; the load keeps running.
func (l *Lazy[T]) Value(ctx context.Context) (T, error) {
	l.mu.Lock()
	switch l.state {
	case StateDone, StateFailed:
		v, err := l.value, l.err
		l.mu.Unlock()
		return v, err
	case StateEmpty:
		l.state = StateComputing
		l.mu.Unlock()
		return l.compute(ctx)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.err
}

func (l *Lazy[T]) compute(ctx context.Context) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", ErrLoadPanicked, r)
		}

		l.mu.Lock()
		l.value, l.err = v, err
		if err != nil {
			l.state = StateFailed
		} else {
			l.state = StateDone
		}
		l.load = nil
		l.mu.Unlock()
		close(l.done)
	}()

	if l.load == nil {
		return v, ErrNilLoader
	}
	return l.load(context.WithoutCancel(ctx))
}
