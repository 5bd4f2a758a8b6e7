package cache

import (
	"context"
	"io"
	"sync"
)

// TriggerDependency is a Dependency fired by calling Trigger.
// One trigger invalidates every entry currently watching it.
type TriggerDependency struct {
	mu       sync.Mutex
	nextID   int
	watchers map[int]func()
}

// NewTriggerDependency creates a manual dependency.
func NewTriggerDependency() *TriggerDependency {
	return &TriggerDependency{watchers: make(map[int]func())}
}

// Watch implements Dependency.
func (d *TriggerDependency) Watch(_ context.Context, invalidate func()) (io.Closer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.watchers[id] = invalidate

	return closerFunc(func() error {
		d.mu.Lock()
		delete(d.watchers, id)
		d.mu.Unlock()
		return nil
	}), nil
}

// Trigger invalidates all watching entries.
func (d *TriggerDependency) Trigger() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.watchers))
	for _, fn := range d.watchers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Watchers returns the number of active watches.
func (d *TriggerDependency) Watchers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.watchers)
}

// Ensure TriggerDependency implements Dependency
var _ Dependency = (*TriggerDependency)(nil)
