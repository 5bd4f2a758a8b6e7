package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type dependencyFunc func(ctx context.Context, invalidate func()) error

func (f dependencyFunc) Watch(ctx context.Context, invalidate func()) (io.Closer, error) {
	if err := f(ctx, invalidate); err != nil {
		return nil, err
	}
	return closerFunc(func() error { return nil }), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedStorage() (*MemoryStorage[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStorage[string]()
	s.now = clock.Now
	return s, clock
}

func TestMemoryStorage_AddGetRemove(t *testing.T) {
	s := NewMemoryStorage[string]()
	ctx := context.Background()

	if _, ok := s.TryGet("missing"); ok {
		t.Error("TryGet on empty storage should miss")
	}
	if err := s.Add(ctx, "k", "v", Details{}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got := s.Get("k"); got != "v" {
		t.Errorf("Get() = %q, want v", got)
	}
	if !s.Contains("k") {
		t.Error("Contains() = false")
	}

	s.Remove("k")
	if s.Contains("k") {
		t.Error("Contains() = true after Remove")
	}
	// Remove is idempotent
	s.Remove("k")
}

func TestMemoryStorage_AbsoluteExpiration(t *testing.T) {
	s, clock := newClockedStorage()
	ctx := context.Background()

	var reasons []RemovalReason
	s.OnRemoved(func(_ string, _ string, r RemovalReason) { reasons = append(reasons, r) })

	_ = s.Add(ctx, "k", "v", Details{AbsoluteExpiration: time.Minute})
	clock.Advance(59 * time.Second)
	if !s.Contains("k") {
		t.Fatal("entry expired early")
	}
	clock.Advance(time.Second)
	if s.Contains("k") {
		t.Fatal("entry should have expired")
	}
	if len(reasons) != 1 || reasons[0] != ReasonExpired {
		t.Errorf("reasons = %v, want [expired]", reasons)
	}
}

func TestMemoryStorage_SlidingExpiration(t *testing.T) {
	s, clock := newClockedStorage()
	ctx := context.Background()

	_ = s.Add(ctx, "k", "v", Details{SlidingExpiration: 10 * time.Second})
	for i := 0; i < 5; i++ {
		clock.Advance(9 * time.Second)
		if !s.Contains("k") {
			t.Fatalf("entry expired although read every 9s (iteration %d)", i)
		}
	}
	clock.Advance(10 * time.Second)
	if s.Contains("k") {
		t.Fatal("entry should expire after 10s idle")
	}
}

func TestMemoryStorage_Sweep(t *testing.T) {
	s, clock := newClockedStorage()
	ctx := context.Background()

	_ = s.Add(ctx, "a", "1", Details{AbsoluteExpiration: time.Second})
	_ = s.Add(ctx, "b", "2", Details{AbsoluteExpiration: time.Hour})
	_ = s.Add(ctx, "c", "3", Details{})
	clock.Advance(2 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestMemoryStorage_ReplaceClosesOldDependencies(t *testing.T) {
	s := NewMemoryStorage[string]()
	ctx := context.Background()
	trigger := NewTriggerDependency()

	var reasons []RemovalReason
	s.OnRemoved(func(_ string, _ string, r RemovalReason) { reasons = append(reasons, r) })

	_ = s.Add(ctx, "k", "old", Details{Dependencies: []Dependency{trigger}})
	if trigger.Watchers() != 1 {
		t.Fatalf("Watchers() = %d, want 1", trigger.Watchers())
	}
	_ = s.Add(ctx, "k", "new", Details{})
	if trigger.Watchers() != 0 {
		t.Errorf("Watchers() = %d after replace, want 0", trigger.Watchers())
	}

	// A stale trigger must not evict the replacement.
	trigger.Trigger()
	if got := s.Get("k"); got != "new" {
		t.Errorf("Get() = %q, want new", got)
	}
	if len(reasons) != 1 || reasons[0] != ReasonReplaced {
		t.Errorf("reasons = %v, want [replaced]", reasons)
	}
}

func TestMemoryStorage_InvalidKey(t *testing.T) {
	s := NewMemoryStorage[string]()
	if err := s.Add(context.Background(), "bad\nkey", "v", Details{}); err != ErrInvalidKey {
		t.Errorf("Add() error = %v, want ErrInvalidKey", err)
	}
}

func TestMemoryStorage_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStorage[string]()
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				switch j % 3 {
				case 0:
					_ = s.Add(ctx, "concurrent-key", "v", Details{AbsoluteExpiration: time.Minute})
				case 1:
					_, _ = s.TryGet("concurrent-key")
				case 2:
					s.Remove("concurrent-key")
				}
			}
		}()
	}
	wg.Wait()
}

func TestRemovalReason_String(t *testing.T) {
	tests := map[RemovalReason]string{
		ReasonRemoved:           "removed",
		ReasonReplaced:          "replaced",
		ReasonExpired:           "expired",
		ReasonDependencyChanged: "dependency_changed",
		RemovalReason(99):       "unknown",
	}
	for r, want := range tests {
		if got := r.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", r, got, want)
		}
	}
}

func TestMemoryStorage_InvalidatedBeforeStore(t *testing.T) {
	s := NewMemoryStorage[string]()
	var reasons []RemovalReason
	s.OnRemoved(func(_ string, _ string, r RemovalReason) { reasons = append(reasons, r) })

	early := dependencyFunc(func(_ context.Context, invalidate func()) error {
		invalidate()
		return nil
	})
	tracked := NewTriggerDependency()

	if err := s.Add(context.Background(), "k", "stale", Details{Dependencies: []Dependency{early, tracked}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if s.Contains("k") {
		t.Error("entry invalidated during Add should not stay stored")
	}
	if len(reasons) != 1 || reasons[0] != ReasonDependencyChanged {
		t.Errorf("reasons = %v, want [dependency_changed]", reasons)
	}
	if tracked.Watchers() != 0 {
		t.Errorf("Watchers() = %d, want 0 after eviction", tracked.Watchers())
	}
}

func TestMemoryStorage_WatchFailureKeepsEntry(t *testing.T) {
	s := NewMemoryStorage[string]()
	trigger := NewTriggerDependency()
	bad := dependencyFunc(func(context.Context, func()) error { return errors.New("redis down") })

	err := s.Add(context.Background(), "k", "v", Details{Dependencies: []Dependency{bad, trigger}})
	if !errors.Is(err, ErrDependencyInit) {
		t.Fatalf("Add() error = %v, want ErrDependencyInit", err)
	}
	if got := s.Get("k"); got != "v" {
		t.Fatalf("Get() = %q, want v", got)
	}

	// Watches that did succeed still evict.
	trigger.Trigger()
	if s.Contains("k") {
		t.Error("remaining dependency should still evict the entry")
	}
}

func TestMemoryStorage_RemoveFunc(t *testing.T) {
	s := NewMemoryStorage[string]()
	_ = s.Add(context.Background(), "k", "v", Details{})

	tests := []struct {
		name  string
		match string
		want  bool
	}{
		{name: "different value", match: "other", want: false},
		{name: "same value", match: "v", want: true},
		{name: "already removed", match: "v", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.RemoveFunc("k", func(v string) bool { return v == tt.match })
			if got != tt.want {
				t.Errorf("RemoveFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}
