package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMicroCache[T any](t *testing.T, hooks ...Hooks) (*MicroCache[T], *MemoryStorage[*Lazy[T]]) {
	t.Helper()
	storage := NewMemoryStorage[*Lazy[T]]()
	c, err := NewMicroCache[T](storage, hooks...)
	if err != nil {
		t.Fatalf("NewMicroCache failed: %v", err)
	}
	return c, storage
}

func TestMicroCache_SingleFlight(t *testing.T) {
	c, _ := newTestMicroCache[*int](t)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (*int, error) {
		calls.Add(1)
		<-release
		v := 42
		return &v, nil
	}

	const n = 64
	results := make([]*int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrAdd(ctx, "sitemap://example.com/", load, nil)
			if err != nil {
				t.Errorf("GetOrAdd failed: %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("load called %d times, want 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("result %d is a different reference", i)
		}
	}
}

func TestMicroCache_DifferentKeysDoNotBlock(t *testing.T) {
	c, _ := newTestMicroCache[string](t)
	ctx := context.Background()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = c.GetOrAdd(ctx, "slow", func(context.Context) (string, error) {
			close(slowStarted)
			<-release
			return "slow", nil
		}, nil)
	}()
	<-slowStarted

	done := make(chan string, 1)
	go func() {
		v, _ := c.GetOrAdd(ctx, "fast", func(context.Context) (string, error) {
			return "fast", nil
		}, nil)
		done <- v
	}()

	select {
	case v := <-done:
		if v != "fast" {
			t.Errorf("got %q, want fast", v)
		}
	case <-time.After(time.Second):
		t.Fatal("load for another key blocked behind the slow load")
	}
	close(release)
}

func TestMicroCache_FailedLoadIsRetried(t *testing.T) {
	c, _ := newTestMicroCache[string](t)
	ctx := context.Background()
	boom := errors.New("build failed")

	var calls atomic.Int32
	load := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "ok", nil
	}

	if _, err := c.GetOrAdd(ctx, "k", load, nil); !errors.Is(err, boom) {
		t.Fatalf("first GetOrAdd error = %v, want boom", err)
	}
	if c.Contains("k") {
		t.Fatal("failed entry should not remain cached")
	}

	v, err := c.GetOrAdd(ctx, "k", load, nil)
	if err != nil || v != "ok" {
		t.Fatalf("second GetOrAdd = %q, %v", v, err)
	}
	if calls.Load() != 2 {
		t.Errorf("load called %d times, want 2", calls.Load())
	}
}

func TestMicroCache_FailedLoadSharedByWaiters(t *testing.T) {
	c, _ := newTestMicroCache[int](t)
	ctx := context.Background()
	boom := errors.New("boom")

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 0, boom
	}

	const n = 16
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.GetOrAdd(ctx, "k", load, nil)
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < n; i++ {
		if err := <-errs; !errors.Is(err, boom) {
			t.Errorf("waiter error = %v, want boom", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("load called %d times, want 1", calls.Load())
	}
}

func TestMicroCache_PanickingLoadIsNotCached(t *testing.T) {
	c, _ := newTestMicroCache[int](t)
	_, err := c.GetOrAdd(context.Background(), "k", func(context.Context) (int, error) {
		panic("nope")
	}, nil)
	if !errors.Is(err, ErrLoadPanicked) {
		t.Fatalf("error = %v, want ErrLoadPanicked", err)
	}
	if c.Contains("k") {
		t.Error("panicked entry should be evicted")
	}
}

func TestMicroCache_RemoveAndContains(t *testing.T) {
	c, _ := newTestMicroCache[int](t)
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) (int, error) { return int(calls.Add(1)), nil }

	v1, _ := c.GetOrAdd(ctx, "k", load, nil)
	if !c.Contains("k") {
		t.Fatal("Contains() = false after GetOrAdd")
	}
	c.Remove("k")
	if c.Contains("k") {
		t.Fatal("Contains() = true after Remove")
	}
	v2, _ := c.GetOrAdd(ctx, "k", load, nil)
	if v1 == v2 {
		t.Errorf("value after Remove should be rebuilt, got %d twice", v1)
	}
}

func TestMicroCache_DetailsAndNotifications(t *testing.T) {
	c, _ := newTestMicroCache[string](t)
	ctx := context.Background()
	trigger := NewTriggerDependency()

	var mu sync.Mutex
	var removed []string
	c.OnRemoved(func(key, value string, reason RemovalReason) {
		mu.Lock()
		removed = append(removed, fmt.Sprintf("%s=%s:%s", key, value, reason))
		mu.Unlock()
	})

	detailCalls := 0
	details := func() Details {
		detailCalls++
		return Details{Dependencies: []Dependency{trigger}}
	}
	load := func(context.Context) (string, error) { return "v", nil }

	_, _ = c.GetOrAdd(ctx, "k", load, details)
	_, _ = c.GetOrAdd(ctx, "k", load, details)
	if detailCalls != 1 {
		t.Errorf("details evaluated %d times, want 1", detailCalls)
	}

	trigger.Trigger()
	if c.Contains("k") {
		t.Fatal("dependency change should evict the entry")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(removed) != 1 || removed[0] != "k=v:dependency_changed" {
		t.Errorf("removed = %v", removed)
	}
}

func TestMicroCache_Hooks(t *testing.T) {
	var hits, misses atomic.Int32
	c, _ := newTestMicroCache[int](t, Hooks{
		OnHit:  func(context.Context, string) { hits.Add(1) },
		OnMiss: func(context.Context, string) { misses.Add(1) },
	})
	ctx := context.Background()
	load := func(context.Context) (int, error) { return 1, nil }

	_, _ = c.GetOrAdd(ctx, "k", load, nil)
	_, _ = c.GetOrAdd(ctx, "k", load, nil)
	_, _ = c.GetOrAdd(ctx, "k", load, nil)

	if misses.Load() != 1 || hits.Load() != 2 {
		t.Errorf("hits=%d misses=%d, want 2/1", hits.Load(), misses.Load())
	}
}

func TestMicroCache_InvalidInput(t *testing.T) {
	c, _ := newTestMicroCache[int](t)
	ctx := context.Background()

	if _, err := c.GetOrAdd(ctx, "", func(context.Context) (int, error) { return 0, nil }, nil); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty key error = %v", err)
	}
	if _, err := c.GetOrAdd(ctx, "k", nil, nil); !errors.Is(err, ErrNilLoader) {
		t.Errorf("nil loader error = %v", err)
	}
	if _, err := NewMicroCache[int](nil); !errors.Is(err, ErrNilStorage) {
		t.Errorf("nil storage error = %v", err)
	}
}

func TestMicroCache_DependencyFailureIsReported(t *testing.T) {
	var reported []string
	c, _ := newTestMicroCache[int](t, Hooks{
		OnDependencyError: func(_ context.Context, key string, err error) {
			if errors.Is(err, ErrDependencyInit) {
				reported = append(reported, key)
			}
		},
	})
	bad := dependencyFunc(func(context.Context, func()) error { return errors.New("no watch") })

	v, err := c.GetOrAdd(context.Background(), "k", func(context.Context) (int, error) { return 1, nil },
		func() Details { return Details{Dependencies: []Dependency{bad}} })
	if err != nil || v != 1 {
		t.Fatalf("GetOrAdd() = %d, %v; want 1, nil", v, err)
	}
	if !c.Contains("k") {
		t.Error("entry should be cached when a dependency cannot be watched")
	}
	if len(reported) != 1 || reported[0] != "k" {
		t.Errorf("reported = %v, want [k]", reported)
	}
}

func TestMicroCache_SlowWatchDoesNotBlockOtherKeys(t *testing.T) {
	c, _ := newTestMicroCache[string](t)
	ctx := context.Background()
	load := func(v string) LoadFunc[string] {
		return func(context.Context) (string, error) { return v, nil }
	}

	if _, err := c.GetOrAdd(ctx, "a", load("a"), nil); err != nil {
		t.Fatalf("GetOrAdd(a) failed: %v", err)
	}

	watching := make(chan struct{})
	release := make(chan struct{})
	slow := dependencyFunc(func(context.Context, func()) error {
		close(watching)
		<-release
		return nil
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.GetOrAdd(ctx, "b", load("b"), func() Details {
			return Details{Dependencies: []Dependency{slow}}
		})
	}()
	<-watching

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "hit on cached key", key: "a", want: "a"},
		{name: "miss on new key", key: "c", want: "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan string, 1)
			go func() {
				v, _ := c.GetOrAdd(ctx, tt.key, load(tt.key), nil)
				got <- v
			}()
			select {
			case v := <-got:
				if v != tt.want {
					t.Errorf("GetOrAdd(%s) = %q, want %q", tt.key, v, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatalf("GetOrAdd(%s) blocked behind the dependency watch of b", tt.key)
			}
		})
	}

	if !c.Contains("b") {
		t.Error("Contains(b) = false while its entry is being stored")
	}
	close(release)
	<-done
}

func TestMicroCache_RemoveWhileStoring(t *testing.T) {
	c, _ := newTestMicroCache[string](t)
	ctx := context.Background()

	watching := make(chan struct{})
	release := make(chan struct{})
	slow := dependencyFunc(func(context.Context, func()) error {
		close(watching)
		<-release
		return nil
	})

	got := make(chan string, 1)
	go func() {
		v, _ := c.GetOrAdd(ctx, "k", func(context.Context) (string, error) { return "v", nil },
			func() Details { return Details{Dependencies: []Dependency{slow}} })
		got <- v
	}()
	<-watching
	c.Remove("k")
	close(release)

	if v := <-got; v != "v" {
		t.Errorf("waiting caller got %q, want v", v)
	}
	if c.Contains("k") {
		t.Error("entry removed while being stored should not stay cached")
	}
}

// blockingCloseDependency hands out handles whose Close waits for release.
type blockingCloseDependency struct {
	closing chan struct{}
	release chan struct{}
}

func (d *blockingCloseDependency) Watch(context.Context, func()) (io.Closer, error) {
	return closerFunc(func() error {
		close(d.closing)
		<-d.release
		return nil
	}), nil
}

func TestMicroCache_RemoveClosesOutsideLock(t *testing.T) {
	c, _ := newTestMicroCache[string](t)
	ctx := context.Background()
	load := func(v string) LoadFunc[string] {
		return func(context.Context) (string, error) { return v, nil }
	}
	dep := &blockingCloseDependency{closing: make(chan struct{}), release: make(chan struct{})}

	_, _ = c.GetOrAdd(ctx, "a", load("a"), nil)
	_, _ = c.GetOrAdd(ctx, "b", load("b"), func() Details {
		return Details{Dependencies: []Dependency{dep}}
	})

	removed := make(chan struct{})
	go func() {
		c.Remove("b")
		close(removed)
	}()
	<-dep.closing

	got := make(chan string, 2)
	go func() {
		v, _ := c.GetOrAdd(ctx, "a", load("x"), nil)
		got <- v
		v, _ = c.GetOrAdd(ctx, "c", load("c"), nil)
		got <- v
	}()
	for _, want := range []string{"a", "c"} {
		select {
		case v := <-got:
			if v != want {
				t.Errorf("GetOrAdd() = %q, want %q", v, want)
			}
		case <-time.After(time.Second):
			t.Fatal("GetOrAdd blocked while another key's handles were closing")
		}
	}
	close(dep.release)
	<-removed
}
