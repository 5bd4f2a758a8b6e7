package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/sitemap"
)

// countingBuilder builds a two-node map titled after title and counts builds.
type countingBuilder struct {
	title string
	calls atomic.Int32
	fail  atomic.Int32 // remaining builds that fail
	gate  chan struct{}
}

func (b *countingBuilder) BuildSiteMap(ctx context.Context, sm *sitemap.SiteMap, _ string) (*sitemap.Node, error) {
	b.calls.Add(1)
	if b.gate != nil {
		<-b.gate
	}
	if b.fail.Load() > 0 {
		b.fail.Add(-1)
		return nil, errBuild
	}

	root, err := sm.NewNode("home")
	if err != nil {
		return nil, err
	}
	about, err := sm.NewNode("about")
	if err != nil {
		return nil, err
	}
	if err := errors.Join(
		root.SetTitle(b.title), root.SetURL("/"),
		about.SetTitle("About"), about.SetURL("/about"),
	); err != nil {
		return nil, err
	}
	if err := sm.AddNode(root, nil); err != nil {
		return nil, err
	}
	return root, sm.AddNode(about, root)
}

var errBuild = errors.New("source unavailable")

func newSet(name string, b sitemap.Builder) BuilderSet {
	return BuilderSet{Name: name, Builder: b, Policy: cache.NoExpirationPolicy()}
}

func newLoader(t *testing.T, cfg Config, sets ...BuilderSet) *Loader {
	t.Helper()
	strategy, err := NewBuilderSetStrategy(sets...)
	if err != nil {
		t.Fatalf("NewBuilderSetStrategy() error = %v", err)
	}
	cfg.Strategy = strategy
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func forHost(host string) context.Context {
	return sitemap.WithRequest(context.Background(), sitemap.NewRequest(host, "/", "GET"))
}
