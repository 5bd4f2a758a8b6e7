package sitemap

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/navkit/routing"
)

type relation struct {
	parent string
	key    string
	url    string
	ctrl   string
	action string
}

// treeBuilder attaches relations in order; parents must come first.
func treeBuilder(rels ...relation) BuilderFunc {
	return func(_ context.Context, sm *SiteMap, _ string) (*Node, error) {
		var root *Node
		for _, r := range rels {
			n, err := sm.NewNode(r.key)
			if err != nil {
				return nil, err
			}
			_ = n.SetTitle(r.key)
			if r.url != "" {
				if err := n.SetURL(r.url); err != nil {
					return nil, err
				}
			}
			if r.ctrl != "" {
				_ = n.SetController(r.ctrl)
				_ = n.SetAction(r.action)
			}
			var parent *Node
			if r.parent != "" {
				parent = sm.FindNodeByKey(r.parent)
			}
			if err := sm.AddNode(n, parent); err != nil {
				return nil, err
			}
			if parent == nil {
				root = n
			}
		}
		return root, nil
	}
}

func newTestSiteMap(t *testing.T, cfg Config) *SiteMap {
	t.Helper()
	if cfg.Builder == nil {
		cfg.Builder = treeBuilder()
	}
	if cfg.Router == nil {
		cfg.Router = routing.DefaultRouteTable()
	}
	sm, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sm
}

func mustNode(t *testing.T, sm *SiteMap, key string) *Node {
	t.Helper()
	n, err := sm.NewNode(key)
	if err != nil {
		t.Fatalf("NewNode(%q) error = %v", key, err)
	}
	return n
}

func mustAdd(t *testing.T, sm *SiteMap, n, parent *Node) {
	t.Helper()
	if err := sm.AddNode(n, parent); err != nil {
		t.Fatalf("AddNode(%q) error = %v", n.Key(), err)
	}
}

// countingRouter counts Match calls.
type countingRouter struct {
	routing.Router
	matches atomic.Int32
}

func (r *countingRouter) Match(path, method string) (*routing.RouteData, bool) {
	r.matches.Add(1)
	return r.Router.Match(path, method)
}
