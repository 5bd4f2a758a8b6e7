package navhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/navkit/acl"
	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/health"
	"github.com/jonwraymond/navkit/loader"
	"github.com/jonwraymond/navkit/sitemap"
	"github.com/jonwraymond/navkit/visibility"
)

const (
	operatorKey = "op-key"
	adminKey    = "admin-key"
)

// buildNav builds:
//
//	home /
//	├── products /products (daily, 0.8)
//	│   └── p42 /products/42
//	├── hidden /hidden (hidden in menus)
//	│   └── hiddenchild /hidden/child
//	├── admin /admin (role admin)
//	└── partner https://partner.example.org/
func buildNav(_ context.Context, sm *sitemap.SiteMap, _ string) (*sitemap.Node, error) {
	type nodeDef struct {
		key, parent, url string
		setup            func(n *sitemap.Node) error
	}
	defs := []nodeDef{
		{key: "home", url: "/"},
		{key: "products", parent: "home", url: "/products", setup: func(n *sitemap.Node) error {
			return errors.Join(
				n.SetChangeFrequency(sitemap.ChangeFrequencyDaily),
				n.SetUpdatePriority(8),
				n.SetLastModified(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
			)
		}},
		{key: "p42", parent: "products", url: "/products/42"},
		{key: "hidden", parent: "home", url: "/hidden", setup: func(n *sitemap.Node) error {
			return errors.Join(
				n.SetVisibilityProvider(visibility.FilteredProviderName),
				n.SetAttribute(visibility.VisibilityAttribute, "!Menu,*"),
			)
		}},
		{key: "hiddenchild", parent: "hidden", url: "/hidden/child"},
		{key: "admin", parent: "home", url: "/admin", setup: func(n *sitemap.Node) error {
			return n.SetRoles([]string{"admin"})
		}},
		{key: "partner", parent: "home", url: "https://partner.example.org/"},
	}

	var root *sitemap.Node
	for _, s := range defs {
		n, err := sm.NewNode(s.key)
		if err != nil {
			return nil, err
		}
		if err := errors.Join(n.SetTitle(s.key), n.SetURL(s.url)); err != nil {
			return nil, err
		}
		if s.setup != nil {
			if err := s.setup(n); err != nil {
				return nil, err
			}
		}
		parent := sm.FindNodeByKey(s.parent)
		if err := sm.AddNode(n, parent); err != nil {
			return nil, err
		}
		if parent == nil {
			root = n
		}
	}
	return root, nil
}

func newTestLoader(t *testing.T) *loader.Loader {
	t.Helper()
	strategy, err := loader.NewBuilderSetStrategy(loader.BuilderSet{
		Name:     loader.DefaultBuilderSetName,
		Builder:  sitemap.BuilderFunc(buildNav),
		Settings: sitemap.Settings{SecurityTrimmingEnabled: true},
		Policy:   cache.NoExpirationPolicy(),
	})
	if err != nil {
		t.Fatal(err)
	}
	aclModule, err := acl.New([]acl.Module{acl.RolesModule{}})
	if err != nil {
		t.Fatal(err)
	}
	l, err := loader.New(loader.Config{
		Strategy: strategy,
		Creator: &loader.Creator{
			Visibility: sitemap.NewVisibilityStrategy("", visibility.FilteredProvider{}),
			ACL:        aclModule,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func newTestServer(t *testing.T, l loader.SiteMapLoader, agg *health.Aggregator) http.Handler {
	t.Helper()
	store := auth.NewMemoryAPIKeyStore()
	store.Add(&auth.APIKeyInfo{ID: "1", KeyHash: auth.HashAPIKey(operatorKey), Principal: "ops", Roles: []string{"operator"}})
	store.Add(&auth.APIKeyInfo{ID: "2", KeyHash: auth.HashAPIKey(adminKey), Principal: "ann", Roles: []string{"admin"}})

	s, err := New(Config{
		Loader:        l,
		Authenticator: auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store),
		Health:        agg,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s.Handler()
}

func serve(h http.Handler, method, target, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://example.com"+target, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
