package navhttp

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jonwraymond/navkit/health"
	"github.com/jonwraymond/navkit/sitemap"
)

func TestNew_RequiresLoader(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilLoader) {
		t.Errorf("New() error = %v, want ErrNilLoader", err)
	}
}

func keysOf(nodes []*MenuNode) string {
	keys := make([]string, len(nodes))
	for i, n := range nodes {
		keys[i] = n.Key
	}
	return strings.Join(keys, ",")
}

func decodeMenu(t *testing.T, body []byte) []*MenuNode {
	t.Helper()
	var menu []*MenuNode
	if err := json.Unmarshal(body, &menu); err != nil {
		t.Fatalf("decode menu: %v: %s", err, body)
	}
	return menu
}

func TestMenu(t *testing.T) {
	h := newTestServer(t, newTestLoader(t), nil)

	tests := []struct {
		name         string
		key          string
		wantChildren string
	}{
		{name: "anonymous", wantChildren: "products,hiddenchild,partner"},
		{name: "admin", key: adminKey, wantChildren: "products,hiddenchild,admin,partner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/nav/menu", tt.key)
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d: %s", rec.Code, rec.Body)
			}
			menu := decodeMenu(t, rec.Body.Bytes())
			if len(menu) != 1 || menu[0].Key != "home" {
				t.Fatalf("menu roots = %q", keysOf(menu))
			}
			if got := keysOf(menu[0].Children); got != tt.wantChildren {
				t.Errorf("children = %q, want %q", got, tt.wantChildren)
			}
		})
	}
}

func TestMenu_CurrentPathAndDepth(t *testing.T) {
	h := newTestServer(t, newTestLoader(t), nil)

	menu := decodeMenu(t, serve(h, http.MethodGet, "/nav/menu?path=/products/42", "").Body.Bytes())
	home := menu[0]
	products := home.Children[0]
	if !home.InCurrentPath || !products.InCurrentPath || products.Current {
		t.Errorf("home=%+v products=%+v", home, products)
	}
	if len(products.Children) != 1 || !products.Children[0].Current {
		t.Errorf("p42 = %+v", products.Children)
	}

	menu = decodeMenu(t, serve(h, http.MethodGet, "/nav/menu?depth=1", "").Body.Bytes())
	if len(menu) != 1 || len(menu[0].Children) != 0 {
		t.Errorf("depth=1 menu = %+v", menu)
	}

	if rec := serve(h, http.MethodGet, "/nav/menu?depth=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("depth=-1 code = %d", rec.Code)
	}
}

func TestBreadcrumbs(t *testing.T) {
	h := newTestServer(t, newTestLoader(t), nil)

	tests := []struct {
		name     string
		path     string
		key      string
		wantCode int
		want     string
	}{
		{name: "leaf", path: "/products/42", wantCode: http.StatusOK, want: "home,products,p42"},
		{name: "root", path: "/", wantCode: http.StatusOK, want: "home"},
		{name: "hidden node still in trail", path: "/hidden/child", wantCode: http.StatusOK, want: "home,hidden,hiddenchild"},
		{name: "unknown path", path: "/nope", wantCode: http.StatusNotFound},
		{name: "inaccessible", path: "/admin", wantCode: http.StatusNotFound},
		{name: "admin", path: "/admin", key: adminKey, wantCode: http.StatusOK, want: "home,admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/nav/breadcrumbs?path="+tt.path, tt.key)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var crumbs []Crumb
			if err := json.Unmarshal(rec.Body.Bytes(), &crumbs); err != nil {
				t.Fatal(err)
			}
			keys := make([]string, len(crumbs))
			for i, c := range crumbs {
				keys[i] = c.Key
			}
			if got := strings.Join(keys, ","); got != tt.want {
				t.Errorf("trail = %q, want %q", got, tt.want)
			}
			if !crumbs[len(crumbs)-1].Current {
				t.Error("last crumb should be current")
			}
		})
	}
}

func TestSiteMapXML(t *testing.T) {
	h := newTestServer(t, newTestLoader(t), nil)

	rec := serve(h, http.MethodGet, "/sitemap.xml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<?xml") {
		t.Error("missing XML header")
	}

	var set URLSet
	if err := xml.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatal(err)
	}
	var locs []string
	for _, u := range set.URLs {
		locs = append(locs, u.Loc)
	}
	want := "http://example.com/,http://example.com/products,http://example.com/products/42,http://example.com/hidden,http://example.com/hidden/child"
	if got := strings.Join(locs, ","); got != want {
		t.Errorf("locs = %s\nwant   %s", got, want)
	}

	products := set.URLs[1]
	if products.ChangeFreq != "daily" || products.Priority != "0.8" || products.LastMod != "2026-03-01" {
		t.Errorf("products entry = %+v", products)
	}

	rec = serve(h, http.MethodGet, "/sitemap.xml", adminKey)
	if !strings.Contains(rec.Body.String(), "<loc>http://example.com/admin</loc>") {
		t.Error("admin should see /admin")
	}
}

func TestRelease(t *testing.T) {
	l := newTestLoader(t)
	h := newTestServer(t, l, nil)
	const key = "sitemap://example.com/"

	if rec := serve(h, http.MethodGet, "/nav/menu", ""); rec.Code != http.StatusOK {
		t.Fatalf("warm-up code = %d", rec.Code)
	}
	if !l.Contains(key) {
		t.Fatal("sitemap not cached after warm-up")
	}

	tests := []struct {
		name     string
		apiKey   string
		wantCode int
	}{
		{name: "anonymous", wantCode: http.StatusUnauthorized},
		{name: "wrong role", apiKey: adminKey, wantCode: http.StatusForbidden},
		{name: "operator", apiKey: operatorKey, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodPost, "/nav/release", tt.apiKey)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
	if l.Contains(key) {
		t.Error("operator release should evict the sitemap")
	}

	if rec := serve(h, http.MethodGet, "/nav/release", operatorKey); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /nav/release code = %d, want 405", rec.Code)
	}
}

type failingLoader struct{}

func (failingLoader) GetSiteMap(context.Context, string) (*sitemap.SiteMap, error) {
	return nil, errors.New("source unavailable")
}

func (failingLoader) ReleaseSiteMap(context.Context, string) error {
	return errors.New("redis down")
}

func TestLoaderFailures(t *testing.T) {
	h := newTestServer(t, failingLoader{}, nil)
	for _, path := range []string{"/nav/menu", "/nav/breadcrumbs", "/sitemap.xml"} {
		if rec := serve(h, http.MethodGet, path, ""); rec.Code != http.StatusInternalServerError {
			t.Errorf("%s code = %d, want 500", path, rec.Code)
		}
	}
	if rec := serve(h, http.MethodPost, "/nav/release", operatorKey); rec.Code != http.StatusBadGateway {
		t.Errorf("release code = %d, want 502", rec.Code)
	}
}

func TestHealthRoutes(t *testing.T) {
	l := newTestLoader(t)
	agg := health.NewAggregator()
	agg.Register(health.NewSiteMapChecker("", l, "sitemap://example.com/"))
	h := newTestServer(t, l, agg)

	if rec := serve(h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("/readyz code = %d: %s", rec.Code, rec.Body)
	}
	rec := serve(h, http.MethodGet, "/health/sitemap", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"nodes":7`) {
		t.Errorf("/health/sitemap = %d %s", rec.Code, rec.Body)
	}
}

func TestRequestContext(t *testing.T) {
	var got *sitemap.Request
	h := RequestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = sitemap.RequestFromContext(r.Context())
	}))
	serve(h, http.MethodPost, "/Products/Edit?id=4", "")

	if got == nil {
		t.Fatal("no request in context")
	}
	if got.Host != "example.com" || got.URL != "/Products/Edit?id=4" || got.Method != http.MethodPost {
		t.Errorf("request = %+v", got)
	}
}
