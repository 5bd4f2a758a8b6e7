package visibility

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/sitemap"
)

func newNode(t *testing.T, attrs map[string]string) *sitemap.Node {
	t.Helper()
	sm, err := sitemap.New(sitemap.Config{
		Builder: sitemap.BuilderFunc(func(context.Context, *sitemap.SiteMap, string) (*sitemap.Node, error) {
			return nil, nil
		}),
		Router: routing.DefaultRouteTable(),
	})
	if err != nil {
		t.Fatal(err)
	}
	n, err := sm.NewNode("n")
	if err != nil {
		t.Fatal(err)
	}
	_ = n.SetTitle("Reports")
	_ = n.SetController("Reports")
	_ = n.SetAction("Index")
	for k, v := range attrs {
		_ = n.SetAttribute(k, v)
	}
	if err := sm.AddNode(n, nil); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestFilteredProvider(t *testing.T) {
	menu := map[string]any{MetadataHelper: "MenuHelper"}
	path := map[string]any{MetadataHelper: "SiteMapPathHelper"}
	named := map[string]any{MetadataHelper: "MenuHelper", MetadataName: "footer"}

	tests := []struct {
		name       string
		visibility string
		metadata   map[string]any
		want       bool
	}{
		{"no attribute", "", menu, true},
		{"helper listed", "MenuHelper", menu, true},
		{"helper not listed", "SiteMapHelper", menu, false},
		{"negated helper", "!MenuHelper,*", menu, false},
		{"negated other helper", "!MenuHelper,*", path, true},
		{"wildcard", "*", path, true},
		{"negated wildcard", "!*", menu, false},
		{"first match wins", "MenuHelper;!*", menu, true},
		{"instance name", "footer", named, true},
		{"negated instance name", "!footer,*", named, false},
		{"case insensitive", "menuhelper", menu, true},
		{"nil metadata", "MenuHelper", nil, false},
	}
	p := FilteredProvider{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := map[string]string{}
			if tt.visibility != "" {
				attrs[VisibilityAttribute] = tt.visibility
			}
			n := newNode(t, attrs)
			if got := p.IsVisible(context.Background(), n, tt.metadata); got != tt.want {
				t.Errorf("IsVisible(%q) = %v, want %v", tt.visibility, got, tt.want)
			}
		})
	}
}

func TestExpressionProvider(t *testing.T) {
	admin := auth.WithIdentity(context.Background(), &auth.Identity{
		Principal: "ada",
		Roles:     []string{"admins"},
		Method:    auth.AuthMethodJWT,
	})
	anon := auth.WithIdentity(context.Background(), auth.AnonymousIdentity())
	onHost := sitemap.WithRequest(admin, sitemap.NewRequest("intranet.example.com", "/", "GET"))

	tests := []struct {
		name     string
		expr     string
		ctx      context.Context
		metadata map[string]any
		want     bool
	}{
		{"no expression", "", anon, nil, true},
		{"role check", `"admins" in user.roles`, admin, nil, true},
		{"role check anonymous", `"admins" in user.roles`, anon, nil, false},
		{"authenticated", `user.authenticated`, anon, nil, false},
		{"node fields", `node.controller == "Reports" && node.url == "/Reports"`, anon, nil, true},
		{"request host", `request.host == "intranet.example.com"`, onHost, nil, true},
		{"metadata", `metadata.helper != "SiteMapPathHelper"`, anon, map[string]any{"helper": "MenuHelper"}, true},
		{"attributes", `node.attributes.section == "ops"`, anon, nil, true},
		{"compile error hides", `user.roles ==`, admin, nil, false},
		{"non bool hides", `node.title`, admin, nil, false},
	}
	p := NewExpressionProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := map[string]string{"section": "ops"}
			if tt.expr != "" {
				attrs[ExpressionAttribute] = tt.expr
			}
			n := newNode(t, attrs)
			if got := p.IsVisible(tt.ctx, n, tt.metadata); got != tt.want {
				t.Errorf("IsVisible(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExpressionProvider_CompileCached(t *testing.T) {
	p := NewExpressionProvider()
	a, err := p.Compile(`user.authenticated`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	b, _ := p.Compile(`user.authenticated`)
	if a != b {
		t.Error("second Compile() should return the cached program")
	}
	if _, err := p.Compile(`user.missing`); !errors.Is(err, ErrCompile) {
		t.Errorf("Compile() error = %v, want ErrCompile", err)
	}
}

func TestWithStrategy(t *testing.T) {
	strategy := sitemap.NewVisibilityStrategy(FilteredProviderName, FilteredProvider{}, NewExpressionProvider())
	n := newNode(t, map[string]string{VisibilityAttribute: "!MenuHelper,*"})

	if strategy.IsVisible(context.Background(), "", n, map[string]any{MetadataHelper: "MenuHelper"}) {
		t.Error("default filtered provider should hide the node from the menu")
	}
	if !strategy.IsVisible(context.Background(), ExpressionProviderName, n, map[string]any{MetadataHelper: "MenuHelper"}) {
		t.Error("expression provider without expression should show the node")
	}
}
