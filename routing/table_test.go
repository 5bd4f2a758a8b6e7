package routing

import (
	"errors"
	"testing"
)

func newTestTable(t *testing.T) *RouteTable {
	t.Helper()
	table := NewRouteTable("/")
	routes := []Route{
		{
			Name:     "Admin",
			Template: "admin/{controller}/{action}/{id}",
			Defaults: RouteValues{"area": "Admin", "controller": "Dashboard", "action": "Index"},
			Optional: []string{"id"},
		},
		{
			Name:     "Default",
			Template: "{controller}/{action}/{id}",
			Defaults: RouteValues{"controller": "Home", "action": "Index"},
			Optional: []string{"id"},
		},
	}
	for _, r := range routes {
		if err := table.Add(r); err != nil {
			t.Fatalf("Add(%s) failed: %v", r.Name, err)
		}
	}
	return table
}

func TestRouteTable_Match(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name      string
		path      string
		wantRoute string
		want      RouteValues
		wantOK    bool
	}{
		{
			name:      "root uses defaults",
			path:      "/",
			wantRoute: "Default",
			want:      RouteValues{"controller": "Home", "action": "Index"},
			wantOK:    true,
		},
		{
			name:      "controller action id",
			path:      "/Products/Details/42?ignored=1",
			wantRoute: "Default",
			want:      RouteValues{"controller": "Products", "action": "Details", "id": "42"},
			wantOK:    true,
		},
		{
			name:      "literal prefix route",
			path:      "/admin/Users",
			wantRoute: "Admin",
			want:      RouteValues{"area": "Admin", "controller": "Users", "action": "Index"},
			wantOK:    true,
		},
		{
			name:   "too many segments",
			path:   "/a/b/c/d",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, ok := table.Match(tt.path, "GET")
			if ok != tt.wantOK {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rd.RouteName != tt.wantRoute {
				t.Errorf("RouteName = %q, want %q", rd.RouteName, tt.wantRoute)
			}
			for k, v := range tt.want {
				if got := rd.Values.Value(k); got != v {
					t.Errorf("Values[%s] = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestRouteTable_MethodConstraint(t *testing.T) {
	table := NewRouteTable("")
	_ = table.Add(Route{Name: "Post", Template: "submit", Defaults: RouteValues{"controller": "Form", "action": "Submit"}, Methods: []string{"POST"}})

	if _, ok := table.Match("/submit", "GET"); ok {
		t.Error("GET should not match POST-only route")
	}
	if _, ok := table.Match("/submit", "post"); !ok {
		t.Error("POST should match case-insensitively")
	}
}

func TestRouteTable_URL(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name   string
		route  string
		values RouteValues
		want   string
		wantOK bool
	}{
		{"defaults collapse to root", "", RouteValues{"controller": "Home", "action": "Index"}, "/", true},
		{"controller only", "", RouteValues{"controller": "Products", "action": "Index"}, "/Products", true},
		{"full", "", RouteValues{"Controller": "Products", "Action": "Details", "id": "5"}, "/Products/Details/5", true},
		{"extra values become query", "", RouteValues{"controller": "Search", "action": "Index", "q": "go", "page": "2"}, "/Search?page=2&q=go", true},
		{"area route pinned by default", "", RouteValues{"area": "Admin", "controller": "Users", "action": "Edit"}, "/admin/Users/Edit", true},
		{"named route", "Default", RouteValues{"controller": "About", "action": "Index"}, "/About", true},
		{"unknown route", "Missing", RouteValues{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.URL(tt.route, tt.values)
			if ok != tt.wantOK {
				t.Fatalf("URL() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouteTable_AppRoot(t *testing.T) {
	table := NewRouteTable("/shop")
	_ = table.Add(Route{Template: "{controller}/{action}", Defaults: RouteValues{"controller": "Home", "action": "Index"}})

	rd, ok := table.Match("/shop/Cart/View", "")
	if !ok || rd.Values.Value("controller") != "Cart" {
		t.Fatalf("Match under app root failed: %+v %v", rd, ok)
	}
	if _, ok := table.Match("/other/Cart", ""); ok {
		t.Error("path outside app root should not match")
	}
	if u, _ := table.URL("", RouteValues{"controller": "Cart", "action": "View"}); u != "/shop/Cart/View" {
		t.Errorf("URL() = %q", u)
	}
}

func TestRouteTable_AddErrors(t *testing.T) {
	table := NewRouteTable("/")
	if err := table.Add(Route{}); !errors.Is(err, ErrEmptyTemplate) {
		t.Errorf("empty route: got %v", err)
	}
	if err := table.Add(Route{Template: "a/{}/b"}); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("empty param: got %v", err)
	}
	if err := table.Add(Route{Template: "a/x{y}"}); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("mixed segment: got %v", err)
	}
	_ = table.Add(Route{Name: "X", Template: "x"})
	if err := table.Add(Route{Name: "X", Template: "y"}); !errors.Is(err, ErrDuplicateRoute) {
		t.Errorf("duplicate: got %v", err)
	}
}

func TestRouteValues_Get(t *testing.T) {
	v := RouteValues{"Controller": "Home"}
	if got, ok := v.Get("controller"); !ok || got != "Home" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if _, ok := v.Get("action"); ok {
		t.Error("Get(missing) ok = true")
	}
}
