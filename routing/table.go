package routing

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jonwraymond/navkit/urlpath"
)

// Route describes one entry of a RouteTable.
type Route struct {
	// Name identifies the route for URL generation. Optional.
	Name string

	// Template is a slash-separated pattern, e.g. "admin/{controller}/{action}/{id}".
	Template string

	// Defaults supply values for parameters missing from the path, and
	// constrain generation for keys that do not appear in the template.
	Defaults RouteValues

	// Optional lists parameters that may be absent with no default.
	Optional []string

	// Methods restricts matching to these HTTP methods. Empty means any.
	Methods []string
}

type segment struct {
	literal string
	param   string
}

type compiledRoute struct {
	Route
	segments []segment
	optional map[string]bool
}

// RouteTable is an ordered, first-match-wins route collection.
type RouteTable struct {
	appRoot string

	mu     sync.RWMutex
	routes []*compiledRoute
	byName map[string]*compiledRoute
}

// NewRouteTable creates an empty table rooted at appRoot ("/" when empty).
func NewRouteTable(appRoot string) *RouteTable {
	root := "/" + strings.Trim(appRoot, "/")
	return &RouteTable{
		appRoot: root,
		byName:  make(map[string]*compiledRoute),
	}
}

// DefaultRouteTable returns a table holding the conventional
// "{controller}/{action}/{id}" route with Home/Index defaults.
func DefaultRouteTable() *RouteTable {
	t := NewRouteTable("/")
	_ = t.Add(Route{
		Name:     "Default",
		Template: "{controller}/{action}/{id}",
		Defaults: RouteValues{KeyController: "Home", KeyAction: "Index"},
		Optional: []string{"id"},
	})
	return t
}

// Add registers a route at the end of the table.
func (t *RouteTable) Add(r Route) error {
	tmpl := strings.Trim(r.Template, "/")
	if tmpl == "" && len(r.Defaults) == 0 {
		return ErrEmptyTemplate
	}

	cr := &compiledRoute{Route: r, optional: make(map[string]bool, len(r.Optional))}
	cr.Defaults = r.Defaults.Clone()
	for _, o := range r.Optional {
		cr.optional[strings.ToLower(o)] = true
	}
	if tmpl != "" {
		for _, part := range strings.Split(tmpl, "/") {
			switch {
			case part == "":
				return fmt.Errorf("%w: empty segment in %q", ErrInvalidSegment, r.Template)
			case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
				name := strings.ToLower(part[1 : len(part)-1])
				if name == "" {
					return fmt.Errorf("%w: %q", ErrInvalidSegment, part)
				}
				cr.segments = append(cr.segments, segment{param: name})
			case strings.ContainsAny(part, "{}"):
				return fmt.Errorf("%w: %q", ErrInvalidSegment, part)
			default:
				cr.segments = append(cr.segments, segment{literal: part})
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if r.Name != "" {
		if _, exists := t.byName[r.Name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateRoute, r.Name)
		}
		t.byName[r.Name] = cr
	}
	t.routes = append(t.routes, cr)
	return nil
}

// Match implements Router.
func (t *RouteTable) Match(path, method string) (*RouteData, bool) {
	p, _ := urlpath.SplitQuery(urlpath.StripFragment(path))
	p = strings.TrimPrefix(p, "~")
	if t.appRoot != "/" {
		if !strings.HasPrefix(strings.ToLower(p), strings.ToLower(t.appRoot)) {
			return nil, false
		}
		p = p[len(t.appRoot):]
	}
	p = strings.Trim(p, "/")
	var parts []string
	if p != "" {
		parts = strings.Split(p, "/")
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.routes {
		if !r.allowsMethod(method) {
			continue
		}
		if values, ok := r.match(parts); ok {
			return &RouteData{RouteName: r.Name, Values: values}, true
		}
	}
	return nil, false
}

// URL implements Router.
func (t *RouteTable) URL(routeName string, values RouteValues) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if routeName != "" {
		r, ok := t.byName[routeName]
		if !ok {
			return "", false
		}
		return r.generate(t.appRoot, values)
	}
	for _, r := range t.routes {
		if u, ok := r.generate(t.appRoot, values); ok {
			return u, true
		}
	}
	return "", false
}

func (r *compiledRoute) allowsMethod(method string) bool {
	if len(r.Methods) == 0 || method == "" || method == "*" {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func (r *compiledRoute) match(parts []string) (RouteValues, bool) {
	if len(parts) > len(r.segments) {
		return nil, false
	}
	values := r.Defaults.Clone()
	for i, seg := range r.segments {
		if i >= len(parts) {
			if seg.literal != "" {
				return nil, false
			}
			if _, ok := values[seg.param]; !ok && !r.optional[seg.param] {
				return nil, false
			}
			continue
		}
		part, err := url.PathUnescape(parts[i])
		if err != nil {
			return nil, false
		}
		if seg.literal != "" {
			if !strings.EqualFold(seg.literal, part) {
				return nil, false
			}
			continue
		}
		values[seg.param] = part
	}
	return values, true
}

func (r *compiledRoute) generate(appRoot string, values RouteValues) (string, bool) {
	vals := values.Clone()
	used := make(map[string]bool, len(r.segments))

	// Keys that are defaulted but not part of the template pin the route.
	inTemplate := make(map[string]bool, len(r.segments))
	for _, seg := range r.segments {
		if seg.param != "" {
			inTemplate[seg.param] = true
		}
	}
	for k, def := range r.Defaults {
		if inTemplate[k] {
			continue
		}
		if v := vals[k]; !strings.EqualFold(v, def) {
			return "", false
		}
		used[k] = true
	}

	out := make([]string, len(r.segments))
	for i, seg := range r.segments {
		if seg.literal != "" {
			out[i] = seg.literal
			continue
		}
		v, ok := vals[seg.param]
		if !ok || v == "" {
			v, ok = r.Defaults[seg.param]
		}
		if !ok && !r.optional[seg.param] {
			return "", false
		}
		out[i] = url.PathEscape(v)
		used[seg.param] = true
	}

	// Drop trailing segments that equal their defaults or are empty optionals.
	end := len(out)
	for end > 0 {
		seg := r.segments[end-1]
		if seg.literal != "" {
			break
		}
		def, hasDef := r.Defaults[seg.param]
		if out[end-1] == "" || (hasDef && strings.EqualFold(out[end-1], url.PathEscape(def))) {
			end--
			continue
		}
		break
	}
	for i := 0; i < end; i++ {
		if out[i] == "" {
			return "", false
		}
	}

	u := urlpath.JoinRoot(appRoot, strings.Join(out[:end], "/"))
	if end == 0 {
		u = appRoot
	}

	query := url.Values{}
	for _, k := range vals.Keys() {
		if used[k] || vals[k] == "" {
			continue
		}
		query.Set(k, vals[k])
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, true
}

// Ensure RouteTable implements Router
var _ Router = (*RouteTable)(nil)
