package routing

import (
	"sort"
	"strings"
)

// Well-known route value keys.
const (
	KeyArea       = "area"
	KeyController = "controller"
	KeyAction     = "action"
)

// RouteValues maps route parameter names to values.
// Lookups through Get are case-insensitive on the key.
type RouteValues map[string]string

// Get returns the value for key, matching the key case-insensitively.
func (v RouteValues) Get(key string) (string, bool) {
	if val, ok := v[key]; ok {
		return val, true
	}
	for k, val := range v {
		if strings.EqualFold(k, key) {
			return val, true
		}
	}
	return "", false
}

// Value returns the value for key or "".
func (v RouteValues) Value(key string) string {
	val, _ := v.Get(key)
	return val
}

// Clone returns a shallow copy with lowercased keys.
func (v RouteValues) Clone() RouteValues {
	out := make(RouteValues, len(v))
	for k, val := range v {
		out[strings.ToLower(k)] = val
	}
	return out
}

// Keys returns the keys in sorted order.
func (v RouteValues) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RouteData is the result of matching a request against the route table.
type RouteData struct {
	// RouteName is the name of the route that matched (may be empty).
	RouteName string

	// Values are the resolved route values including defaults.
	Values RouteValues
}

// Router matches request paths to route values and generates URLs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: misses are reported with ok=false, never with an error.
type Router interface {
	// Match returns the route data for a root-relative path and HTTP method.
	Match(path, method string) (*RouteData, bool)

	// URL generates a root-relative URL. An empty routeName selects the first
	// route able to generate the values.
	URL(routeName string, values RouteValues) (string, bool)
}
