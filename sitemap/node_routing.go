package sitemap

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/urlpath"
)

// MatchesRoute reports whether the node targets the route values in rd.
//
// Nodes with an explicit URL never match. A node bound to a host only
// matches requests for that host, and a node bound to an HTTP method only
// matches that method. Values are compared in both directions,
// case-insensitively, skipping preserved route parameters; a missing value
// equals an empty one.
func (n *Node) MatchesRoute(ctx context.Context, rd *routing.RouteData) bool {
	if rd == nil || n.unresolvedURL != "" {
		return false
	}
	req := RequestFromContext(ctx)
	if n.hostName != "" {
		if req == nil || !urlpath.HostsEqual(req.Host, n.hostName) {
			return false
		}
	}
	if m := n.httpMethod; m != "" && m != "*" && req != nil && req.Method != "" {
		if !strings.EqualFold(req.Method, m) {
			return false
		}
	}
	return routeValuesMatch(n.routeValues, rd.Values, n.preserved)
}

func routeValuesMatch(nodeValues, requestValues routing.RouteValues, preserved []string) bool {
	skip := func(k string) bool {
		return slices.ContainsFunc(preserved, func(p string) bool { return strings.EqualFold(p, k) })
	}
	for k, v := range nodeValues {
		if skip(k) {
			continue
		}
		if !strings.EqualFold(v, requestValues.Value(k)) {
			return false
		}
	}
	for k, v := range requestValues {
		if skip(k) {
			continue
		}
		if !strings.EqualFold(v, nodeValues.Value(k)) {
			return false
		}
	}
	return true
}

// RouteData matches the node's own URL against the router. Results are
// cached on the request attached to ctx; misses are not cached. External
// and URL-less nodes have no route data.
func (n *Node) RouteData(ctx context.Context) *routing.RouteData {
	router := n.sm.router
	if router == nil {
		return nil
	}
	u := n.URL(ctx)
	if u == "" {
		return nil
	}
	req := RequestFromContext(ctx)
	if urlpath.IsAbsoluteURL(u) {
		host := ""
		if req != nil {
			host = req.Host
		}
		if urlpath.IsExternalURL(u, host) {
			return nil
		}
		parsed, err := url.Parse(u)
		if err != nil {
			return nil
		}
		u = parsed.RequestURI()
	}
	method := n.httpMethod
	if method == "" {
		method = "*"
	}
	if req != nil {
		return req.routeDataFor(router, u, method)
	}
	rd, ok := router.Match(u, method)
	if !ok {
		return nil
	}
	return rd
}
