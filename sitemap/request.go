package sitemap

import (
	"context"
	"strings"
	"sync"

	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/urlpath"
)

// Request is the per-request state consulted by request-dependent lookups.
//
// A Request is owned by a single request; it must not be shared between
// concurrent requests. The route cache it carries is guarded anyway so that
// handlers fanning out within one request stay safe.
type Request struct {
	// Host is the public-facing host name of the request.
	Host string

	// URL is the root-relative URL including the query string.
	URL string

	// Method is the HTTP method.
	Method string

	// RouteData is the route matched for this request. When nil it is
	// computed on demand from URL and Method.
	RouteData *routing.RouteData

	mu         sync.Mutex
	routeCache map[string]*routing.RouteData
	current    *currentNodeMemo
}

type currentNodeMemo struct {
	sm   *SiteMap
	node *Node
}

type requestKey struct{}

// NewRequest creates a Request.
func NewRequest(host, rawURL, method string) *Request {
	if method == "" {
		method = "GET"
	}
	return &Request{
		Host:   urlpath.NormalizeHost(host),
		URL:    rawURL,
		Method: strings.ToUpper(method),
	}
}

// WithRequest attaches r to ctx.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFromContext returns the Request attached to ctx, or nil.
func RequestFromContext(ctx context.Context) *Request {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(requestKey{}).(*Request)
	return r
}

// routeDataFor returns the cached route match for a node URL. Misses are not
// cached so that a later router change within the request is observed.
func (r *Request) routeDataFor(router routing.Router, nodeURL, method string) *routing.RouteData {
	r.mu.Lock()
	if rd, ok := r.routeCache[nodeURL]; ok {
		r.mu.Unlock()
		return rd
	}
	r.mu.Unlock()

	rd, ok := router.Match(nodeURL, method)
	if !ok || rd == nil {
		return nil
	}

	r.mu.Lock()
	if r.routeCache == nil {
		r.routeCache = make(map[string]*routing.RouteData)
	}
	r.routeCache[nodeURL] = rd
	r.mu.Unlock()
	return rd
}

// matchedRoute returns the request's own route data, matching lazily.
func (r *Request) matchedRoute(router routing.Router) *routing.RouteData {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RouteData != nil || router == nil {
		return r.RouteData
	}
	p, _ := urlpath.SplitQuery(r.URL)
	if rd, ok := router.Match(p, r.Method); ok {
		r.RouteData = rd
	}
	return r.RouteData
}

func (r *Request) cachedCurrent(sm *SiteMap) (*Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.sm == sm {
		return r.current.node, true
	}
	return nil, false
}

func (r *Request) storeCurrent(sm *SiteMap, n *Node) {
	r.mu.Lock()
	r.current = &currentNodeMemo{sm: sm, node: n}
	r.mu.Unlock()
}
