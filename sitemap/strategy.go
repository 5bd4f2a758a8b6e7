package sitemap

import (
	"context"
	"strings"

	"github.com/jonwraymond/navkit/routing"
)

// URLResolver computes the URL of a node that has no explicit URL.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: resolution failures are reported as "", which leaves the node
//   without a URL.
type URLResolver interface {
	// Name identifies the resolver; nodes select it by name.
	Name() string

	// ResolveURL returns the root-relative (or absolute) URL of node.
	ResolveURL(ctx context.Context, node *Node, area, controller, action string, values routing.RouteValues) string
}

// URLResolverStrategy selects a URLResolver by name; the first resolver
// whose name matches wins. Unknown or empty names use the default.
type URLResolverStrategy struct {
	resolvers []URLResolver
	fallback  URLResolver
}

// NewURLResolverStrategy creates a strategy. fallback handles nodes that name
// no resolver or an unknown one; it may be nil.
func NewURLResolverStrategy(fallback URLResolver, resolvers ...URLResolver) *URLResolverStrategy {
	return &URLResolverStrategy{resolvers: resolvers, fallback: fallback}
}

// Resolver returns the resolver for name.
func (s *URLResolverStrategy) Resolver(name string) URLResolver {
	if s == nil {
		return nil
	}
	if name != "" {
		for _, r := range s.resolvers {
			if strings.EqualFold(r.Name(), name) {
				return r
			}
		}
	}
	return s.fallback
}

// ResolveURL resolves node with the resolver named by providerName.
func (s *URLResolverStrategy) ResolveURL(ctx context.Context, providerName string, node *Node, area, controller, action string, values routing.RouteValues) string {
	r := s.Resolver(providerName)
	if r == nil {
		return ""
	}
	return r.ResolveURL(ctx, node, area, controller, action, values)
}

// RouteURLResolver resolves node URLs through a routing.Router.
//
// Preserved route parameters missing from the node are copied from the
// current request's route values.
type RouteURLResolver struct {
	Router routing.Router
}

// DefaultURLResolverName is the name of RouteURLResolver.
const DefaultURLResolverName = "route"

// Name implements URLResolver.
func (r *RouteURLResolver) Name() string { return DefaultURLResolverName }

// ResolveURL implements URLResolver.
func (r *RouteURLResolver) ResolveURL(ctx context.Context, node *Node, area, controller, action string, values routing.RouteValues) string {
	if r == nil || r.Router == nil {
		return ""
	}
	vals := values.Clone()
	if area != "" {
		vals[routing.KeyArea] = area
	}
	if controller != "" {
		vals[routing.KeyController] = controller
	}
	if action != "" {
		vals[routing.KeyAction] = action
	}
	if req := RequestFromContext(ctx); req != nil && node != nil {
		if rd := req.matchedRoute(r.Router); rd != nil {
			for _, p := range node.PreservedRouteParameters() {
				if _, ok := vals.Get(p); ok {
					continue
				}
				if v, ok := rd.Values.Get(p); ok {
					vals[strings.ToLower(p)] = v
				}
			}
		}
	}
	routeName := ""
	if node != nil {
		routeName = node.Route()
	}
	u, ok := r.Router.URL(routeName, vals)
	if !ok {
		return ""
	}
	return u
}

// VisibilityProvider decides whether a node is shown in a given context.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a panic is treated as "not visible".
type VisibilityProvider interface {
	Name() string
	IsVisible(ctx context.Context, node *Node, metadata map[string]any) bool
}

// VisibilityStrategy selects a VisibilityProvider by name.
type VisibilityStrategy struct {
	providers   []VisibilityProvider
	defaultName string
}

// NewVisibilityStrategy creates a strategy. defaultName names the provider
// used for nodes that do not select one; it may be empty.
func NewVisibilityStrategy(defaultName string, providers ...VisibilityProvider) *VisibilityStrategy {
	return &VisibilityStrategy{providers: providers, defaultName: defaultName}
}

// IsVisible runs the provider named by providerName. Nodes without a
// provider are visible.
func (s *VisibilityStrategy) IsVisible(ctx context.Context, providerName string, node *Node, metadata map[string]any) (visible bool) {
	if s == nil {
		return true
	}
	if providerName == "" {
		providerName = s.defaultName
	}
	if providerName == "" {
		return true
	}
	for _, p := range s.providers {
		if !strings.EqualFold(p.Name(), providerName) {
			continue
		}
		defer func() {
			if r := recover(); r != nil {
				visible = false
			}
		}()
		return p.IsVisible(ctx, node, metadata)
	}
	return true
}

// ACLModule decides whether the current user may reach a node.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a panic is treated as "not accessible".
type ACLModule interface {
	IsAccessibleToUser(ctx context.Context, sm *SiteMap, node *Node) bool
}

// ACLModuleFunc adapts a function to ACLModule.
type ACLModuleFunc func(ctx context.Context, sm *SiteMap, node *Node) bool

// IsAccessibleToUser implements ACLModule.
func (f ACLModuleFunc) IsAccessibleToUser(ctx context.Context, sm *SiteMap, node *Node) bool {
	return f(ctx, sm, node)
}

// Builder populates a SiteMap.
//
// Contract:
// - Ownership: the builder has exclusive access to sm for the duration of the call.
// - Errors: structural problems are returned as typed errors (see IsStructural).
type Builder interface {
	BuildSiteMap(ctx context.Context, sm *SiteMap, rootKeyHint string) (*Node, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, sm *SiteMap, rootKeyHint string) (*Node, error)

// BuildSiteMap implements Builder.
func (f BuilderFunc) BuildSiteMap(ctx context.Context, sm *SiteMap, rootKeyHint string) (*Node, error) {
	return f(ctx, sm, rootKeyHint)
}

var (
	_ URLResolver = (*RouteURLResolver)(nil)
	_ ACLModule   = ACLModuleFunc(nil)
	_ Builder     = BuilderFunc(nil)
)
