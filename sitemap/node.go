package sitemap

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/urlpath"
)

// Node is one navigable entry of a SiteMap.
//
// Nodes are created with SiteMap.NewNode and populated by the builder. Every
// setter returns ErrReadOnly once the owning SiteMap has been built. Setters
// that affect the node's URL re-index it in the owning SiteMap and may fail
// with a *DuplicateURLError, in which case the node is left unchanged.
type Node struct {
	sm  *SiteMap
	idx int

	key         string
	title       string
	description string
	targetFrame string
	imageURL    string
	order       int

	httpMethod  string
	route       string
	routeValues routing.RouteValues
	preserved   []string

	protocol         string
	hostName         string
	unresolvedURL    string
	resolvedURL      string
	cacheResolvedURL bool
	clickable        bool

	canonicalKey string
	canonicalURL string
	metaRobots   []string

	changeFrequency ChangeFrequency
	updatePriority  UpdatePriority
	lastModified    time.Time

	urlResolver        string
	visibilityProvider string
	attributes         map[string]string
	roles              []string
}

func newNode(sm *SiteMap, key string) *Node {
	return &Node{
		sm:               sm,
		idx:              -1,
		key:              key,
		httpMethod:       "*",
		routeValues:      routing.RouteValues{},
		clickable:        true,
		cacheResolvedURL: true,
		updatePriority:   PriorityUndefined,
	}
}

// SiteMap returns the owning SiteMap.
func (n *Node) SiteMap() *SiteMap { return n.sm }

// Key returns the node's unique key.
func (n *Node) Key() string { return n.key }

// Title returns the display title.
func (n *Node) Title() string { return n.title }

// Description returns the description. When empty and the SiteMap enables
// UseTitleIfDescriptionNotProvided, the title is returned instead.
func (n *Node) Description() string {
	if n.description == "" && n.sm.settings.UseTitleIfDescriptionNotProvided {
		return n.title
	}
	return n.description
}

// TargetFrame returns the link target, e.g. "_blank".
func (n *Node) TargetFrame() string { return n.targetFrame }

// ImageURL returns the URL of the node's image.
func (n *Node) ImageURL() string { return n.imageURL }

// Order returns the sort position among siblings.
func (n *Node) Order() int { return n.order }

// HTTPMethod returns the method the node's action accepts; "*" matches any.
func (n *Node) HTTPMethod() string { return n.httpMethod }

// Route returns the name of the route used to resolve the URL.
func (n *Node) Route() string { return n.route }

// Protocol returns the scheme of absolute URLs built for the node.
func (n *Node) Protocol() string { return n.protocol }

// HostName returns the host of absolute URLs built for the node.
func (n *Node) HostName() string { return n.hostName }

// Clickable reports whether the node links anywhere: the clickable flag is
// set and the node has an explicit URL or a routing target.
func (n *Node) Clickable() bool {
	return n.clickable && (n.unresolvedURL != "" || n.route != "" || len(n.routeValues) > 0)
}

// Area returns the "area" route value.
func (n *Node) Area() string { return n.routeValues.Value(routing.KeyArea) }

// Controller returns the "controller" route value.
func (n *Node) Controller() string { return n.routeValues.Value(routing.KeyController) }

// Action returns the "action" route value.
func (n *Node) Action() string { return n.routeValues.Value(routing.KeyAction) }

// RouteValues returns a copy of the node's route values, including area,
// controller and action.
func (n *Node) RouteValues() routing.RouteValues { return n.routeValues.Clone() }

// PreservedRouteParameters returns the names of route values copied from
// the current request and ignored when matching.
func (n *Node) PreservedRouteParameters() []string { return slices.Clone(n.preserved) }

// UnresolvedURL returns the explicitly configured URL, if any.
func (n *Node) UnresolvedURL() string { return n.unresolvedURL }

// HasExplicitURL reports whether the node has a configured URL.
func (n *Node) HasExplicitURL() bool { return n.unresolvedURL != "" }

// CacheResolvedURL reports whether a resolved URL is stored on the node.
// Nodes with preserved route parameters never cache.
func (n *Node) CacheResolvedURL() bool {
	return n.cacheResolvedURL && len(n.preserved) == 0
}

// CanonicalKey returns the key of the node this one is a duplicate of.
func (n *Node) CanonicalKey() string { return n.canonicalKey }

// CanonicalURL returns the canonical URL configured for the node.
func (n *Node) CanonicalURL() string { return n.canonicalURL }

// MetaRobotsValues returns the robots meta values, e.g. "noindex".
func (n *Node) MetaRobotsValues() []string {
	return slices.Clone(n.metaRobots)
}

// MetaRobotsContent returns the robots meta tag content, e.g. "noindex,nofollow".
func (n *Node) MetaRobotsContent() string { return strings.Join(n.metaRobots, ",") }

// ChangeFrequency returns the sitemaps.org change frequency.
func (n *Node) ChangeFrequency() ChangeFrequency { return n.changeFrequency }

// UpdatePriority returns the sitemaps.org priority.
func (n *Node) UpdatePriority() UpdatePriority { return n.updatePriority }

// LastModified returns when the page last changed. Zero means unknown.
func (n *Node) LastModified() time.Time { return n.lastModified }

// URLResolver returns the name of the URL resolver; empty selects the default.
func (n *Node) URLResolver() string { return n.urlResolver }

// VisibilityProvider returns the name of the visibility provider; empty
// selects the default.
func (n *Node) VisibilityProvider() string { return n.visibilityProvider }

// Attribute returns a custom attribute.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.attributes[name]
	return v, ok
}

// Attributes returns a copy of all custom attributes.
func (n *Node) Attributes() map[string]string { return maps.Clone(n.attributes) }

// Roles returns the roles allowed to see the node. Empty means unrestricted.
func (n *Node) Roles() []string { return slices.Clone(n.roles) }

// URL returns the node's URL: the explicit URL when configured, otherwise
// the cached resolved URL, otherwise the URL computed by the node's
// URLResolver. Non-clickable nodes have no URL.
//
// When the node sets Protocol or HostName the URL is absolute.
func (n *Node) URL(ctx context.Context) string {
	if !n.Clickable() {
		return ""
	}
	u := n.relativeURL(ctx)
	if u == "" || urlpath.IsAbsoluteURL(u) {
		return u
	}
	protocol := n.protocol
	if protocol == "*" {
		protocol = ""
	}
	if protocol == "" && n.hostName == "" {
		return u
	}
	host := n.hostName
	if host == "" {
		req := RequestFromContext(ctx)
		if req == nil || req.Host == "" {
			return u
		}
		host = req.Host
	}
	return urlpath.MakeAbsolute(protocol, host, u)
}

func (n *Node) relativeURL(ctx context.Context) string {
	if n.unresolvedURL != "" {
		return urlpath.ResolveAppRelative(n.sm.settings.AppRoot, n.unresolvedURL)
	}
	if n.resolvedURL != "" && n.CacheResolvedURL() {
		return n.resolvedURL
	}
	return n.sm.resolveURL(ctx, n)
}

// IsExternal reports whether the node's URL points at a host other than the
// current request's.
func (n *Node) IsExternal(ctx context.Context) bool {
	host := ""
	if req := RequestFromContext(ctx); req != nil {
		host = req.Host
	}
	return urlpath.IsExternalURL(n.URL(ctx), host)
}

// CanonicalTargetURL returns the URL of the canonical target, resolving a
// canonical key through the SiteMap. It is "" when neither is set.
func (n *Node) CanonicalTargetURL(ctx context.Context) string {
	switch {
	case n.canonicalURL != "":
		return urlpath.ResolveAppRelative(n.sm.settings.AppRoot, n.canonicalURL)
	case n.canonicalKey != "":
		if target := n.sm.FindNodeByKey(n.canonicalKey); target != nil {
			return target.URL(ctx)
		}
	}
	return ""
}
