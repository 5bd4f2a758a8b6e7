package acl

import (
	"context"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/sitemap"
)

// AuthorizerModule asks an auth.Authorizer whether the user may reach the
// controller action a node points at.
//
// Non-clickable nodes and external links are always Authorized. Nodes whose
// URL does not match a route are Indeterminate.
type AuthorizerModule struct {
	Authorizer auth.Authorizer
}

// Name returns "authorizer".
func (m *AuthorizerModule) Name() string { return "authorizer" }

// Decide implements Module.
func (m *AuthorizerModule) Decide(ctx context.Context, _ *sitemap.SiteMap, node *sitemap.Node) Decision {
	if !node.Clickable() || node.IsExternal(ctx) {
		return Authorized
	}
	if m.Authorizer == nil {
		return Indeterminate
	}
	rd := node.RouteData(ctx)
	if rd == nil {
		return Indeterminate
	}

	id := auth.IdentityFromContext(ctx)
	if id == nil {
		id = auth.AnonymousIdentity()
	}
	err := m.Authorizer.Authorize(ctx, &auth.AuthzRequest{
		Subject:    id,
		Area:       rd.Values.Value(routing.KeyArea),
		Controller: rd.Values.Value(routing.KeyController),
		Action:     rd.Values.Value(routing.KeyAction),
		Method:     node.HTTPMethod(),
		Path:       node.URL(ctx),
	})
	if err != nil {
		return Denied
	}
	return Authorized
}

var _ Module = (*AuthorizerModule)(nil)
