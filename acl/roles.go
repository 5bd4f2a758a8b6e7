package acl

import (
	"context"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/sitemap"
)

// RolesModule grants access from the roles declared on the node itself.
// Nodes without roles are left Indeterminate; "*" admits everybody and "?"
// any authenticated user.
type RolesModule struct{}

// Name returns "roles".
func (RolesModule) Name() string { return "roles" }

// Decide checks the request identity against node.Roles().
func (RolesModule) Decide(ctx context.Context, _ *sitemap.SiteMap, node *sitemap.Node) Decision {
	roles := node.Roles()
	if len(roles) == 0 {
		return Indeterminate
	}
	id := auth.IdentityFromContext(ctx)
	if id == nil {
		id = auth.AnonymousIdentity()
	}
	if id.InAnyRole(roles) {
		return Authorized
	}
	return Denied
}

var _ Module = RolesModule{}
