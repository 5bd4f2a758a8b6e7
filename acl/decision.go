package acl

import (
	"context"

	"github.com/jonwraymond/navkit/sitemap"
)

// Decision is the outcome of an access check.
type Decision int

const (
	// Indeterminate means the module has no opinion on the node.
	Indeterminate Decision = iota
	// Authorized means the user may reach the node.
	Authorized
	// Denied means the user may not reach the node.
	Denied
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	default:
		return "indeterminate"
	}
}

// Module decides access to a single node.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: modules never return errors; a panic is treated as Denied.
type Module interface {
	Name() string
	Decide(ctx context.Context, sm *sitemap.SiteMap, node *sitemap.Node) Decision
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(ctx context.Context, sm *sitemap.SiteMap, node *sitemap.Node) Decision

// Name returns "func".
func (f ModuleFunc) Name() string { return "func" }

// Decide calls f.
func (f ModuleFunc) Decide(ctx context.Context, sm *sitemap.SiteMap, node *sitemap.Node) Decision {
	return f(ctx, sm, node)
}
