package builder

import (
	"context"
	"fmt"

	"github.com/jonwraymond/navkit/sitemap"
)

// Visitor runs once, on the root, after the tree is complete. It walks the
// tree itself; EachNode adapts a per-node function. The SiteMap is still
// writable while the visitor runs.
type Visitor interface {
	Execute(ctx context.Context, root *sitemap.Node) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(ctx context.Context, root *sitemap.Node) error

// Execute implements Visitor.
func (f VisitorFunc) Execute(ctx context.Context, root *sitemap.Node) error {
	return f(ctx, root)
}

// EachNode returns a Visitor that calls fn on every node of the tree,
// depth-first with parents before children, and stops at the first error.
func EachNode(fn func(ctx context.Context, node *sitemap.Node) error) Visitor {
	return VisitorFunc(func(ctx context.Context, root *sitemap.Node) error {
		nodes := append([]*sitemap.Node{root}, root.Descendants()...)
		for _, n := range nodes {
			if err := fn(ctx, n); err != nil {
				return fmt.Errorf("node %q: %w", n.Key(), err)
			}
		}
		return nil
	})
}

// NopVisitor does nothing.
type NopVisitor struct{}

// Execute implements Visitor.
func (NopVisitor) Execute(context.Context, *sitemap.Node) error { return nil }

// CompositeVisitor runs its visitors in order and stops at the first error.
type CompositeVisitor []Visitor

// Execute implements Visitor.
func (c CompositeVisitor) Execute(ctx context.Context, root *sitemap.Node) error {
	for _, v := range c {
		if err := v.Execute(ctx, root); err != nil {
			return err
		}
	}
	return nil
}

// URLResolvingVisitor pre-resolves and caches node URLs so that requests
// read them without consulting the router.
type URLResolvingVisitor struct{}

// Execute implements Visitor.
func (URLResolvingVisitor) Execute(ctx context.Context, root *sitemap.Node) error {
	return EachNode(func(ctx context.Context, n *sitemap.Node) error {
		return n.ResolveURL(ctx)
	}).Execute(ctx, root)
}

var (
	_ Visitor = VisitorFunc(nil)
	_ Visitor = NopVisitor{}
	_ Visitor = CompositeVisitor(nil)
	_ Visitor = URLResolvingVisitor{}
)
