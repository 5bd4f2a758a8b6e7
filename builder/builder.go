package builder

import (
	"context"
	"fmt"
	"slices"

	"github.com/jonwraymond/navkit/sitemap"
)

// SiteMapBuilder builds a SiteMap from a NodeProvider.
//
// Contract:
// - Ownership: BuildSiteMap has exclusive access to the SiteMap it is given.
// - Errors: *sitemap.MultipleRootsError, *sitemap.NoRootError and
//   *sitemap.OrphanedNodesError for malformed relation sets; index errors
//   from AddNode; provider and visitor errors are returned as-is.
type SiteMapBuilder struct {
	provider NodeProvider
	visitor  Visitor
}

// New creates a builder. visitor may be nil.
func New(provider NodeProvider, visitor Visitor) (*SiteMapBuilder, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if visitor == nil {
		visitor = NopVisitor{}
	}
	return &SiteMapBuilder{provider: provider, visitor: visitor}, nil
}

// BuildSiteMap implements sitemap.Builder.
//
// The root relation is attached first. Child relations are then attached in
// passes: each pass attaches every relation whose parent is already in the
// map and defers the rest. Passes repeat until one attaches nothing; any
// relation left over is an orphan. Within a parent, children keep source
// order after a stable sort by Order.
func (b *SiteMapBuilder) BuildSiteMap(ctx context.Context, sm *sitemap.SiteMap, _ string) (*sitemap.Node, error) {
	rels, err := b.provider.GetNodes(ctx, NewNodeHelper(sm))
	if err != nil {
		return nil, err
	}

	var roots, children []Relation
	for _, r := range rels {
		if r.Node == nil {
			return nil, fmt.Errorf("%w: relation from %q has no node", ErrInvalidDefinition, r.SourceName)
		}
		if r.ParentKey == "" {
			roots = append(roots, r)
		} else {
			children = append(children, r)
		}
	}

	switch len(roots) {
	case 0:
		return nil, &sitemap.NoRootError{Sources: sourcesOf(rels)}
	case 1:
	default:
		e := &sitemap.MultipleRootsError{}
		for _, r := range roots {
			e.Keys = append(e.Keys, r.Node.Key())
			e.Sources = append(e.Sources, r.SourceName)
		}
		return nil, e
	}

	root := roots[0].Node
	if err := sm.AddNode(root, nil); err != nil {
		return nil, err
	}

	slices.SortStableFunc(children, func(a, b Relation) int {
		return a.Node.Order() - b.Node.Order()
	})
	if err := attach(ctx, sm, children); err != nil {
		return nil, err
	}

	if err := b.visitor.Execute(ctx, root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVisitor, err)
	}
	return root, nil
}

// attach runs the fixed-point attachment passes.
func attach(ctx context.Context, sm *sitemap.SiteMap, pending []Relation) error {
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		deferred := pending[:0:0]
		for _, r := range pending {
			parent := sm.FindNodeByKey(r.ParentKey)
			if parent == nil {
				deferred = append(deferred, r)
				continue
			}
			if err := sm.AddNode(r.Node, parent); err != nil {
				return fmt.Errorf("source %q: %w", r.SourceName, err)
			}
		}
		if len(deferred) == len(pending) {
			e := &sitemap.OrphanedNodesError{}
			for _, r := range deferred {
				e.Orphans = append(e.Orphans, sitemap.Orphan{
					Key:       r.Node.Key(),
					ParentKey: r.ParentKey,
					Source:    r.SourceName,
				})
			}
			return e
		}
		pending = deferred
	}
	return nil
}

func sourcesOf(rels []Relation) []string {
	var out []string
	for _, r := range rels {
		if !slices.Contains(out, r.SourceName) {
			out = append(out, r.SourceName)
		}
	}
	return out
}

var _ sitemap.Builder = (*SiteMapBuilder)(nil)
