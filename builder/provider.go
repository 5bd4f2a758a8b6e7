package builder

import (
	"context"
	"fmt"
)

// NodeProvider produces the relations of one node source.
//
// Contract:
// - Concurrency: called once per build, from the building goroutine.
// - Errors: returned errors abort the build.
type NodeProvider interface {
	GetNodes(ctx context.Context, helper *NodeHelper) ([]Relation, error)
}

// NodeProviderFunc adapts a function to NodeProvider.
type NodeProviderFunc func(ctx context.Context, helper *NodeHelper) ([]Relation, error)

// GetNodes implements NodeProvider.
func (f NodeProviderFunc) GetNodes(ctx context.Context, helper *NodeHelper) ([]Relation, error) {
	return f(ctx, helper)
}

// CompositeProvider concatenates the relations of its providers in order.
type CompositeProvider []NodeProvider

// GetNodes implements NodeProvider.
func (c CompositeProvider) GetNodes(ctx context.Context, helper *NodeHelper) ([]Relation, error) {
	var out []Relation
	for i, p := range c {
		if p == nil {
			return nil, fmt.Errorf("%w: composite entry %d", ErrNilProvider, i)
		}
		rels, err := p.GetNodes(ctx, helper)
		if err != nil {
			return nil, err
		}
		out = append(out, rels...)
	}
	return out, nil
}

// StaticProvider serves node definitions declared in code.
type StaticProvider struct {
	// Name is reported as the relations' source.
	Name string

	// Nodes are the top-level definitions. A definition without ParentKey
	// is a root candidate.
	Nodes []Definition
}

// GetNodes implements NodeProvider.
func (p *StaticProvider) GetNodes(ctx context.Context, helper *NodeHelper) ([]Relation, error) {
	name := p.Name
	if name == "" {
		name = "static"
	}
	return definitionsToRelations(ctx, helper, name, p.Nodes)
}

var (
	_ NodeProvider = NodeProviderFunc(nil)
	_ NodeProvider = CompositeProvider(nil)
	_ NodeProvider = (*StaticProvider)(nil)
)
