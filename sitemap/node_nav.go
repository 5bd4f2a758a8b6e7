package sitemap

import "context"

// ParentNode returns the parent, or nil for the root and detached nodes.
func (n *Node) ParentNode() *Node {
	if n.idx < 0 {
		return nil
	}
	p, ok := n.sm.parentOf[n.idx]
	if !ok {
		return nil
	}
	return n.sm.nodes[p]
}

// ChildNodes returns the children in insertion order.
func (n *Node) ChildNodes() []*Node {
	if n.idx < 0 {
		return nil
	}
	idxs := n.sm.childrenOf[n.idx]
	out := make([]*Node, 0, len(idxs))
	for _, c := range idxs {
		out = append(out, n.sm.nodes[c])
	}
	return out
}

// HasChildNodes reports whether the node has children.
func (n *Node) HasChildNodes() bool {
	return n.idx >= 0 && len(n.sm.childrenOf[n.idx]) > 0
}

// IsRootNode reports whether the node is the root of its map.
func (n *Node) IsRootNode() bool {
	return n.idx >= 0 && n.idx == n.sm.root
}

// Ancestors returns the chain from the parent up to the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.ParentNode(); p != nil; p = p.ParentNode() {
		out = append(out, p)
	}
	return out
}

// Descendants returns every node below n, depth-first.
func (n *Node) Descendants() []*Node {
	if n.idx < 0 {
		return nil
	}
	var out []*Node
	n.sm.walk(n.idx, func(d *Node) bool {
		if d != n {
			out = append(out, d)
		}
		return true
	})
	return out
}

// IsDescendantOf reports whether ancestor is above n.
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	if ancestor == nil {
		return false
	}
	for p := n.ParentNode(); p != nil; p = p.ParentNode() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// IsInCurrentPath reports whether n is the current node or one of its
// ancestors.
func (n *Node) IsInCurrentPath(ctx context.Context) bool {
	current := n.sm.CurrentNode(ctx)
	if current == nil {
		return false
	}
	return current == n || current.IsDescendantOf(n)
}

// IsAccessibleToUser asks the ACL module whether the current user may reach
// the node. Without security trimming every node is accessible. A panicking
// module denies access.
func (n *Node) IsAccessibleToUser(ctx context.Context) (ok bool) {
	sm := n.sm
	if !sm.settings.SecurityTrimmingEnabled || sm.acl == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return sm.acl.IsAccessibleToUser(ctx, sm, n)
}

// IsVisible asks the node's visibility provider whether it is shown. With
// VisibilityAffectsDescendants a hidden ancestor hides the node too.
func (n *Node) IsVisible(ctx context.Context, metadata map[string]any) bool {
	if !n.sm.visibility.IsVisible(ctx, n.visibilityProvider, n, metadata) {
		return false
	}
	if n.sm.settings.VisibilityAffectsDescendants {
		if p := n.ParentNode(); p != nil {
			return p.IsVisible(ctx, metadata)
		}
	}
	return true
}
