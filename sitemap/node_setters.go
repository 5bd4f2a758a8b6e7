package sitemap

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jonwraymond/navkit/routing"
)

func (n *Node) mutate(fn func() error) error {
	if n.sm.IsReadOnly() {
		return ErrReadOnly
	}
	return fn()
}

// mutateURL applies fn and re-indexes the node's URL key. On a URL
// collision the node is restored and the index is left untouched.
func (n *Node) mutateURL(fn func() error) error {
	if n.sm.IsReadOnly() {
		return ErrReadOnly
	}
	saved := *n
	n.resolvedURL = ""
	if err := fn(); err != nil {
		*n = saved
		return err
	}
	if err := n.sm.reindexURL(n); err != nil {
		*n = saved
		return err
	}
	return nil
}

// SetTitle sets the display title.
func (n *Node) SetTitle(v string) error {
	return n.mutate(func() error { n.title = v; return nil })
}

// SetDescription sets the description.
func (n *Node) SetDescription(v string) error {
	return n.mutate(func() error { n.description = v; return nil })
}

// SetTargetFrame sets the link target.
func (n *Node) SetTargetFrame(v string) error {
	return n.mutate(func() error { n.targetFrame = v; return nil })
}

// SetImageURL sets the image URL.
func (n *Node) SetImageURL(v string) error {
	return n.mutate(func() error { n.imageURL = v; return nil })
}

// SetOrder sets the sort position among siblings.
func (n *Node) SetOrder(v int) error {
	return n.mutate(func() error { n.order = v; return nil })
}

// SetHTTPMethod restricts route matching to one method; "*" or "" allows any.
func (n *Node) SetHTTPMethod(v string) error {
	return n.mutate(func() error {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			v = "*"
		}
		n.httpMethod = v
		return nil
	})
}

// SetRoute sets the route name used for URL resolution and matching.
func (n *Node) SetRoute(v string) error {
	return n.mutateURL(func() error { n.route = v; return nil })
}

// SetArea sets the "area" route value.
func (n *Node) SetArea(v string) error {
	return n.SetRouteValue(routing.KeyArea, v)
}

// SetController sets the "controller" route value.
func (n *Node) SetController(v string) error {
	return n.SetRouteValue(routing.KeyController, v)
}

// SetAction sets the "action" route value.
func (n *Node) SetAction(v string) error {
	return n.SetRouteValue(routing.KeyAction, v)
}

// SetRouteValue sets one route value; an empty value removes it.
func (n *Node) SetRouteValue(key, value string) error {
	return n.mutateURL(func() error {
		vals := n.routeValues.Clone()
		k := strings.ToLower(key)
		if value == "" {
			delete(vals, k)
		} else {
			vals[k] = value
		}
		n.routeValues = vals
		return nil
	})
}

// SetRouteValues replaces all route values.
func (n *Node) SetRouteValues(values routing.RouteValues) error {
	return n.mutateURL(func() error {
		vals := values.Clone()
		for k, v := range vals {
			if v == "" {
				delete(vals, k)
			}
		}
		n.routeValues = vals
		return nil
	})
}

// SetPreservedRouteParameters sets the route values copied from the current request.
func (n *Node) SetPreservedRouteParameters(params []string) error {
	return n.mutateURL(func() error {
		out := make([]string, 0, len(params))
		for _, p := range params {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				out = append(out, p)
			}
		}
		n.preserved = out
		return nil
	})
}

// SetURL sets the explicit URL. A non-empty value bypasses URL resolution
// and clears any resolved URL.
func (n *Node) SetURL(v string) error {
	return n.mutateURL(func() error {
		n.unresolvedURL = strings.TrimSpace(v)
		n.resolvedURL = ""
		return nil
	})
}

// SetHostName sets the host used for absolute URLs and re-indexes the node.
func (n *Node) SetHostName(v string) error {
	return n.mutateURL(func() error { n.hostName = strings.TrimSpace(v); return nil })
}

// SetProtocol sets the scheme used for absolute URLs.
func (n *Node) SetProtocol(v string) error {
	return n.mutateURL(func() error { n.protocol = strings.ToLower(strings.TrimSpace(v)); return nil })
}

// SetClickable marks whether the node links anywhere.
func (n *Node) SetClickable(v bool) error {
	return n.mutateURL(func() error { n.clickable = v; return nil })
}

// SetCacheResolvedURL controls whether resolved URLs are stored on the node.
func (n *Node) SetCacheResolvedURL(v bool) error {
	return n.mutate(func() error {
		n.cacheResolvedURL = v
		if !v {
			n.resolvedURL = ""
		}
		return nil
	})
}

// SetURLResolver selects a URL resolver by name.
func (n *Node) SetURLResolver(v string) error {
	return n.mutateURL(func() error { n.urlResolver = v; return nil })
}

// ResolveURL computes the node's URL with its resolver and stores it when
// CacheResolvedURL is set. Nodes with an explicit URL are left unchanged.
func (n *Node) ResolveURL(ctx context.Context) error {
	if n.unresolvedURL != "" || !n.CacheResolvedURL() {
		return n.mutate(func() error { return nil })
	}
	return n.mutateURL(func() error {
		n.resolvedURL = n.sm.resolveURL(ctx, n)
		return nil
	})
}

// SetCanonicalKey points the canonical link at another node. It fails when
// a canonical URL is already set.
func (n *Node) SetCanonicalKey(v string) error {
	return n.mutate(func() error {
		if v != "" && n.canonicalURL != "" {
			return ErrCanonicalConflict
		}
		n.canonicalKey = v
		return nil
	})
}

// SetCanonicalURL sets the canonical link URL. It fails when a canonical
// key is already set.
func (n *Node) SetCanonicalURL(v string) error {
	return n.mutate(func() error {
		if v != "" && n.canonicalKey != "" {
			return ErrCanonicalConflict
		}
		n.canonicalURL = v
		return nil
	})
}

// SetMetaRobotsValues sets the robots meta values. Unknown values are rejected.
func (n *Node) SetMetaRobotsValues(values []string) error {
	return n.mutate(func() error {
		v, err := validateMetaRobots(values)
		if err != nil {
			return err
		}
		n.metaRobots = v
		return nil
	})
}

// SetChangeFrequency sets the sitemaps.org change frequency.
func (n *Node) SetChangeFrequency(v ChangeFrequency) error {
	return n.mutate(func() error { n.changeFrequency = v; return nil })
}

// SetUpdatePriority sets the sitemaps.org priority.
func (n *Node) SetUpdatePriority(v UpdatePriority) error {
	return n.mutate(func() error {
		if v != PriorityUndefined && (v < 0 || v > 10) {
			return ErrInvalidPriority
		}
		n.updatePriority = v
		return nil
	})
}

// SetLastModified sets when the page last changed.
func (n *Node) SetLastModified(v time.Time) error {
	return n.mutate(func() error { n.lastModified = v; return nil })
}

// SetVisibilityProvider selects a visibility provider by name.
func (n *Node) SetVisibilityProvider(v string) error {
	return n.mutate(func() error { n.visibilityProvider = v; return nil })
}

// SetAttribute sets a custom attribute; an empty value removes it.
func (n *Node) SetAttribute(name, value string) error {
	return n.mutate(func() error {
		attrs := maps.Clone(n.attributes)
		if attrs == nil {
			attrs = make(map[string]string)
		}
		if value == "" {
			delete(attrs, name)
		} else {
			attrs[name] = value
		}
		n.attributes = attrs
		return nil
	})
}

// SetRoles sets the roles allowed to see the node.
func (n *Node) SetRoles(roles []string) error {
	return n.mutate(func() error { n.roles = slices.Clone(roles); return nil })
}
