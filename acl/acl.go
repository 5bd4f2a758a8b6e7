package acl

import (
	"context"
	"fmt"

	"github.com/jonwraymond/navkit/observe"
	"github.com/jonwraymond/navkit/sitemap"
)

// Option configures an ACL.
type Option func(*ACL)

// WithIndeterminate sets whether nodes no module could decide are accessible.
// The default is true.
func WithIndeterminate(accessible bool) Option {
	return func(a *ACL) { a.indeterminate = accessible }
}

// WithLogger sets the logger used to report panicking modules.
func WithLogger(l observe.Logger) Option {
	return func(a *ACL) {
		if l != nil {
			a.logger = l
		}
	}
}

// ACL runs modules in order. The first Denied decision wins; otherwise any
// Authorized decision grants access; otherwise the indeterminate policy
// applies.
type ACL struct {
	modules       []Module
	indeterminate bool
	logger        observe.Logger
}

// New creates an ACL over modules.
func New(modules []Module, opts ...Option) (*ACL, error) {
	for i, m := range modules {
		if m == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilModule, i)
		}
	}
	a := &ACL{
		modules:       append([]Module(nil), modules...),
		indeterminate: true,
		logger:        observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Decide returns the combined decision of all modules.
func (a *ACL) Decide(ctx context.Context, sm *sitemap.SiteMap, node *sitemap.Node) Decision {
	result := Indeterminate
	for _, m := range a.modules {
		switch a.decide(ctx, m, sm, node) {
		case Denied:
			return Denied
		case Authorized:
			result = Authorized
		}
	}
	return result
}

// IsAccessibleToUser implements sitemap.ACLModule.
func (a *ACL) IsAccessibleToUser(ctx context.Context, sm *sitemap.SiteMap, node *sitemap.Node) bool {
	switch a.Decide(ctx, sm, node) {
	case Authorized:
		return true
	case Denied:
		return false
	default:
		return a.indeterminate
	}
}

func (a *ACL) decide(ctx context.Context, m Module, sm *sitemap.SiteMap, node *sitemap.Node) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error(ctx, "acl module panicked",
				observe.F("module", m.Name()),
				observe.F("node", node.Key()),
				observe.F("panic", fmt.Sprint(r)),
			)
			d = Denied
		}
	}()
	return m.Decide(ctx, sm, node)
}

var _ sitemap.ACLModule = (*ACL)(nil)
