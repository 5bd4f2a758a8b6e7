package visibility

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/sitemap"
)

// ExpressionProviderName is the name nodes use to select ExpressionProvider.
const ExpressionProviderName = "expression"

// ExpressionAttribute holds the expression read by ExpressionProvider.
const ExpressionAttribute = "visibleWhen"

// NodeEnv is the "node" variable of a visibility expression.
type NodeEnv struct {
	Key         string            `expr:"key"`
	Title       string            `expr:"title"`
	Area        string            `expr:"area"`
	Controller  string            `expr:"controller"`
	Action      string            `expr:"action"`
	URL         string            `expr:"url"`
	Depth       int               `expr:"depth"`
	Attributes  map[string]string `expr:"attributes"`
	RouteValues map[string]string `expr:"routeValues"`
}

// UserEnv is the "user" variable of a visibility expression.
type UserEnv struct {
	Name          string   `expr:"name"`
	Roles         []string `expr:"roles"`
	Authenticated bool     `expr:"authenticated"`
}

// RequestEnv is the "request" variable of a visibility expression.
type RequestEnv struct {
	Host   string `expr:"host"`
	URL    string `expr:"url"`
	Method string `expr:"method"`
}

// Env is the evaluation environment of a visibility expression.
type Env struct {
	Node     NodeEnv        `expr:"node"`
	User     UserEnv        `expr:"user"`
	Request  RequestEnv     `expr:"request"`
	Metadata map[string]any `expr:"metadata"`
}

type compiled struct {
	program *vm.Program
	err     error
}

// ExpressionProvider evaluates the node's "visibleWhen" attribute, e.g.
//
//	"admins" in user.roles && metadata.helper != "SiteMapPathHelper"
//
// Nodes without an expression are visible. Expressions that fail to compile
// or evaluate hide the node. Compiled programs are cached by source text.
type ExpressionProvider struct {
	programs *xsync.MapOf[string, compiled]
}

// NewExpressionProvider creates a provider with an empty program cache.
func NewExpressionProvider() *ExpressionProvider {
	return &ExpressionProvider{programs: xsync.NewMapOf[string, compiled]()}
}

// Name implements sitemap.VisibilityProvider.
func (p *ExpressionProvider) Name() string { return ExpressionProviderName }

// IsVisible implements sitemap.VisibilityProvider.
func (p *ExpressionProvider) IsVisible(ctx context.Context, node *sitemap.Node, metadata map[string]any) bool {
	src, ok := node.Attribute(ExpressionAttribute)
	if !ok || src == "" {
		return true
	}
	visible, err := p.Evaluate(ctx, src, node, metadata)
	return err == nil && visible
}

// Compile compiles src, using the cache.
func (p *ExpressionProvider) Compile(src string) (*vm.Program, error) {
	c, _ := p.programs.LoadOrCompute(src, func() compiled {
		prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return compiled{err: fmt.Errorf("%w: %q: %w", ErrCompile, src, err)}
		}
		return compiled{program: prog}
	})
	return c.program, c.err
}

// Evaluate runs src against node in the context of the current request.
func (p *ExpressionProvider) Evaluate(ctx context.Context, src string, node *sitemap.Node, metadata map[string]any) (bool, error) {
	prog, err := p.Compile(src)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(prog, NewEnv(ctx, node, metadata))
	if err != nil {
		return false, fmt.Errorf("%w: %q: %w", ErrEval, src, err)
	}
	visible, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrEval, src, out)
	}
	return visible, nil
}

// NewEnv builds the evaluation environment for node.
func NewEnv(ctx context.Context, node *sitemap.Node, metadata map[string]any) Env {
	env := Env{
		Node: NodeEnv{
			Key:         node.Key(),
			Title:       node.Title(),
			Area:        node.Area(),
			Controller:  node.Controller(),
			Action:      node.Action(),
			URL:         node.URL(ctx),
			Depth:       len(node.Ancestors()),
			Attributes:  node.Attributes(),
			RouteValues: node.RouteValues(),
		},
		Metadata: metadata,
	}
	if env.Metadata == nil {
		env.Metadata = map[string]any{}
	}
	if id := auth.IdentityFromContext(ctx); id != nil {
		env.User = UserEnv{
			Name:          id.Principal,
			Roles:         id.Roles,
			Authenticated: !id.IsAnonymous(),
		}
	}
	if req := sitemap.RequestFromContext(ctx); req != nil {
		env.Request = RequestEnv{Host: req.Host, URL: req.URL, Method: req.Method}
	}
	return env
}

var _ sitemap.VisibilityProvider = (*ExpressionProvider)(nil)
