package auth

import (
	"context"
	"path"
	"strings"
)

// RBACConfig configures RBACAuthorizer.
type RBACConfig struct {
	// Roles defines role configurations, keyed case-insensitively.
	Roles map[string]RoleConfig `yaml:"roles" mapstructure:"roles"`

	// DefaultRole applies to identities without roles, anonymous included.
	DefaultRole string `yaml:"defaultRole" mapstructure:"defaultRole"`
}

// RoleConfig grants or denies navigation targets to a role.
//
// Targets are "area/controller/action" patterns; each segment is a glob
// ("*" or "admin*"), and missing trailing segments match anything, so
// "admin" covers the whole admin area and "/home" covers the Home
// controller outside any area. Deny rules from any held role win.
type RoleConfig struct {
	Allow []string `yaml:"allow" mapstructure:"allow"`
	Deny  []string `yaml:"deny" mapstructure:"deny"`

	// Methods restricts Allow to these HTTP methods. Empty means any.
	Methods []string `yaml:"methods" mapstructure:"methods"`

	// Inherits lists roles this role inherits from.
	Inherits []string `yaml:"inherits" mapstructure:"inherits"`
}

// RBACAuthorizer provides role-based access to navigation targets.
type RBACAuthorizer struct {
	roles       map[string]RoleConfig
	defaultRole string
}

// NewRBACAuthorizer creates a new RBAC authorizer.
func NewRBACAuthorizer(config RBACConfig) *RBACAuthorizer {
	roles := make(map[string]RoleConfig, len(config.Roles))
	for name, rc := range config.Roles {
		roles[strings.ToLower(name)] = rc
	}
	return &RBACAuthorizer{roles: roles, defaultRole: strings.ToLower(config.DefaultRole)}
}

// Name returns "rbac".
func (a *RBACAuthorizer) Name() string {
	return "rbac"
}

// Authorize checks whether any role held by the subject reaches the target.
func (a *RBACAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	roles := a.collectRoles(req.Subject)
	if len(roles) == 0 {
		return deny(req, "no roles")
	}

	target := splitTarget(req.Target())
	allowed := false
	for _, name := range roles {
		rc := a.roles[name]
		for _, p := range rc.Deny {
			if matchTarget(p, target) {
				return deny(req, "denied by role "+name)
			}
		}
		if allowed || !methodAllowed(rc.Methods, req.Method) {
			continue
		}
		for _, p := range rc.Allow {
			if matchTarget(p, target) {
				allowed = true
				break
			}
		}
	}
	if !allowed {
		return deny(req, "no role permits this target")
	}
	return nil
}

// collectRoles expands inherited roles breadth-first, ignoring cycles and
// roles that are not configured.
func (a *RBACAuthorizer) collectRoles(id *Identity) []string {
	var queue []string
	if id != nil {
		queue = append(queue, id.Roles...)
	}
	if len(queue) == 0 && a.defaultRole != "" {
		queue = append(queue, a.defaultRole)
	}

	seen := make(map[string]bool)
	var out []string
	for len(queue) > 0 {
		name := strings.ToLower(queue[0])
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		rc, ok := a.roles[name]
		if !ok {
			continue
		}
		out = append(out, name)
		queue = append(queue, rc.Inherits...)
	}
	return out
}

func splitTarget(target string) [3]string {
	var out [3]string
	copy(out[:], strings.SplitN(target, "/", 3))
	return out
}

// matchTarget matches an "area/controller/action" glob against a target.
func matchTarget(pattern string, target [3]string) bool {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(pattern)), "/", 3)
	for i, p := range parts {
		if !matchPattern(p, target[i]) {
			return false
		}
	}
	return true
}

// matchPattern matches one glob segment. An empty pattern matches only an
// empty value.
func matchPattern(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, value)
	return err == nil && ok
}

func methodAllowed(methods []string, method string) bool {
	if len(methods) == 0 || method == "" || method == "*" {
		return true
	}
	for _, m := range methods {
		if m == "*" || strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

var _ Authorizer = (*RBACAuthorizer)(nil)
