package auth

import (
	"strings"
	"time"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAPIKey    AuthMethod = "api_key"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Wildcard roles understood by InAnyRole.
const (
	// RoleEveryone matches every identity, anonymous included.
	RoleEveryone = "*"

	// RoleAuthenticated matches every non-anonymous identity.
	RoleAuthenticated = "?"
)

// Identity is the user behind a request.
type Identity struct {
	// Principal is the unique identifier (e.g., user ID, email).
	Principal string

	// Roles are the roles assigned to this identity.
	Roles []string

	// Method indicates how authentication was performed.
	Method AuthMethod

	// Claims contains the raw token claims, if any.
	Claims map[string]any

	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasRole reports whether the identity has role, ignoring case.
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// InAnyRole reports whether the identity satisfies any of roles. An empty
// list and RoleEveryone admit everybody; RoleAuthenticated admits any
// non-anonymous identity.
func (id *Identity) InAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		switch strings.TrimSpace(r) {
		case RoleEveryone:
			return true
		case RoleAuthenticated:
			if !id.IsAnonymous() {
				return true
			}
		default:
			if id.HasRole(strings.TrimSpace(r)) {
				return true
			}
		}
	}
	return false
}

// IsExpired reports whether the identity has expired.
func (id *Identity) IsExpired() bool {
	if id == nil || id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}

// IsAnonymous reports whether the identity is missing or anonymous.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity creates the identity of an unauthenticated visitor.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
		Claims:    make(map[string]any),
	}
}
