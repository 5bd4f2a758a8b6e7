// Package auth identifies the user behind a navigation request and decides
// which navigation targets that user may reach.
//
// Authenticators (JWT bearer tokens, API keys, or a composite of both) turn
// request headers into an Identity; Middleware stores it in the request
// context. Authorizers answer whether an Identity may reach an
// area/controller/action target; RBACAuthorizer does so from role rules.
// Security trimming in the acl package consumes both.
package auth
