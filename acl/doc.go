// Package acl decides which sitemap nodes the current user may reach.
//
// Modules return a tri-state Decision. RolesModule checks a node's roles
// against the request identity; AuthorizerModule asks an auth.Authorizer
// about the node's routing target. ACL composes modules into a
// sitemap.ACLModule: any denial wins, and a node no module could decide
// (typically a static URL without route data) falls back to a configurable
// policy that defaults to accessible.
package acl
