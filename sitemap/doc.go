// Package sitemap provides the navigation tree: SiteMap, the aggregate that
// owns every Node, and the lookup and matching operations run against it per
// request.
//
// # Ownership
//
// A SiteMap stores its nodes in an index-addressable table. Parent/child
// links are index pairs held by the SiteMap, never pointers between nodes;
// a Node only keeps a non-owning reference back to its SiteMap.
//
// # Lifecycle
//
// A SiteMap is mutable while its Builder runs. BuildSiteMap runs the builder
// once and then marks the map read-only; after that every mutator (AddNode,
// RemoveNode, Clear and all Node setters) returns ErrReadOnly. A built map is
// safe for concurrent readers.
//
// # Request scope
//
// Operations that depend on the incoming request (current node, route
// matching against the request host, security trimming) read a *Request
// attached to the context with WithRequest.
package sitemap
