// Package visibility provides sitemap.VisibilityProvider implementations.
//
// FilteredProvider shows or hides a node per rendering helper, driven by the
// node's "visibility" attribute. ExpressionProvider evaluates a boolean
// expr-lang expression stored in the node's "visibleWhen" attribute against
// the node, the request, the current identity and the caller's metadata.
package visibility
