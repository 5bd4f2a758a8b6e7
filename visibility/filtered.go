package visibility

import (
	"context"
	"strings"

	"github.com/jonwraymond/navkit/sitemap"
)

// Metadata keys read by FilteredProvider.
const (
	// MetadataHelper names the rendering helper asking, e.g. "MenuHelper".
	MetadataHelper = "helper"

	// MetadataName is an optional instance name of the helper.
	MetadataName = "name"
)

// FilteredProviderName is the name nodes use to select FilteredProvider.
const FilteredProviderName = "filtered"

// VisibilityAttribute holds the filter list read by FilteredProvider.
const VisibilityAttribute = "visibility"

// FilteredProvider reads a comma- or semicolon-separated filter list from
// the node's "visibility" attribute and compares it with the helper and
// instance name in the metadata.
//
// Filters are checked in order: a filter equal to the helper, the name or
// "*" shows the node; the same prefixed with "!" hides it. A node without
// filters is visible; a node whose filters all miss is hidden.
type FilteredProvider struct{}

// Name implements sitemap.VisibilityProvider.
func (FilteredProvider) Name() string { return FilteredProviderName }

// IsVisible implements sitemap.VisibilityProvider.
func (FilteredProvider) IsVisible(_ context.Context, node *sitemap.Node, metadata map[string]any) bool {
	raw, ok := node.Attribute(VisibilityAttribute)
	if !ok || strings.TrimSpace(raw) == "" {
		return true
	}
	helper, _ := metadata[MetadataHelper].(string)
	name, _ := metadata[MetadataName].(string)

	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		f = strings.TrimSpace(f)
		negated := strings.HasPrefix(f, "!")
		f = strings.TrimPrefix(f, "!")
		if f == "*" || (helper != "" && strings.EqualFold(f, helper)) || (name != "" && strings.EqualFold(f, name)) {
			return !negated
		}
	}
	return false
}

var _ sitemap.VisibilityProvider = FilteredProvider{}
