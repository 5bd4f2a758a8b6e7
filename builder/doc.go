// Package builder assembles a sitemap.SiteMap from a flat list of
// parent-key/node relations.
//
// Node providers produce relations from declarative sources (XML, YAML) or
// from code (StaticProvider, NodeProviderFunc). SiteMapBuilder partitions
// them into the root and its descendants, attaches children to parents in a
// fixed-point loop so that source order does not matter, rejects orphans,
// and finally runs a Visitor over every node.
//
// Any structural violation aborts the whole build; there is no partial
// result.
package builder
