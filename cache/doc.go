// Package cache provides the get-or-add cache used to hold built sitemaps.
//
// MicroCache guarantees that the load function for a key runs at most once
// even under concurrent first access. Storage is pluggable through the
// Storage interface; MemoryStorage is the in-process backend with absolute
// and sliding expiration. Entries can be tied to Dependencies (a watched
// file, a Redis invalidation channel, a manual trigger) that evict them when
// they change.
package cache
