// Package loader builds, caches and releases sitemaps.
//
// A Loader maps a cache key (by default derived from the request host) to a
// BuilderSet, asks the Creator to build a SiteMap from it, and stores the
// result in a single-flight cache.MicroCache so concurrent requests for the
// same key share one build. Entries expire according to the set's
// cache.Policy or when one of its cache.Dependency values fires; releasing a
// key evicts it immediately, and RedisReleaser tells peer processes to do the
// same.
package loader
