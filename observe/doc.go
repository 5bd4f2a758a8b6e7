// Package observe provides observability primitives for sitemap builds and
// the sitemap cache.
//
// It is a pure instrumentation library: an Observer owns the OpenTelemetry
// tracer and meter providers, Metrics and Tracer record builds and cache
// traffic, and Middleware wraps a build function with all three signals.
// The loader package wires it in; nothing here builds or caches sitemaps.
package observe
