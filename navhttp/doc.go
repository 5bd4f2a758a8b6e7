// Package navhttp serves navigation over HTTP.
//
// Every request gets a sitemap.Request (host, URL, method) and an
// auth.Identity in its context before the handlers run, so menus,
// breadcrumbs and the XML sitemap are trimmed for the calling user:
//
//	GET  /nav/menu?path=/products&depth=2   JSON menu tree
//	GET  /nav/breadcrumbs?path=/products/42 JSON trail from the root
//	GET  /sitemap.xml                       sitemaps.org urlset
//	POST /nav/release                       evict the host's sitemap
//
// Health probes are mounted alongside when Config.Health is set.
package navhttp
