package health

import (
	"context"
	"time"

	"github.com/jonwraymond/navkit/sitemap"
)

// SiteMapGetter is the part of loader.SiteMapLoader the checker needs.
type SiteMapGetter interface {
	GetSiteMap(ctx context.Context, cacheKey string) (*sitemap.SiteMap, error)
}

// SiteMapChecker reports whether the sitemap for one cache key builds.
// The first check pays for the build; later checks hit the cache until the
// entry is released or expires.
type SiteMapChecker struct {
	name     string
	loader   SiteMapGetter
	cacheKey string

	// SlowThreshold marks the check degraded when getting the sitemap takes
	// longer. Zero disables it.
	SlowThreshold time.Duration
}

// NewSiteMapChecker creates a checker named name for cacheKey. An empty
// name defaults to "sitemap".
func NewSiteMapChecker(name string, loader SiteMapGetter, cacheKey string) *SiteMapChecker {
	if name == "" {
		name = "sitemap"
	}
	return &SiteMapChecker{name: name, loader: loader, cacheKey: cacheKey, SlowThreshold: 2 * time.Second}
}

// Name implements Checker.
func (c *SiteMapChecker) Name() string { return c.name }

// Check implements Checker.
func (c *SiteMapChecker) Check(ctx context.Context) Result {
	start := time.Now()
	sm, err := c.loader.GetSiteMap(ctx, c.cacheKey)
	if err != nil {
		return Unhealthy("sitemap build failed", err)
	}

	elapsed := time.Since(start)
	details := map[string]any{"cache_key": sm.CacheKey(), "nodes": sm.Len()}
	if root := sm.RootNode(); root != nil {
		details["root"] = root.Key()
	}
	if c.SlowThreshold > 0 && elapsed > c.SlowThreshold {
		return Degraded("sitemap slow to load").WithDetails(details)
	}
	return Healthy("sitemap loaded").WithDetails(details)
}

var _ Checker = (*SiteMapChecker)(nil)
