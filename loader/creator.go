package loader

import (
	"context"

	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/sitemap"
)

// Creator builds SiteMaps from builder sets with shared collaborators.
type Creator struct {
	Router       routing.Router
	URLResolvers *sitemap.URLResolverStrategy
	Visibility   *sitemap.VisibilityStrategy
	ACL          sitemap.ACLModule
}

// CreateSiteMap creates a SiteMap for set and builds it. A map whose build
// fails is cleared and not returned.
func (c *Creator) CreateSiteMap(ctx context.Context, cacheKey string, set BuilderSet) (*sitemap.SiteMap, error) {
	sm, err := sitemap.New(sitemap.Config{
		Builder:      set.Builder,
		Router:       c.Router,
		URLResolvers: c.URLResolvers,
		Visibility:   c.Visibility,
		ACL:          c.ACL,
		Settings:     set.Settings,
		CacheKey:     cacheKey,
	})
	if err != nil {
		return nil, err
	}
	if _, err := sm.BuildSiteMap(ctx); err != nil {
		_ = sm.Clear()
		return nil, err
	}
	return sm, nil
}
