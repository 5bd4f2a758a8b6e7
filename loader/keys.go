package loader

import (
	"context"
	"strings"

	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/sitemap"
	"github.com/jonwraymond/navkit/urlpath"
)

// CacheKeyGenerator derives the cache key for the current request.
type CacheKeyGenerator interface {
	GenerateKey(ctx context.Context) (string, error)
}

// HostKeyGenerator keys sitemaps by the host of the request in ctx, so each
// host served by the process gets its own sitemap.
type HostKeyGenerator struct {
	keyer cache.Keyer
}

// NewHostKeyGenerator creates a generator over keyer (cache.DefaultKeyer if nil).
func NewHostKeyGenerator(keyer cache.Keyer) *HostKeyGenerator {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &HostKeyGenerator{keyer: keyer}
}

// GenerateKey implements CacheKeyGenerator. Without a request the key has an
// empty scope.
func (g *HostKeyGenerator) GenerateKey(ctx context.Context) (string, error) {
	host := ""
	if req := sitemap.RequestFromContext(ctx); req != nil {
		host = req.Host
	}
	return g.keyer.Key(host, nil)
}

// KeyMapper maps a cache key to the name of the builder set that builds it.
type KeyMapper interface {
	BuilderSetName(cacheKey string) string
}

// KeyMapperFunc adapts a function to KeyMapper.
type KeyMapperFunc func(cacheKey string) string

// BuilderSetName calls f.
func (f KeyMapperFunc) BuilderSetName(cacheKey string) string { return f(cacheKey) }

// HostKeyMapper selects builder sets by the host scope of keys produced by
// HostKeyGenerator.
type HostKeyMapper struct {
	// Hosts maps host names to builder set names.
	Hosts map[string]string

	// Default is used for unmapped hosts. Empty means DefaultBuilderSetName.
	Default string
}

// BuilderSetName implements KeyMapper.
func (m HostKeyMapper) BuilderSetName(cacheKey string) string {
	host := HostFromKey(cacheKey)
	for h, set := range m.Hosts {
		if host != "" && urlpath.NormalizeHost(h) == host {
			return set
		}
	}
	if m.Default != "" {
		return m.Default
	}
	return DefaultBuilderSetName
}

// HostFromKey extracts the host scope of a key built by cache.DefaultKeyer.
func HostFromKey(cacheKey string) string {
	rest, ok := strings.CutPrefix(cacheKey, "sitemap://")
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return urlpath.NormalizeHost(host)
}

var (
	_ CacheKeyGenerator = (*HostKeyGenerator)(nil)
	_ KeyMapper         = HostKeyMapper{}
	_ KeyMapper         = KeyMapperFunc(nil)
)
