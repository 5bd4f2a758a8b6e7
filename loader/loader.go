package loader

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/observe"
	"github.com/jonwraymond/navkit/resilience"
	"github.com/jonwraymond/navkit/sitemap"
)

// SiteMapLoader is the read and release surface consumed by request handlers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: build failures are returned to every caller waiting on the build.
type SiteMapLoader interface {
	// GetSiteMap returns the sitemap for cacheKey, building it on first use.
	// An empty key is derived from ctx.
	GetSiteMap(ctx context.Context, cacheKey string) (*sitemap.SiteMap, error)

	// ReleaseSiteMap evicts the sitemap for cacheKey. An empty key is derived from ctx.
	ReleaseSiteMap(ctx context.Context, cacheKey string) error
}

// Config configures a Loader.
type Config struct {
	// Strategy resolves builder sets. Required.
	Strategy *BuilderSetStrategy

	// Mapper picks the builder set for a key. Default: every key maps to
	// DefaultBuilderSetName.
	Mapper KeyMapper

	// KeyGenerator derives keys when callers pass "". Default: HostKeyGenerator.
	KeyGenerator CacheKeyGenerator

	// Creator builds sitemaps. Default: a Creator without router or ACL.
	Creator *Creator

	// Storage backs the cache. Default: cache.MemoryStorage.
	Storage cache.Storage[*cache.Lazy[*sitemap.SiteMap]]

	// Middleware instruments builds. Default: no-op telemetry.
	Middleware *observe.Middleware

	// PreloadConcurrency bounds concurrent builds in Preload. Default: 4.
	PreloadConcurrency int

	// Breaker, when set, guards each builder set with a circuit breaker so a
	// failing source is not rebuilt on every request. Open circuits fail
	// with resilience.ErrCircuitOpen.
	Breaker *resilience.BreakerConfig
}

// Loader caches one SiteMap per cache key.
type Loader struct {
	strategy *BuilderSetStrategy
	mapper   KeyMapper
	keys     CacheKeyGenerator
	cache    *cache.MicroCache[*sitemap.SiteMap]
	build    observe.BuildFunc[*sitemap.SiteMap]
	metrics  observe.Metrics
	logger   observe.Logger
	preload  int

	breakerCfg *resilience.BreakerConfig
	breakers   *xsync.MapOf[string, *resilience.Breaker]
}

// New creates a Loader.
func New(cfg Config) (*Loader, error) {
	if cfg.Strategy == nil {
		return nil, ErrNilStrategy
	}
	if cfg.Mapper == nil {
		cfg.Mapper = KeyMapperFunc(func(string) string { return DefaultBuilderSetName })
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = NewHostKeyGenerator(nil)
	}
	if cfg.Creator == nil {
		cfg.Creator = &Creator{}
	}
	if cfg.Storage == nil {
		cfg.Storage = cache.NewMemoryStorage[*cache.Lazy[*sitemap.SiteMap]]()
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NewMiddleware(nil, nil, nil)
	}
	if cfg.PreloadConcurrency <= 0 {
		cfg.PreloadConcurrency = 4
	}

	l := &Loader{
		strategy: cfg.Strategy,
		mapper:   cfg.Mapper,
		keys:     cfg.KeyGenerator,
		metrics:  cfg.Middleware.Metrics(),
		logger:   cfg.Middleware.Logger(),
		preload:  cfg.PreloadConcurrency,
	}
	if cfg.Breaker != nil {
		bc := *cfg.Breaker
		user := bc.OnStateChange
		bc.OnStateChange = func(name string, from, to resilience.State) {
			l.logger.Warn(context.Background(), "sitemap build circuit changed",
				observe.F("builder_set", name),
				observe.F("from", from.String()),
				observe.F("to", to.String()),
			)
			if user != nil {
				user(name, from, to)
			}
		}
		l.breakerCfg = &bc
		l.breakers = xsync.NewMapOf[string, *resilience.Breaker]()
	}

	mc, err := cache.NewMicroCache(cfg.Storage, cache.Hooks{
		OnHit:  func(ctx context.Context, _ string) { l.metrics.RecordCacheHit(ctx) },
		OnMiss: func(ctx context.Context, _ string) { l.metrics.RecordCacheMiss(ctx) },
		OnDependencyError: func(ctx context.Context, key string, err error) {
			// The map is still served; it just cannot be evicted by that dependency.
			l.logger.Warn(ctx, "sitemap dependency watch failed",
				observe.F("sitemap.cache_key", key),
				observe.F("error", err.Error()),
			)
		},
	})
	if err != nil {
		return nil, err
	}
	mc.OnRemoved(l.onRemoved)
	l.cache = mc

	creator := cfg.Creator
	l.build = observe.Wrap(cfg.Middleware, func(ctx context.Context, meta observe.BuildMeta) (*sitemap.SiteMap, error) {
		set, err := l.strategy.BuilderSet(meta.BuilderSet)
		if err != nil {
			return nil, err
		}
		breaker := l.breaker(set.Name)
		if breaker == nil {
			return creator.CreateSiteMap(ctx, meta.CacheKey, set)
		}
		var sm *sitemap.SiteMap
		err = breaker.Execute(ctx, func(ctx context.Context) error {
			var err error
			sm, err = creator.CreateSiteMap(ctx, meta.CacheKey, set)
			return err
		})
		return sm, err
	})
	return l, nil
}

// BreakerState reports the circuit state for a builder set. Sets without a
// breaker, or that have not built yet, report resilience.StateClosed.
func (l *Loader) BreakerState(setName string) resilience.State {
	if l.breakers == nil {
		return resilience.StateClosed
	}
	if b, ok := l.breakers.Load(setName); ok {
		return b.State()
	}
	return resilience.StateClosed
}

func (l *Loader) breaker(setName string) *resilience.Breaker {
	if l.breakers == nil {
		return nil
	}
	b, _ := l.breakers.LoadOrCompute(setName, func() *resilience.Breaker {
		return resilience.NewBreaker(setName, *l.breakerCfg)
	})
	return b
}

// GetSiteMap implements SiteMapLoader.
func (l *Loader) GetSiteMap(ctx context.Context, cacheKey string) (*sitemap.SiteMap, error) {
	key, err := l.resolveKey(ctx, cacheKey)
	if err != nil {
		return nil, err
	}

	set, err := l.strategy.BuilderSet(l.mapper.BuilderSetName(key))
	if err != nil {
		return nil, err
	}
	meta := observe.BuildMeta{BuilderSet: set.Name, CacheKey: key}
	if req := sitemap.RequestFromContext(ctx); req != nil {
		meta.Host = req.Host
	}

	return l.cache.GetOrAdd(ctx, key,
		func(ctx context.Context) (*sitemap.SiteMap, error) { return l.build(ctx, meta) },
		func() cache.Details { return set.Details(key) },
	)
}

// ReleaseSiteMap implements SiteMapLoader.
func (l *Loader) ReleaseSiteMap(ctx context.Context, cacheKey string) error {
	key, err := l.resolveKey(ctx, cacheKey)
	if err != nil {
		return err
	}
	l.release(ctx, key)
	return nil
}

// Contains reports whether key has a cached or in-flight sitemap.
func (l *Loader) Contains(key string) bool {
	return l.cache.Contains(key)
}

// Preload builds the sitemaps for keys concurrently and returns the first error.
func (l *Loader) Preload(ctx context.Context, keys ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.preload)
	for _, key := range keys {
		g.Go(func() error {
			if _, err := l.GetSiteMap(gctx, key); err != nil {
				return fmt.Errorf("preload %q: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// CacheKey returns the key GetSiteMap would use for ctx and cacheKey.
func (l *Loader) CacheKey(ctx context.Context, cacheKey string) (string, error) {
	return l.resolveKey(ctx, cacheKey)
}

func (l *Loader) resolveKey(ctx context.Context, cacheKey string) (string, error) {
	if cacheKey != "" {
		return cacheKey, nil
	}
	return l.keys.GenerateKey(ctx)
}

func (l *Loader) release(ctx context.Context, key string) {
	l.logger.Debug(ctx, "sitemap released", observe.F("sitemap.cache_key", key))
	l.cache.Remove(key)
}

func (l *Loader) onRemoved(key string, sm *sitemap.SiteMap, reason cache.RemovalReason) {
	ctx := context.Background()
	l.metrics.RecordEviction(ctx, reason.String())
	l.logger.Info(ctx, "sitemap evicted",
		observe.F("sitemap.cache_key", key),
		observe.F("reason", reason.String()),
		observe.F("nodes", sm.Len()),
	)
}

var _ SiteMapLoader = (*Loader)(nil)
