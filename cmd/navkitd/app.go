package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/navkit/acl"
	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/builder"
	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/health"
	"github.com/jonwraymond/navkit/loader"
	"github.com/jonwraymond/navkit/navhttp"
	"github.com/jonwraymond/navkit/observe"
	"github.com/jonwraymond/navkit/resilience"
	"github.com/jonwraymond/navkit/routing"
	"github.com/jonwraymond/navkit/sitemap"
	"github.com/jonwraymond/navkit/visibility"
)

// app holds the wired daemon components.
type app struct {
	settings settings
	observer observe.Observer
	mw       *observe.Middleware
	logger   observe.Logger
	creator  *loader.Creator
	strategy *loader.BuilderSetStrategy
	loader   *loader.Loader
	releaser loader.SiteMapLoader
	redis    *redis.Client
	health   *health.Aggregator
	server   *navhttp.Server
}

// newApp wires the components described by s. Callers must Close the app.
func newApp(ctx context.Context, s settings) (*app, error) {
	a := &app{settings: s}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: s.ServiceName,
		Version:     version,
		Tracing:     observe.TracingConfig{Enabled: enabled(s.TracingExporter), Exporter: s.TracingExporter, SamplePct: s.TracingSample},
		Metrics:     observe.MetricsConfig{Enabled: enabled(s.MetricsExporter), Exporter: s.MetricsExporter},
		Logging:     observe.LoggingConfig{Enabled: true, Level: s.LogLevel},
	})
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	a.observer = obs
	if a.mw, err = observe.MiddlewareFromObserver(obs); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("middleware: %w", err)
	}
	a.logger = a.mw.Logger()

	if s.RedisURL != "" {
		opts, err := redis.ParseURL(s.RedisURL)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("redis-url: %w", err)
		}
		a.redis = redis.NewClient(opts)
	}

	if err := a.wireLoader(); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	// The "sitemap" checker builds the map of whichever host is probed;
	// preloaded hosts get a checker of their own.
	a.health = health.NewAggregator()
	a.health.Register(health.NewSiteMapChecker("sitemap", a.loader, ""))
	for _, host := range s.PreloadHosts {
		key, err := a.loader.CacheKey(withHost(ctx, host), "")
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.health.Register(health.NewSiteMapChecker("sitemap-"+host, a.loader, key))
	}
	if a.redis != nil {
		a.health.Register(health.NewRedisChecker(a.redis))
	}

	a.server, err = navhttp.New(navhttp.Config{
		Loader:        a.releaser,
		Authenticator: a.authenticator(),
		Health:        a.health,
		Logger:        a.logger,
		ReleaseRole:   s.ReleaseRole,
		MaxMenuDepth:  s.MaxMenuDepth,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) wireLoader() error {
	s := a.settings

	modules := []acl.Module{acl.RolesModule{}}
	if s.RBACFile != "" {
		rbac, err := loadRBAC(s.RBACFile)
		if err != nil {
			return fmt.Errorf("rbac-file: %w", err)
		}
		modules = append(modules, &acl.AuthorizerModule{Authorizer: auth.NewRBACAuthorizer(rbac)})
	}
	access, err := acl.New(modules, acl.WithLogger(a.logger))
	if err != nil {
		return err
	}

	router := routing.DefaultRouteTable()
	a.creator = &loader.Creator{
		Router:     router,
		Visibility: sitemap.NewVisibilityStrategy(visibility.FilteredProviderName, visibility.FilteredProvider{}, visibility.NewExpressionProvider()),
		ACL:        access,
	}

	sets := make([]loader.BuilderSet, 0, len(s.Sources))
	for _, name := range s.setNames() {
		set, err := a.builderSet(name, s.Sources[name])
		if err != nil {
			return err
		}
		sets = append(sets, set)
	}
	if a.strategy, err = loader.NewBuilderSetStrategy(sets...); err != nil {
		return err
	}

	cfg := loader.Config{
		Strategy:   a.strategy,
		Mapper:     loader.HostKeyMapper{Hosts: s.Hosts, Default: s.DefaultSet},
		Creator:    a.creator,
		Middleware: a.mw,
	}
	if s.BreakerFailures > 0 {
		cfg.Breaker = &resilience.BreakerConfig{MaxFailures: s.BreakerFailures, ResetTimeout: s.BreakerReset}
	}
	if a.loader, err = loader.New(cfg); err != nil {
		return err
	}

	a.releaser = a.loader
	if a.redis != nil {
		a.releaser = loader.NewRedisReleaser(a.loader, a.redis, s.RedisChannel,
			loader.WithPublishRetry(resilience.RetryConfig{MaxAttempts: s.PublishRetries, Jitter: true}))
	}
	return nil
}

// builderSet creates the set named name over the given source files.
func (a *app) builderSet(name string, paths []string) (loader.BuilderSet, error) {
	s := a.settings

	providers := make(builder.CompositeProvider, 0, len(paths))
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".xml":
			providers = append(providers, builder.NewXMLFileProvider(p))
		default:
			providers = append(providers, builder.NewYAMLFileProvider(p))
		}
	}
	b, err := builder.New(providers, builder.URLResolvingVisitor{})
	if err != nil {
		return loader.BuilderSet{}, fmt.Errorf("set %q: %w", name, err)
	}

	var static []cache.Dependency
	if s.Watch {
		static = append(static, cache.NewFileDependency(paths...))
	}
	deps := loader.StaticDependencies(static...)
	if a.redis != nil {
		deps = loader.RedisDependencies(a.redis, s.RedisChannel, static...)
	}

	return loader.BuilderSet{
		Name:    name,
		Builder: b,
		Settings: sitemap.Settings{
			SecurityTrimmingEnabled:          s.SecurityTrimming,
			VisibilityAffectsDescendants:     s.VisibilityAffectsDescendants,
			UseTitleIfDescriptionNotProvided: s.UseTitleForDescription,
			AppRoot:                          s.AppRoot,
		},
		Policy:       cache.Policy{AbsoluteExpiration: s.CacheTTL, SlidingExpiration: s.Sliding},
		Dependencies: deps,
	}, nil
}

// authenticator returns nil when no credentials are configured so every
// caller is served as anonymous.
func (a *app) authenticator() auth.Authenticator {
	s := a.settings
	var authns []auth.Authenticator

	if s.JWTSecret != "" {
		authns = append(authns, auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:   s.JWTIssuer,
			Audience: s.JWTAudience,
		}, auth.NewStaticKeyProvider([]byte(s.JWTSecret))))
	}

	if len(s.APIKeys) > 0 {
		store := auth.NewMemoryAPIKeyStore()
		for principal, key := range s.APIKeys {
			store.Add(&auth.APIKeyInfo{
				ID:        principal,
				KeyHash:   auth.HashAPIKey(key),
				Principal: principal,
				Roles:     []string{s.ReleaseRole},
			})
		}
		authns = append(authns, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store))
	}

	switch len(authns) {
	case 0:
		return nil
	case 1:
		return authns[0]
	default:
		return auth.NewCompositeAuthenticator(authns...)
	}
}

// handler returns the navigation handler, plus /metrics when metrics are
// exported to Prometheus.
func (a *app) handler() http.Handler {
	nav := a.server.Handler()
	if a.settings.MetricsExporter != "prometheus" {
		return nav
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", nav)
	return mux
}

// preload builds the sitemaps of the configured preload hosts.
func (a *app) preload(ctx context.Context) error {
	if len(a.settings.PreloadHosts) == 0 {
		return nil
	}
	keys := make([]string, len(a.settings.PreloadHosts))
	for i, host := range a.settings.PreloadHosts {
		key, err := a.loader.CacheKey(withHost(ctx, host), "")
		if err != nil {
			return err
		}
		keys[i] = key
	}
	return a.loader.Preload(ctx, keys...)
}

// Close releases the Redis client and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.observer != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		errs = append(errs, a.observer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func withHost(ctx context.Context, host string) context.Context {
	return sitemap.WithRequest(ctx, sitemap.NewRequest(host, "/", "GET"))
}

func enabled(exporter string) bool {
	return exporter != "" && exporter != "none"
}
