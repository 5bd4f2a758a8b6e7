package loader

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/navkit/cache"
	"github.com/jonwraymond/navkit/observe"
	"github.com/jonwraymond/navkit/resilience"
)

// RedisReleaser is a Loader whose releases are broadcast to peer processes.
// Peers observe them through a cache.RedisDependency on the same channel;
// see RedisDependencies.
type RedisReleaser struct {
	*Loader
	client  redis.UniversalClient
	channel string
	retry   *resilience.Retry
}

// ReleaserOption configures a RedisReleaser.
type ReleaserOption func(*RedisReleaser)

// WithPublishRetry retries failed publishes with cfg.
func WithPublishRetry(cfg resilience.RetryConfig) ReleaserOption {
	return func(r *RedisReleaser) {
		user := cfg.OnRetry
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			r.logger.Warn(context.Background(), "sitemap release publish failed",
				observe.F("attempt", attempt),
				observe.F("error", err.Error()),
				observe.F("delay", delay.String()),
			)
			if user != nil {
				user(attempt, err, delay)
			}
		}
		r.retry = resilience.NewRetry(cfg)
	}
}

// NewRedisReleaser wraps l. An empty channel selects cache.DefaultInvalidationChannel.
// Publishes are attempted once unless WithPublishRetry is given.
func NewRedisReleaser(l *Loader, client redis.UniversalClient, channel string, opts ...ReleaserOption) *RedisReleaser {
	if channel == "" {
		channel = cache.DefaultInvalidationChannel
	}
	r := &RedisReleaser{Loader: l, client: client, channel: channel}
	for _, opt := range opts {
		opt(r)
	}
	if r.retry == nil {
		r.retry = resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 1})
	}
	return r
}

// ReleaseSiteMap evicts the key locally and publishes it to peers. The
// local eviction happens even when the publish fails.
func (r *RedisReleaser) ReleaseSiteMap(ctx context.Context, cacheKey string) error {
	key, err := r.resolveKey(ctx, cacheKey)
	if err != nil {
		return err
	}
	r.release(ctx, key)
	return r.retry.Execute(ctx, func(ctx context.Context) error {
		return cache.PublishInvalidation(ctx, r.client, r.channel, key)
	})
}

// RedisDependencies returns a BuilderSet.Dependencies function that evicts
// each entry when its key is published on channel, plus any static deps.
func RedisDependencies(client redis.UniversalClient, channel string, static ...cache.Dependency) func(string) []cache.Dependency {
	return func(key string) []cache.Dependency {
		deps := append([]cache.Dependency(nil), static...)
		return append(deps, cache.NewRedisDependency(client, channel, key))
	}
}

var _ SiteMapLoader = (*RedisReleaser)(nil)
