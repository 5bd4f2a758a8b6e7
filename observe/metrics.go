package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records sitemap build and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordBuild records a build with its duration and error status.
	RecordBuild(ctx context.Context, meta BuildMeta, duration time.Duration, err error)

	// RecordCacheHit records a cache lookup served from an existing entry.
	RecordCacheHit(ctx context.Context)

	// RecordCacheMiss records a cache lookup that started a build.
	RecordCacheMiss(ctx context.Context)

	// RecordEviction records an entry leaving the cache.
	RecordEviction(ctx context.Context, reason string)
}

type metricsImpl struct {
	buildTotal    metric.Int64Counter
	buildErrors   metric.Int64Counter
	buildDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	evictions     metric.Int64Counter
}

// NewMetrics creates the build and cache instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}
	var (
		m   metricsImpl
		err error
	)
	if m.buildTotal, err = meter.Int64Counter("sitemap.build.total",
		metric.WithDescription("Total number of sitemap builds"),
		metric.WithUnit("{build}")); err != nil {
		return nil, err
	}
	if m.buildErrors, err = meter.Int64Counter("sitemap.build.errors",
		metric.WithDescription("Total number of failed sitemap builds"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.buildDuration, err = meter.Float64Histogram("sitemap.build.duration_ms",
		metric.WithDescription("Sitemap build duration in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.cacheHits, err = meter.Int64Counter("sitemap.cache.hits",
		metric.WithDescription("Sitemap cache lookups served from an existing entry"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = meter.Int64Counter("sitemap.cache.misses",
		metric.WithDescription("Sitemap cache lookups that started a build"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter("sitemap.cache.evictions",
		metric.WithDescription("Sitemaps removed from the cache"),
		metric.WithUnit("{entry}")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *metricsImpl) RecordBuild(ctx context.Context, meta BuildMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("sitemap.builder_set", meta.BuilderSet))
	m.buildTotal.Add(ctx, 1, opt)
	if err != nil {
		m.buildErrors.Add(ctx, 1, opt)
	}
	m.buildDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context) {
	m.cacheHits.Add(ctx, 1)
}

func (m *metricsImpl) RecordCacheMiss(ctx context.Context) {
	m.cacheMisses.Add(ctx, 1)
}

func (m *metricsImpl) RecordEviction(ctx context.Context, reason string) {
	m.evictions.Add(ctx, 1, metric.WithAttributes(attribute.String("sitemap.removal_reason", reason)))
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordBuild(context.Context, BuildMeta, time.Duration, error) {}
func (nopMetrics) RecordCacheHit(context.Context)                              {}
func (nopMetrics) RecordCacheMiss(context.Context)                             {}
func (nopMetrics) RecordEviction(context.Context, string)                      {}
