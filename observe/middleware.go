package observe

import (
	"context"
	"time"
)

// BuildFunc produces a value for a build, typically a sitemap.
type BuildFunc[T any] func(ctx context.Context, meta BuildMeta) (T, error)

// Sized is implemented by build results that report how many nodes they hold.
type Sized interface {
	Len() int
}

// Middleware wraps builds with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: wrapped functions are safe for concurrent use when the inner one is.
//   - Context: the span context is propagated to the inner function.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Metrics returns the metrics recorder used by the middleware.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Wrap returns fn instrumented by m. It is a function rather than a method
// because methods cannot carry type parameters.
func Wrap[T any](m *Middleware, fn BuildFunc[T]) BuildFunc[T] {
	return func(ctx context.Context, meta BuildMeta) (T, error) {
		log := m.logger.WithBuild(meta)
		log.Debug(ctx, "sitemap build started")

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)

		duration := time.Since(start)
		nodes := 0
		if s, ok := any(result).(Sized); ok && err == nil {
			nodes = s.Len()
		}
		m.tracer.EndSpan(span, nodes, err)
		m.metrics.RecordBuild(ctx, meta, duration, err)

		fields := []Field{F("duration_ms", float64(duration.Microseconds())/1000)}
		if err != nil {
			log.Error(ctx, "sitemap build failed", append(fields, F("error", err))...)
		} else {
			log.Info(ctx, "sitemap build completed", append(fields, F("nodes", nodes))...)
		}
		return result, err
	}
}
