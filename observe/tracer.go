package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// BuildMeta identifies one sitemap build for telemetry purposes.
type BuildMeta struct {
	BuilderSet string // Builder set name (required)
	CacheKey   string // Cache key the result is stored under (optional)
	Host       string // Request host that triggered the build (optional)
}

// SpanName returns the deterministic span name: sitemap.build.<builder set>.
func (m BuildMeta) SpanName() string {
	return "sitemap.build." + m.BuilderSet
}

// Validate reports ErrMissingBuilderSet when the builder set is empty.
func (m BuildMeta) Validate() error {
	if m.BuilderSet == "" {
		return ErrMissingBuilderSet
	}
	return nil
}

func (m BuildMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("sitemap.builder_set", m.BuilderSet)}
	if m.CacheKey != "" {
		attrs = append(attrs, attribute.String("sitemap.cache_key", m.CacheKey))
	}
	if m.Host != "" {
		attrs = append(attrs, attribute.String("sitemap.host", m.Host))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with build span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a sitemap build.
	StartSpan(ctx context.Context, meta BuildMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the node count or the error.
	EndSpan(span trace.Span, nodes int, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer over an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta BuildMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("sitemap.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, nodes int, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("sitemap.error", true))
		span.RecordError(err)
	} else {
		span.SetAttributes(attribute.Int("sitemap.nodes", nodes))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans are not recorded.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
