package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta{BuilderSet: "default"}
	if got := meta.SpanName(); got != "sitemap.build.default" {
		t.Errorf("SpanName() = %q", got)
	}
	if err := meta.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (BuildMeta{}).Validate(); !errors.Is(err, ErrMissingBuilderSet) {
		t.Errorf("Validate() = %v, want ErrMissingBuilderSet", err)
	}
}

// attr returns the last value recorded for key.
func attr(attrs []attribute.KeyValue, key string) (v attribute.Value, ok bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			v, ok = a.Value, true
		}
	}
	return v, ok
}

func TestTracer_Success(t *testing.T) {
	tracer, rec := newTestTracer()
	meta := BuildMeta{BuilderSet: "default", CacheKey: "sitemap://example.com/"}

	_, span := tracer.StartSpan(context.Background(), meta)
	tracer.EndSpan(span, 12, nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "sitemap.build.default" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v", s.Status())
	}
	if v, ok := attr(s.Attributes(), "sitemap.nodes"); !ok || v.AsInt64() != 12 {
		t.Errorf("sitemap.nodes = %v", v)
	}
	if v, ok := attr(s.Attributes(), "sitemap.cache_key"); !ok || v.AsString() != "sitemap://example.com/" {
		t.Errorf("sitemap.cache_key = %v", v)
	}
}

func TestTracer_Error(t *testing.T) {
	tracer, rec := newTestTracer()

	_, span := tracer.StartSpan(context.Background(), BuildMeta{BuilderSet: "default"})
	tracer.EndSpan(span, 0, errors.New("no root"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "no root" {
		t.Errorf("status = %+v", s.Status())
	}
	if v, _ := attr(s.Attributes(), "sitemap.error"); !v.AsBool() {
		t.Error("sitemap.error not set")
	}
	if len(s.Events()) == 0 {
		t.Error("error event not recorded")
	}
}

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx, span := tracer.StartSpan(context.Background(), BuildMeta{BuilderSet: "x"})
	if ctx == nil || span == nil {
		t.Fatal("nil span")
	}
	tracer.EndSpan(span, 0, nil)
}
