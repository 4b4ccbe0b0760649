package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FetchMeta describes one cache-backed request for telemetry purposes.
type FetchMeta struct {
	Key      string // Cache key (required)
	Resource string // Logical resource such as "news"; derived from Key when empty
}

// MetaForKey builds FetchMeta for a cache key.
func MetaForKey(key string) FetchMeta {
	return FetchMeta{Key: key, Resource: ResourceOf(key)}
}

// ResourceOf derives the resource label from a cache key.
// "news-all" -> "news", "/events?page=2" -> "events", "" -> "unknown".
func ResourceOf(key string) string {
	k := strings.TrimLeft(key, "/")
	if i := strings.IndexAny(k, "-?/:"); i >= 0 {
		k = k[:i]
	}
	if k == "" {
		return "unknown"
	}
	return k
}

// SpanName returns the span name for this fetch: cache.fetch.<resource>.
func (m FetchMeta) SpanName() string {
	return "cache.fetch." + m.resource()
}

func (m FetchMeta) resource() string {
	if m.Resource != "" {
		return m.Resource
	}
	return ResourceOf(m.Key)
}

// Tracer wraps OpenTelemetry tracing with fetch-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an underlying fetch.
	StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer on top of an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(
			attribute.String("cache.key", meta.Key),
			attribute.String("cache.resource", meta.resource()),
			attribute.Bool("cache.error", false),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type nopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a Tracer whose spans are never recorded.
func NopTracer() Tracer {
	return &nopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *nopTracer) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *nopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
