package observe

import (
	"context"
	"time"
)

// FetchFunc is the signature of an underlying fetch the cache dispatches on a miss.
type FetchFunc func(ctx context.Context) (any, error)

// Middleware wraps fetches with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap returns a FetchFunc safe for concurrent use.
//   - Context: the span context is passed to the wrapped fetch.
//   - Errors: errors from the wrapped fetch are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics CacheMetrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics CacheMetrics, logger Logger) *Middleware {
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

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewCacheMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() CacheMetrics { return m.metrics }

// Wrap instruments fn as the fetch for meta.
func (m *Middleware) Wrap(meta FetchMeta, fn FetchFunc) FetchFunc {
	return func(ctx context.Context) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFetch(ctx, meta, duration, err)

		logger := m.logger.With(F("cache.key", meta.Key), F("cache.resource", meta.resource()))
		if err != nil {
			logger.Warn(ctx, "cache fetch failed",
				F("duration_ms", float64(duration.Milliseconds())),
				F("error", err),
			)
		} else {
			logger.Debug(ctx, "cache fetch completed",
				F("duration_ms", float64(duration.Milliseconds())),
			)
		}

		return result, err
	}
}
