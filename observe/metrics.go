package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records cache store activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type CacheMetrics interface {
	// RecordLookup records a Get or Request lookup against a valid entry.
	RecordLookup(ctx context.Context, meta FetchMeta, hit bool)

	// RecordFetch records one underlying fetch with its duration and outcome.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)

	// RecordShared records a caller that joined an in-flight fetch.
	RecordShared(ctx context.Context, meta FetchMeta)

	// RecordRemoval records entries removed; reason is invalidate, clear or expire.
	RecordRemoval(ctx context.Context, reason string, n int)
}

type cacheMetrics struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	fetches       metric.Int64Counter
	fetchErrors   metric.Int64Counter
	shared        metric.Int64Counter
	removals      metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

// NewCacheMetrics registers the cache instruments on meter.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	m := &cacheMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.hits, "cache.hits", "Lookups served from a valid entry", "{lookup}"},
		{&m.misses, "cache.misses", "Lookups that found no valid entry", "{lookup}"},
		{&m.fetches, "cache.fetches", "Underlying fetches dispatched", "{call}"},
		{&m.fetchErrors, "cache.fetch.errors", "Underlying fetches that failed", "{error}"},
		{&m.shared, "cache.dedup.shared", "Callers that joined an in-flight fetch", "{call}"},
		{&m.removals, "cache.invalidations", "Entries removed before or at expiry", "{entry}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	hist, err := meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Underlying fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	m.fetchDuration = hist

	return m, nil
}

func resourceAttr(meta FetchMeta) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("cache.resource", meta.resource()))
}

func (m *cacheMetrics) RecordLookup(ctx context.Context, meta FetchMeta, hit bool) {
	if hit {
		m.hits.Add(ctx, 1, resourceAttr(meta))
		return
	}
	m.misses.Add(ctx, 1, resourceAttr(meta))
}

func (m *cacheMetrics) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	opt := resourceAttr(meta)
	m.fetches.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *cacheMetrics) RecordShared(ctx context.Context, meta FetchMeta) {
	m.shared.Add(ctx, 1, resourceAttr(meta))
}

func (m *cacheMetrics) RecordRemoval(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	m.removals.Add(ctx, int64(n), metric.WithAttributes(attribute.String("cache.reason", reason)))
}

type nopMetrics struct{}

// NopMetrics returns CacheMetrics that records nothing.
func NopMetrics() CacheMetrics { return nopMetrics{} }

func (nopMetrics) RecordLookup(context.Context, FetchMeta, bool)                 {}
func (nopMetrics) RecordFetch(context.Context, FetchMeta, time.Duration, error) {}
func (nopMetrics) RecordShared(context.Context, FetchMeta)                      {}
func (nopMetrics) RecordRemoval(context.Context, string, int)                   {}
