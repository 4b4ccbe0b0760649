package cache

import (
	"time"

	"github.com/jonwraymond/clubcache/observe"
)

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the store policy. Zero fields take DefaultPolicy values.
func WithPolicy(p Policy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// WithClock replaces time.Now. Tests use it to move time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for store events and fetch failures.
func WithLogger(l observe.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.CacheMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used to span underlying fetches.
func WithTracer(t observe.Tracer) Option {
	return func(s *Store) {
		s.tracer = t
	}
}

// WithMiddleware takes tracer, metrics and logger from an observe.Middleware.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(s *Store) {
		if mw == nil {
			return
		}
		s.logger = mw.Logger()
		s.metrics = mw.Metrics()
		s.mw = mw
	}
}
