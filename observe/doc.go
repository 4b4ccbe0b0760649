// Package observe provides observability primitives for the request cache.
//
// It is a pure instrumentation library: it never fetches anything itself.
// The cache store and the API client take a Logger, CacheMetrics and Tracer
// (or a Middleware bundling them) and report lookups, fetches and
// invalidations through them.
package observe
