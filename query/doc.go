// Package query binds a consumer's lifetime to cache keys.
//
// A Query fetches one key through a cache.Store and keeps the latest
// {Data, Loading, Err, Cached} state; Multi fetches several keys in parallel
// into one map; Paged accumulates pages stored under <baseKey>-page-<n>.
//
// Each type replaces a render-driven effect with explicit calls: Run when the
// consumer appears, Set* when an input changes (a refetch happens only when
// the value actually differs), Refresh to bypass the cache once, Subscribe to
// observe state changes and Close when the consumer goes away. Close does not
// cancel a store-level fetch, since other consumers may share it.
package query
