// Package health reports whether the cache and the CMS API behind it are
// usable.
//
// StoreChecker inspects cache.Store statistics: a store whose entries are
// mostly expired, or with many fetches stuck in flight, is degraded.
// APIChecker pings the API and reports latency. An Aggregator runs a set of
// checkers in parallel under one timeout, and Handler exposes the combined
// result as JSON:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewStoreChecker(store, health.StoreCheckerConfig{}))
//	agg.Register(health.NewAPIChecker(client, health.APICheckerConfig{}))
//	mux.Handle("/health", health.Handler(agg))
package health
