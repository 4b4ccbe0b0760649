// Package cache provides the client-side request cache.
//
// A Store maps cache keys to TTL-bound entries and tracks in-flight fetches
// so that concurrent requests for the same key share one underlying fetch.
// Request is the entry point callers use instead of fetching directly:
//
//	store := cache.NewStore()
//	defer store.Close()
//	store.StartSweeper(ctx)
//
//	news, err := store.Request(ctx, "news-all", fetchNews, 5*time.Minute)
//
// Keys are opaque to the store. BuildKey encodes a path and parameter set
// into a key that does not depend on parameter order.
package cache
