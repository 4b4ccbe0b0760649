package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/clubcache/cache"
)

func ExampleStore_Request() {
	store := cache.NewStore()
	ctx := context.Background()

	calls := 0
	fetchNews := func(context.Context) (any, error) {
		calls++
		return []string{"Spring regatta results", "Marina closed Monday"}, nil
	}

	first, _ := store.Request(ctx, "news-all", fetchNews, 5*time.Minute)
	second, _ := store.Request(ctx, "news-all", fetchNews, 5*time.Minute)

	fmt.Println(first)
	fmt.Println(second)
	fmt.Println("fetches:", calls)
	// Output:
	// [Spring regatta results Marina closed Monday]
	// [Spring regatta results Marina closed Monday]
	// fetches: 1
}

func ExampleStore_Invalidate() {
	store := cache.NewStore()

	store.Set("events-all", "cached list", time.Minute)
	store.Invalidate("events-all")

	_, ok := store.Get("events-all")
	fmt.Println("still cached:", ok)
	// Output:
	// still cached: false
}

func ExampleBuildKey() {
	fmt.Println(cache.BuildKey("/api/news", map[string]any{"page": 2, "category": "racing"}))
	// Output:
	// /api/news?category=racing&page=2
}

func ExampleStore_Stats() {
	store := cache.NewStore()
	store.Set("news-all", 1, time.Minute)
	store.Set("slides-all", 2, time.Minute)

	st := store.Stats()
	fmt.Printf("total=%d valid=%d expired=%d pending=%d\n", st.Total, st.Valid, st.Expired, st.Pending)
	// Output:
	// total=2 valid=2 expired=0 pending=0
}
