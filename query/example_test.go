package query_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/clubcache/cache"
	"github.com/jonwraymond/clubcache/query"
)

func ExampleQuery() {
	store := cache.NewStore()
	ctx := context.Background()

	fetchSlides := func(context.Context) ([]string, error) {
		return []string{"Welcome aboard", "Regatta Saturday"}, nil
	}

	hero := query.New(store, "slides-all", fetchSlides, query.Options[[]string]{TTL: time.Minute})
	defer hero.Close()
	first := hero.Run(ctx)

	sidebar := query.New(store, "slides-all", fetchSlides, query.Options[[]string]{})
	defer sidebar.Close()
	second := sidebar.Run(ctx)

	fmt.Println(first.Data, first.Cached)
	fmt.Println(second.Data, second.Cached)
	// Output:
	// [Welcome aboard Regatta Saturday] false
	// [Welcome aboard Regatta Saturday] true
}

func ExamplePaged() {
	store := cache.NewStore()
	ctx := context.Background()

	fetchPage := func(_ context.Context, page int) ([]int, error) {
		if page == 1 {
			return []int{1, 2, 3}, nil
		}
		return []int{4}, nil
	}

	list := query.NewPaged(store, "news-all", fetchPage, query.PagedOptions{PageSize: 3})
	defer list.Close()

	st := list.Run(ctx)
	fmt.Println(st.Items, st.HasMore)

	list.LoadMore(ctx)
	st = list.State()
	fmt.Println(st.Items, st.HasMore, st.Page)
	fmt.Println(query.PageKey("news-all", 2))
	// Output:
	// [1 2 3] true
	// [1 2 3 4] false 2
	// news-all-page-2
}
