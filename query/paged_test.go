package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/clubcache/cache"
)

// pagesOf serves pages with the given lengths; item values are page*100+i.
func pagesOf(calls *atomic.Int32, lengths ...int) func(context.Context, int) ([]int, error) {
	return func(_ context.Context, page int) ([]int, error) {
		calls.Add(1)
		if page < 1 || page > len(lengths) {
			return nil, nil
		}
		out := make([]int, lengths[page-1])
		for i := range out {
			out[i] = page*100 + i
		}
		return out, nil
	}
}

func TestPageKey(t *testing.T) {
	assert.Equal(t, "news-page-3", PageKey("news", 3))
}

func TestPaged_ShortPageEndsPagination(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	p := NewPaged(cache.NewStore(), "news", pagesOf(&calls, 10, 7), PagedOptions{PageSize: 10})
	defer p.Close()

	st := p.Run(ctx)
	require.NoError(t, st.Err)
	assert.Len(t, st.Items, 10)
	assert.True(t, st.HasMore)
	assert.Equal(t, 1, st.Page)

	require.True(t, p.LoadMore(ctx))
	st = p.State()
	assert.Len(t, st.Items, 17)
	assert.False(t, st.HasMore)
	assert.Equal(t, 2, st.Page)
	assert.Equal(t, 200, st.Items[10])

	assert.False(t, p.LoadMore(ctx))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPaged_LoadMoreRefusedBeforeRun(t *testing.T) {
	var calls atomic.Int32
	p := NewPaged(cache.NewStore(), "events", pagesOf(&calls, 10, 10), PagedOptions{})
	defer p.Close()

	// Nothing has settled yet, so the initial state is still loading.
	assert.False(t, p.LoadMore(context.Background()))
	assert.Equal(t, int32(0), calls.Load())
}

func TestPaged_LoadMoreRefusedWhileLoading(t *testing.T) {
	ctx := context.Background()
	var page2Calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(_ context.Context, page int) ([]int, error) {
		if page == 2 {
			page2Calls.Add(1)
			close(started)
			<-release
		}
		return make([]int, 10), nil
	}

	p := NewPaged(cache.NewStore(), "events", fetch, PagedOptions{PageSize: 10})
	defer p.Close()
	require.True(t, p.Run(ctx).HasMore)

	first := make(chan bool)
	go func() { first <- p.LoadMore(ctx) }()
	<-started

	assert.True(t, p.State().Loading)
	assert.False(t, p.LoadMore(ctx))

	close(release)
	assert.True(t, <-first)
	assert.Equal(t, int32(1), page2Calls.Load())

	st := p.State()
	assert.False(t, st.Loading)
	assert.Equal(t, 2, st.Page)
	assert.Len(t, st.Items, 20)
}

func TestPaged_DefaultPageSize(t *testing.T) {
	var calls atomic.Int32
	p := NewPaged(cache.NewStore(), "events", pagesOf(&calls, 9), PagedOptions{})
	defer p.Close()

	st := p.Run(context.Background())
	assert.False(t, st.HasMore)
}

func TestPaged_RefreshInvalidatesFetchedPages(t *testing.T) {
	ctx := context.Background()
	store := cache.NewStore()
	var calls atomic.Int32
	p := NewPaged(store, "news", pagesOf(&calls, 10, 10, 3), PagedOptions{PageSize: 10})
	defer p.Close()

	p.Run(ctx)
	require.True(t, p.LoadMore(ctx))
	require.Len(t, p.State().Items, 20)
	require.Equal(t, int32(2), calls.Load())

	require.NoError(t, p.Refresh(ctx))
	st := p.State()
	assert.Equal(t, 1, st.Page)
	assert.Len(t, st.Items, 10)
	assert.True(t, st.HasMore)
	assert.Equal(t, int32(3), calls.Load())

	_, ok := store.Get(PageKey("news", 2))
	assert.False(t, ok)
	_, ok = store.Get(PageKey("news", 1))
	assert.True(t, ok)
}

func TestPaged_ReplaysPagesFromStore(t *testing.T) {
	ctx := context.Background()
	store := cache.NewStore()
	var calls atomic.Int32

	first := NewPaged(store, "news", pagesOf(&calls, 10, 4), PagedOptions{})
	first.Run(ctx)
	first.LoadMore(ctx)
	first.Close()

	second := NewPaged(store, "news", pagesOf(&calls, 10, 4), PagedOptions{})
	defer second.Close()
	second.Run(ctx)
	second.LoadMore(ctx)

	assert.Len(t, second.State().Items, 14)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPaged_ErrorKeepsItems(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	fetch := func(_ context.Context, page int) ([]string, error) {
		if page == 2 {
			return nil, boom
		}
		return make([]string, 10), nil
	}
	p := NewPaged(cache.NewStore(), "media", fetch, PagedOptions{})
	defer p.Close()

	p.Run(ctx)
	require.True(t, p.LoadMore(ctx))

	st := p.State()
	assert.ErrorIs(t, st.Err, boom)
	assert.Len(t, st.Items, 10)
	assert.Equal(t, 1, st.Page)
	assert.True(t, st.HasMore)
	assert.False(t, st.Loading)
}

func TestPaged_Disabled(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	p := NewPaged(cache.NewStore(), "news", pagesOf(&calls, 10), PagedOptions{Enabled: Bool(false)})
	defer p.Close()

	p.Run(ctx)
	require.NoError(t, p.Refresh(ctx))
	assert.Equal(t, int32(0), calls.Load())

	p.SetEnabled(ctx, true)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, p.SetDependencies(ctx))
	assert.True(t, p.SetDependencies(ctx, "racing"))
}
