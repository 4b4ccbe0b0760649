package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/clubcache/cache"
)

func counted(calls *atomic.Int32, v any) cache.Fetcher {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestMulti_AggregatesByKey(t *testing.T) {
	ctx := context.Background()
	var c1, c2 atomic.Int32
	descriptors := func() []Descriptor {
		return []Descriptor{
			{Key: "k1", TTL: time.Minute, Fetch: counted(&c1, 1)},
			{Key: "k2", TTL: time.Minute, Fetch: counted(&c2, 2)},
		}
	}

	m := NewMulti(cache.NewStore(), descriptors(), MultiOptions{})
	defer m.Close()
	assert.True(t, m.State().Loading)

	st := m.Run(ctx)
	require.NoError(t, st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, map[string]any{"k1": 1, "k2": 2}, st.Data)

	assert.False(t, m.SetDescriptors(ctx, descriptors()))
	assert.Equal(t, int32(1), c1.Load())
	assert.Equal(t, int32(1), c2.Load())
}

func TestMulti_SetDescriptorsChanged(t *testing.T) {
	ctx := context.Background()
	var c1, c3 atomic.Int32
	m := NewMulti(cache.NewStore(), []Descriptor{{Key: "k1", Fetch: counted(&c1, 1)}}, MultiOptions{})
	defer m.Close()
	m.Run(ctx)

	changed := m.SetDescriptors(ctx, []Descriptor{
		{Key: "k1", Fetch: counted(&c1, 1)},
		{Key: "k3", Fetch: counted(&c3, 3)},
	})
	require.True(t, changed)
	assert.Equal(t, map[string]any{"k1": 1, "k3": 3}, m.State().Data)
	assert.Equal(t, int32(1), c1.Load())
	assert.Equal(t, int32(1), c3.Load())

	assert.True(t, m.SetDescriptors(ctx, []Descriptor{
		{Key: "k1", TTL: time.Hour, Fetch: counted(&c1, 1)},
		{Key: "k3", Fetch: counted(&c3, 3)},
	}))
}

func TestMulti_SetDescriptorsKeepsNewestFetchers(t *testing.T) {
	ctx := context.Background()
	fetch := func(v string) cache.Fetcher {
		return func(context.Context) (any, error) { return v, nil }
	}

	m := NewMulti(cache.NewStore(), []Descriptor{{Key: "k1", Fetch: fetch("old")}}, MultiOptions{})
	defer m.Close()
	m.Run(ctx)

	assert.False(t, m.SetDescriptors(ctx, []Descriptor{{Key: "k1", Fetch: fetch("new")}}))
	assert.Equal(t, "old", m.State().Data["k1"])

	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, "new", m.State().Data["k1"])
}

func TestMulti_ErrorKeepsPreviousData(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("weather service down")
	var fail atomic.Bool
	var c1 atomic.Int32
	flaky := func(context.Context) (any, error) {
		if fail.Load() {
			return nil, boom
		}
		return "sunny", nil
	}

	m := NewMulti(cache.NewStore(), []Descriptor{
		{Key: "news-all", Fetch: counted(&c1, "news")},
		{Key: "weather", Fetch: flaky},
	}, MultiOptions{})
	defer m.Close()

	st := m.Run(ctx)
	require.NoError(t, st.Err)

	fail.Store(true)
	err := m.Refresh(ctx)
	require.ErrorIs(t, err, boom)

	st = m.State()
	assert.ErrorIs(t, st.Err, boom)
	assert.Equal(t, map[string]any{"news-all": "news", "weather": "sunny"}, st.Data)
	assert.Equal(t, int32(2), c1.Load())
}

func TestMulti_DisabledAndDependencies(t *testing.T) {
	ctx := context.Background()
	store := cache.NewStore()
	var c1 atomic.Int32
	m := NewMulti(store, []Descriptor{{Key: "k1", Fetch: counted(&c1, 1)}}, MultiOptions{
		Enabled:      Bool(false),
		Dependencies: []any{"a"},
	})
	defer m.Close()

	m.Run(ctx)
	assert.Equal(t, int32(0), c1.Load())
	assert.True(t, m.State().Loading)

	m.SetEnabled(ctx, true)
	assert.Equal(t, int32(1), c1.Load())

	assert.False(t, m.SetDependencies(ctx, "a"))
	store.Invalidate("k1")
	assert.True(t, m.SetDependencies(ctx, "b"))
	assert.Equal(t, int32(2), c1.Load())
}
