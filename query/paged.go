package query

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jonwraymond/clubcache/cache"
)

// PagedOptions configures a Paged query.
type PagedOptions struct {
	TTL          time.Duration
	Enabled      *bool
	PageSize     int
	Dependencies []any
}

// PagedState is a snapshot of a Paged query.
type PagedState[T any] struct {
	Items   []T
	Loading bool
	Err     error
	HasMore bool
	Page    int
}

// PageKey returns the store key for one page of baseKey.
func PageKey(baseKey string, page int) string {
	return baseKey + "-page-" + strconv.Itoa(page)
}

// Paged accumulates pages of T. Every page is cached under its own key, so
// a remounted list replays from the store.
type Paged[T any] struct {
	store   *cache.Store
	baseKey string
	fetch   func(ctx context.Context, page int) ([]T, error)
	ttl     time.Duration
	size    int

	mu      sync.Mutex
	enabled bool
	deps    []any
	state   PagedState[T]
	fetched map[int]struct{}
	seq     uint64
	closed  bool

	subs listeners[PagedState[T]]
}

// NewPaged creates a paged query. It does not fetch until Run is called.
func NewPaged[T any](store *cache.Store, baseKey string, fetch func(ctx context.Context, page int) ([]T, error), opts PagedOptions) *Paged[T] {
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Paged[T]{
		store:   store,
		baseKey: baseKey,
		fetch:   fetch,
		ttl:     opts.TTL,
		size:    size,
		enabled: enabled(opts.Enabled),
		deps:    append([]any(nil), opts.Dependencies...),
		state:   PagedState[T]{Loading: true, HasMore: true, Page: 1},
		fetched: make(map[int]struct{}),
	}
}

// State returns the current state. Items must not be modified.
func (p *Paged[T]) State() PagedState[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn for state changes.
func (p *Paged[T]) Subscribe(fn func(PagedState[T])) (cancel func()) {
	return p.subs.add(fn)
}

// Run loads page 1 and replaces the accumulated items.
func (p *Paged[T]) Run(ctx context.Context) PagedState[T] {
	st, _ := p.load(ctx, 1, false)
	return st
}

// LoadMore loads the page after the current one and appends it. It returns
// false without fetching while a load is in progress or when the last page
// was short.
func (p *Paged[T]) LoadMore(ctx context.Context) bool {
	_, ok := p.load(ctx, 0, true)
	return ok
}

// Refresh invalidates every page fetched so far and reloads page 1.
func (p *Paged[T]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || !p.enabled {
		p.mu.Unlock()
		return nil
	}
	pages := make([]int, 0, len(p.fetched))
	for page := range p.fetched {
		pages = append(pages, page)
	}
	clear(p.fetched)
	p.mu.Unlock()

	for _, page := range pages {
		p.store.Invalidate(PageKey(p.baseKey, page))
	}
	st, _ := p.load(ctx, 1, false)
	return st.Err
}

// load fetches one page. With more set, the page is the next one and a
// load is refused while another is running or no pages remain.
func (p *Paged[T]) load(ctx context.Context, page int, more bool) (PagedState[T], bool) {
	p.mu.Lock()
	if p.closed || !p.enabled {
		st := p.state
		p.mu.Unlock()
		return st, false
	}
	if more {
		if p.state.Loading || !p.state.HasMore {
			st := p.state
			p.mu.Unlock()
			return st, false
		}
		page = p.state.Page + 1
	}
	p.seq++
	seq := p.seq
	wasLoading := p.state.Loading
	p.state.Loading = true
	st := p.state
	p.fetched[page] = struct{}{}
	p.mu.Unlock()

	if !wasLoading {
		p.subs.notify(st)
	}

	items, err := p.request(ctx, page)

	p.mu.Lock()
	if p.closed || seq != p.seq {
		st = p.state
		p.mu.Unlock()
		return st, true
	}
	p.state.Loading = false
	if err != nil {
		p.state.Err = err
	} else {
		if page == 1 {
			p.state.Items = slices.Clone(items)
		} else {
			p.state.Items = append(slices.Clip(p.state.Items), items...)
		}
		p.state.Page = page
		p.state.HasMore = len(items) >= p.size
		p.state.Err = nil
	}
	st = p.state
	p.mu.Unlock()

	p.subs.notify(st)
	return st, true
}

func (p *Paged[T]) request(ctx context.Context, page int) ([]T, error) {
	if p.fetch == nil {
		return nil, cache.ErrNilFetcher
	}
	v, err := p.store.Request(ctx, PageKey(p.baseKey, page), func(ctx context.Context) (any, error) {
		return p.fetch(ctx, page)
	}, p.ttl)
	if err != nil {
		return nil, err
	}
	return as[[]T](v)
}

// SetDependencies replaces the dependency list and reloads from page 1 if
// any element differs.
func (p *Paged[T]) SetDependencies(ctx context.Context, deps ...any) bool {
	p.mu.Lock()
	if depsEqual(p.deps, deps) {
		p.mu.Unlock()
		return false
	}
	p.deps = append([]any(nil), deps...)
	p.mu.Unlock()

	p.load(ctx, 1, false)
	return true
}

// SetEnabled toggles fetching. Enabling a disabled query reloads page 1.
func (p *Paged[T]) SetEnabled(ctx context.Context, on bool) {
	p.mu.Lock()
	changed := p.enabled != on
	p.enabled = on
	p.mu.Unlock()

	if changed && on {
		p.load(ctx, 1, false)
	}
}

// Close detaches the paged query.
func (p *Paged[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.subs.clear()
}
