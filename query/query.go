package query

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/clubcache/cache"
)

// Options configures a Query.
type Options[T any] struct {
	// TTL is passed to the store; zero means the store's default TTL.
	TTL time.Duration

	// Enabled gates fetching. Nil means enabled.
	Enabled *bool

	// Dependencies are caller values that trigger a refetch when they change.
	Dependencies []any

	OnSuccess func(T)
	OnError   func(error)
}

// Bool returns a pointer to b, for Options.Enabled and friends.
func Bool(b bool) *bool { return &b }

func enabled(p *bool) bool { return p == nil || *p }

// State is a snapshot of a Query.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Err     error
	// Cached reports whether Data was served from the store without a fetch
	// by this query.
	Cached bool
}

// Query keeps one cache key's value current for one consumer.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Only the result of the most recent run is applied; older runs settle
//     into the store but leave the query state alone.
//   - Close stops state updates; it never cancels the underlying fetch.
type Query[T any] struct {
	store *cache.Store

	mu        sync.Mutex
	key       string
	fetch     func(context.Context) (T, error)
	ttl       time.Duration
	enabled   bool
	deps      []any
	onSuccess func(T)
	onError   func(error)

	state   State[T]
	seq     uint64
	running int
	closed  bool
	unsub   func()

	subs listeners[State[T]]
}

// New creates a query for key. It does not fetch until Run is called.
func New[T any](store *cache.Store, key string, fetch func(context.Context) (T, error), opts Options[T]) *Query[T] {
	q := &Query[T]{
		store:     store,
		key:       key,
		fetch:     fetch,
		ttl:       opts.TTL,
		enabled:   enabled(opts.Enabled),
		deps:      append([]any(nil), opts.Dependencies...),
		onSuccess: opts.OnSuccess,
		onError:   opts.OnError,
		state:     State[T]{Loading: true},
	}
	q.unsub = store.Subscribe(key, q.onStoreEvent)
	return q
}

// State returns the current state.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Key returns the current cache key.
func (q *Query[T]) Key() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// Subscribe registers fn for state changes. The returned func unregisters it.
func (q *Query[T]) Subscribe(fn func(State[T])) (cancel func()) {
	return q.subs.add(fn)
}

// Run serves the key from the store or fetches it. A disabled or closed
// query returns its state unchanged.
func (q *Query[T]) Run(ctx context.Context) State[T] {
	st, _ := q.run(ctx)
	return st
}

// Refresh invalidates the key and runs again. On failure the previous Data
// is kept and the error is returned.
func (q *Query[T]) Refresh(ctx context.Context) error {
	q.mu.Lock()
	key, on := q.key, q.enabled && !q.closed
	q.mu.Unlock()
	if !on {
		return nil
	}

	q.store.Invalidate(key)
	_, err := q.run(ctx)
	return err
}

func (q *Query[T]) run(ctx context.Context) (State[T], error) {
	q.mu.Lock()
	if q.closed || !q.enabled {
		st := q.state
		q.mu.Unlock()
		return st, nil
	}
	q.seq++
	seq := q.seq
	key, fetch, ttl := q.key, q.fetch, q.ttl
	q.running++
	wasLoading := q.state.Loading
	q.state.Loading = true
	st := q.state
	q.mu.Unlock()

	if !wasLoading {
		q.subs.notify(st)
	}

	var (
		resp cache.Response
		data T
		err  error
	)
	if fetch == nil {
		err = cache.ErrNilFetcher
	} else {
		resp, err = q.store.Do(ctx, key, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		}, ttl)
		if err == nil {
			data, err = as[T](resp.Value)
		}
	}

	q.mu.Lock()
	q.running--
	if q.closed || seq != q.seq {
		st = q.state
		q.mu.Unlock()
		return st, err
	}
	q.state.Loading = false
	if err != nil {
		q.state.Err = err
	} else {
		q.state.Data = data
		q.state.HasData = true
		q.state.Err = nil
		q.state.Cached = resp.Cached
	}
	st = q.state
	onSuccess, onError := q.onSuccess, q.onError
	q.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(err)
		}
	} else if onSuccess != nil {
		onSuccess(data)
	}
	q.subs.notify(st)
	return st, err
}

// onStoreEvent adopts values written to the key by other consumers.
func (q *Query[T]) onStoreEvent(ev cache.Event) {
	if ev.Kind != cache.EventSet {
		return
	}
	data, err := as[T](ev.Value)
	if err != nil {
		return
	}

	q.mu.Lock()
	if q.closed || q.running > 0 || ev.Key != q.key {
		q.mu.Unlock()
		return
	}
	q.state.Data = data
	q.state.HasData = true
	q.state.Err = nil
	q.state.Cached = true
	st := q.state
	q.mu.Unlock()

	q.subs.notify(st)
}

// SetDependencies replaces the dependency list and runs again if any
// element differs. It reports whether a run happened.
func (q *Query[T]) SetDependencies(ctx context.Context, deps ...any) bool {
	q.mu.Lock()
	if depsEqual(q.deps, deps) {
		q.mu.Unlock()
		return false
	}
	q.deps = append([]any(nil), deps...)
	q.mu.Unlock()

	q.run(ctx)
	return true
}

// SetEnabled toggles fetching. Enabling a disabled query runs it.
func (q *Query[T]) SetEnabled(ctx context.Context, on bool) {
	q.mu.Lock()
	changed := q.enabled != on
	q.enabled = on
	q.mu.Unlock()

	if changed && on {
		q.run(ctx)
	}
}

// SetKey points the query at a different key and runs it.
func (q *Query[T]) SetKey(ctx context.Context, key string) {
	q.mu.Lock()
	if q.key == key || q.closed {
		q.mu.Unlock()
		return
	}
	q.key = key
	unsub := q.unsub
	q.unsub = q.store.Subscribe(key, q.onStoreEvent)
	q.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	q.run(ctx)
}

// SetTTL changes the TTL used for future fetches and runs again if it differs.
func (q *Query[T]) SetTTL(ctx context.Context, ttl time.Duration) {
	q.mu.Lock()
	changed := q.ttl != ttl
	q.ttl = ttl
	q.mu.Unlock()

	if changed {
		q.run(ctx)
	}
}

// SetFetcher replaces the fetch function and runs again. Functions are not
// comparable, so every call counts as a change.
func (q *Query[T]) SetFetcher(ctx context.Context, fetch func(context.Context) (T, error)) {
	q.mu.Lock()
	q.fetch = fetch
	q.mu.Unlock()

	q.run(ctx)
}

// SetCallbacks replaces OnSuccess and OnError. It never triggers a run.
func (q *Query[T]) SetCallbacks(onSuccess func(T), onError func(error)) {
	q.mu.Lock()
	q.onSuccess = onSuccess
	q.onError = onError
	q.mu.Unlock()
}

// Close detaches the query. Runs that settle afterwards are not applied.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	unsub := q.unsub
	q.unsub = nil
	q.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	q.subs.clear()
}
