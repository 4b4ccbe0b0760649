package query

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/clubcache/cache"
)

// Descriptor names one key of a Multi query.
type Descriptor struct {
	Key   string
	TTL   time.Duration
	Fetch cache.Fetcher
}

// MultiOptions configures a Multi.
type MultiOptions struct {
	Enabled      *bool
	Dependencies []any
}

// MultiState is a snapshot of a Multi. Data is replaced, never mutated, so
// callers may keep a reference to it.
type MultiState struct {
	Data    map[string]any
	Loading bool
	Err     error
}

type signature struct {
	key string
	ttl time.Duration
}

// Multi fetches several keys concurrently and exposes them as one map keyed
// by Descriptor.Key. Each key is cached and deduplicated independently.
type Multi struct {
	store *cache.Store

	mu      sync.Mutex
	ds      []Descriptor
	sig     []signature
	enabled bool
	deps    []any
	state   MultiState
	seq     uint64
	closed  bool

	subs listeners[MultiState]
}

// NewMulti creates a multi query. It does not fetch until Run is called.
func NewMulti(store *cache.Store, ds []Descriptor, opts MultiOptions) *Multi {
	return &Multi{
		store:   store,
		ds:      slices.Clone(ds),
		sig:     signatureOf(ds),
		enabled: enabled(opts.Enabled),
		deps:    append([]any(nil), opts.Dependencies...),
		state:   MultiState{Data: map[string]any{}, Loading: true},
	}
}

func signatureOf(ds []Descriptor) []signature {
	out := make([]signature, len(ds))
	for i, d := range ds {
		out[i] = signature{key: d.Key, ttl: d.TTL}
	}
	return out
}

// State returns the current state.
func (m *Multi) State() MultiState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for state changes.
func (m *Multi) Subscribe(fn func(MultiState)) (cancel func()) {
	return m.subs.add(fn)
}

// Run fetches every descriptor. If any fetch fails, Err is set and the
// previous Data is kept.
func (m *Multi) Run(ctx context.Context) MultiState {
	st, _ := m.run(ctx)
	return st
}

// Refresh invalidates every listed key and runs again.
func (m *Multi) Refresh(ctx context.Context) error {
	m.mu.Lock()
	ds, on := m.ds, m.enabled && !m.closed
	m.mu.Unlock()
	if !on {
		return nil
	}

	for _, d := range ds {
		m.store.Invalidate(d.Key)
	}
	_, err := m.run(ctx)
	return err
}

func (m *Multi) run(ctx context.Context) (MultiState, error) {
	m.mu.Lock()
	if m.closed || !m.enabled {
		st := m.state
		m.mu.Unlock()
		return st, nil
	}
	m.seq++
	seq := m.seq
	ds := m.ds
	wasLoading := m.state.Loading
	m.state.Loading = true
	st := m.state
	m.mu.Unlock()

	if !wasLoading {
		m.subs.notify(st)
	}

	values := make([]any, len(ds))
	var g errgroup.Group
	for i, d := range ds {
		g.Go(func() error {
			v, err := m.store.Request(ctx, d.Key, d.Fetch, d.TTL)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	err := g.Wait()

	m.mu.Lock()
	if m.closed || seq != m.seq {
		st = m.state
		m.mu.Unlock()
		return st, err
	}
	m.state.Loading = false
	if err != nil {
		m.state.Err = err
	} else {
		data := make(map[string]any, len(ds))
		for i, d := range ds {
			data[d.Key] = values[i]
		}
		m.state.Data = data
		m.state.Err = nil
	}
	st = m.state
	m.mu.Unlock()

	m.subs.notify(st)
	return st, err
}

// SetDescriptors replaces the descriptor list and runs again only if the
// ordered Key and TTL pairs differ. The new fetchers are always kept, so a
// later Refresh or dependency change calls them even when this call did not
// run. It reports whether a run happened.
func (m *Multi) SetDescriptors(ctx context.Context, ds []Descriptor) bool {
	sig := signatureOf(ds)

	m.mu.Lock()
	m.ds = slices.Clone(ds)
	if slices.Equal(m.sig, sig) {
		m.mu.Unlock()
		return false
	}
	m.sig = sig
	m.mu.Unlock()

	m.run(ctx)
	return true
}

// SetDependencies replaces the dependency list and runs again if any
// element differs.
func (m *Multi) SetDependencies(ctx context.Context, deps ...any) bool {
	m.mu.Lock()
	if depsEqual(m.deps, deps) {
		m.mu.Unlock()
		return false
	}
	m.deps = append([]any(nil), deps...)
	m.mu.Unlock()

	m.run(ctx)
	return true
}

// SetEnabled toggles fetching. Enabling a disabled multi query runs it.
func (m *Multi) SetEnabled(ctx context.Context, on bool) {
	m.mu.Lock()
	changed := m.enabled != on
	m.enabled = on
	m.mu.Unlock()

	if changed && on {
		m.run(ctx)
	}
}

// Close detaches the multi query.
func (m *Multi) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.subs.clear()
}
