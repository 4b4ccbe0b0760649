package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/clubcache/observe"
)

// Store is the request cache: TTL-bound entries plus in-flight fetch tracking.
//
// Contract:
//   - Concurrency: safe for concurrent use. For a given key at most one
//     underlying fetch is in flight; concurrent Request calls share it.
//   - Errors: Get, Set, Invalidate, ClearAll, ClearExpired and Stats never
//     fail. Request returns the fetcher's error unmodified and never caches it.
//   - Ownership: one Store is meant to be shared by everything in the process
//     that reads the same API; construct it once and inject it.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	pending    map[string]uint64 // key -> generation the fetch started in
	generation uint64
	subs       map[string]map[uint64]func(Event)
	nextSub    uint64

	group singleflight.Group
	guard *failureGuard

	policy  Policy
	now     func() time.Time
	logger  observe.Logger
	metrics observe.CacheMetrics
	tracer  observe.Tracer
	mw      *observe.Middleware

	sweepMu   sync.Mutex
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		pending: make(map[string]uint64),
		subs:    make(map[string]map[uint64]func(Event)),
		policy:  DefaultPolicy(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.policy = s.policy.withDefaults()
	if s.logger == nil {
		s.logger = observe.NopLogger()
	}
	if s.metrics == nil {
		s.metrics = observe.NopMetrics()
	}
	if s.mw == nil {
		s.mw = observe.NewMiddleware(s.tracer, s.metrics, s.logger)
	}
	s.guard = newFailureGuard(s.policy.FailureThreshold, s.policy.RetryInterval)
	return s
}

// Policy returns the effective store policy.
func (s *Store) Policy() Policy {
	return s.policy
}

// Get returns the value for key if its entry exists and is still valid.
// It never fetches.
func (s *Store) Get(key string) (any, bool) {
	v, ok := s.lookup(key)
	s.metrics.RecordLookup(context.Background(), observe.MetaForKey(key), ok)
	return v, ok
}

func (s *Store) lookup(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !e.Valid(s.now()) {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key, replacing any existing entry, valid while
// CreatedAt + ttl is after now. A ttl <= 0 means "no TTL chosen" and stores
// the policy's DefaultTTL instead; it never writes an already expired entry.
// To drop a key, use Invalidate.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = &Entry{
		Value:     value,
		CreatedAt: s.now(),
		TTL:       s.policy.EffectiveTTL(ttl),
	}
	ev := pendingEvent{ev: Event{Kind: EventSet, Key: key, Value: value}, listeners: s.listenersLocked(key)}
	s.mu.Unlock()

	s.emit([]pendingEvent{ev})
}

// Request returns the cached value for key, joins an in-flight fetch for
// key, or calls fetch exactly once and caches its result for ttl.
func (s *Store) Request(ctx context.Context, key string, fetch Fetcher, ttl time.Duration) (any, error) {
	resp, err := s.Do(ctx, key, fetch, ttl)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Do is Request reporting whether the value came from the cache and whether
// the underlying fetch was shared.
//
// The fetch runs on a context detached from ctx's cancellation: if ctx is
// done first, Do returns ctx.Err() while the fetch completes for the other
// waiters and the cache.
func (s *Store) Do(ctx context.Context, key string, fetch Fetcher, ttl time.Duration) (Response, error) {
	if err := ValidateKey(key); err != nil {
		return Response{}, err
	}
	if fetch == nil {
		return Response{}, ErrNilFetcher
	}

	meta := observe.MetaForKey(key)
	if v, ok := s.lookup(key); ok {
		s.metrics.RecordLookup(ctx, meta, true)
		return Response{Value: v, Cached: true}, nil
	}
	s.metrics.RecordLookup(ctx, meta, false)

	if err := s.guard.allow(key, s.now()); err != nil {
		return Response{}, err
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.dispatch(fetchCtx, key, meta, fetch, ttl)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.RecordShared(ctx, meta)
		}
		if res.Err != nil {
			return Response{Shared: res.Shared}, res.Err
		}
		return Response{Value: res.Val, Shared: res.Shared}, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// dispatch runs inside the singleflight call for key.
func (s *Store) dispatch(ctx context.Context, key string, meta observe.FetchMeta, fetch Fetcher, ttl time.Duration) (any, error) {
	s.mu.Lock()
	// An earlier flight may have settled between our lookup and winning this one.
	if e, ok := s.entries[key]; ok && e.Valid(s.now()) {
		s.mu.Unlock()
		return e.Value, nil
	}
	gen := s.generation
	s.pending[key] = gen
	s.mu.Unlock()

	var (
		value    any
		err      error
		returned bool
		ev       []pendingEvent
	)
	defer func() {
		if !returned {
			err = errFetchPanicked
		}
		s.mu.Lock()
		if g, ok := s.pending[key]; ok && g == gen {
			delete(s.pending, key)
		}
		// Fetches started before a ClearAll deliver to their waiters only.
		if err == nil && gen == s.generation {
			s.entries[key] = &Entry{
				Value:     value,
				CreatedAt: s.now(),
				TTL:       s.policy.EffectiveTTL(ttl),
			}
			ev = append(ev, pendingEvent{
				ev:        Event{Kind: EventSet, Key: key, Value: value},
				listeners: s.listenersLocked(key),
			})
		}
		s.mu.Unlock()

		s.guard.record(key, s.now(), err)
		s.emit(ev)
	}()

	value, err = s.mw.Wrap(meta, observe.FetchFunc(fetch))(ctx)
	returned = true
	return value, err
}

// Invalidate removes the entry for key. An in-flight fetch for key is not
// affected and repopulates the entry when it completes.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	_, ok := s.entries[key]
	var ev []pendingEvent
	if ok {
		delete(s.entries, key)
		ev = append(ev, pendingEvent{ev: Event{Kind: EventInvalidate, Key: key}, listeners: s.listenersLocked(key)})
	}
	s.mu.Unlock()

	if ok {
		s.metrics.RecordRemoval(context.Background(), "invalidate", 1)
		s.logger.Debug(context.Background(), "cache entry invalidated", observe.F("cache.key", key))
	}
	s.emit(ev)
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (s *Store) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	var ev []pendingEvent
	for key := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		delete(s.entries, key)
		ev = append(ev, pendingEvent{ev: Event{Kind: EventInvalidate, Key: key}, listeners: s.listenersLocked(key)})
	}
	s.mu.Unlock()

	if len(ev) > 0 {
		s.metrics.RecordRemoval(context.Background(), "invalidate", len(ev))
		s.logger.Debug(context.Background(), "cache prefix invalidated",
			observe.F("cache.prefix", prefix),
			observe.F("removed", len(ev)),
		)
	}
	s.emit(ev)
	return len(ev)
}

// ClearAll removes every entry and forgets every in-flight fetch. Fetches
// already running still resolve for their waiters but do not write back.
func (s *Store) ClearAll() {
	s.mu.Lock()
	removed := len(s.entries)
	pendingKeys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		pendingKeys = append(pendingKeys, key)
	}
	s.entries = make(map[string]*Entry)
	s.pending = make(map[string]uint64)
	s.generation++

	ev := make([]pendingEvent, 0, len(s.subs))
	for key := range s.subs {
		ev = append(ev, pendingEvent{ev: Event{Kind: EventClear, Key: key}, listeners: s.listenersLocked(key)})
	}
	s.mu.Unlock()

	for _, key := range pendingKeys {
		s.group.Forget(key)
	}
	s.guard.reset()

	s.metrics.RecordRemoval(context.Background(), "clear", removed)
	s.logger.Info(context.Background(), "cache cleared",
		observe.F("removed", removed),
		observe.F("pending_dropped", len(pendingKeys)),
	)
	s.emit(ev)
}

// ClearExpired removes every entry whose TTL has elapsed and returns how
// many were removed.
func (s *Store) ClearExpired() int {
	now := s.now()

	s.mu.Lock()
	var ev []pendingEvent
	for key, e := range s.entries {
		if e != nil && e.Valid(now) {
			continue
		}
		delete(s.entries, key)
		ev = append(ev, pendingEvent{ev: Event{Kind: EventExpire, Key: key}, listeners: s.listenersLocked(key)})
	}
	s.mu.Unlock()

	s.metrics.RecordRemoval(context.Background(), "expire", len(ev))
	s.emit(ev)
	return len(ev)
}

// Stats returns a snapshot of entry and in-flight counts.
func (s *Store) Stats() Stats {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Total:   len(s.entries),
		Pending: len(s.pending),
		Size:    len(s.entries),
	}
	for _, e := range s.entries {
		if e.Valid(now) {
			st.Valid++
		} else {
			st.Expired++
		}
	}
	return st
}
