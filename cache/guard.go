package cache

import (
	"fmt"
	"sync"
	"time"
)

// failureGuard refuses fetches for a key that has failed repeatedly until
// the retry interval has passed, then lets one probe through. Concurrent
// probes for a key collapse into one fetch in the store.
type failureGuard struct {
	threshold int
	interval  time.Duration

	mu    sync.Mutex
	state map[string]*failureState
}

type failureState struct {
	failures    int
	lastFailure time.Time
	lastErr     error
}

func newFailureGuard(threshold int, interval time.Duration) *failureGuard {
	return &failureGuard{
		threshold: threshold,
		interval:  interval,
		state:     make(map[string]*failureState),
	}
}

func (g *failureGuard) enabled() bool {
	return g != nil && g.threshold > 0
}

// allow returns ErrRetryTooSoon (wrapping the last failure) while key is tripped.
func (g *failureGuard) allow(key string, now time.Time) error {
	if !g.enabled() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.state[key]
	if !ok || st.failures < g.threshold {
		return nil
	}
	if now.Sub(st.lastFailure) >= g.interval {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryTooSoon, st.lastErr)
}

func (g *failureGuard) record(key string, now time.Time, err error) {
	if !g.enabled() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		delete(g.state, key)
		return
	}
	st, ok := g.state[key]
	if !ok {
		st = &failureState{}
		g.state[key] = st
	}
	st.failures++
	st.lastFailure = now
	st.lastErr = err
}

func (g *failureGuard) reset() {
	if !g.enabled() {
		return
	}
	g.mu.Lock()
	g.state = make(map[string]*failureState)
	g.mu.Unlock()
}
