package cache

import (
	"context"
	"testing"
	"time"
)

func TestStore_SweeperRemovesExpired(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now), WithPolicy(Policy{SweepInterval: 5 * time.Millisecond}))
	defer s.Close()

	s.Set("weather", "rain", time.Second)
	s.Set("settings", "ok", time.Hour)
	clock.Advance(2 * time.Second)

	s.StartSweeper(context.Background())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if st := s.Stats(); st.Total == 1 && st.Expired == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("sweeper did not remove expired entry, stats = %+v", s.Stats())
}

func TestStore_SweeperStopsOnContext(t *testing.T) {
	s := NewStore(WithPolicy(Policy{SweepInterval: time.Millisecond}))
	ctx, cancel := context.WithCancel(context.Background())

	s.StartSweeper(ctx)
	s.StartSweeper(ctx) // second start is a no-op
	cancel()

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after context cancellation")
	}

	// Close is idempotent
	s.Close()
}

func TestStore_SweeperRestartsAfterContextEnds(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now), WithPolicy(Policy{SweepInterval: 2 * time.Millisecond}))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s.StartSweeper(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for {
		s.sweepMu.Lock()
		stopped := s.sweepStop == nil
		s.sweepMu.Unlock()
		if stopped {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper state not cleared after its context ended")
		}
		time.Sleep(time.Millisecond)
	}

	s.Set("weather", "rain", time.Second)
	clock.Advance(2 * time.Second)
	s.StartSweeper(context.Background())

	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.Stats().Total == 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Errorf("restarted sweeper did not remove expired entry, stats = %+v", s.Stats())
}
