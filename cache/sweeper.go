package cache

import (
	"context"
	"time"

	"github.com/jonwraymond/clubcache/observe"
)

// StartSweeper runs ClearExpired every Policy.SweepInterval until ctx is
// done or Close is called. Calling it while a sweeper is running is a no-op;
// once a sweeper has stopped because its ctx ended, StartSweeper starts a
// new one.
func (s *Store) StartSweeper(ctx context.Context) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if s.sweepStop != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.sweepStop = stop
	s.sweepDone = done

	interval := s.policy.SweepInterval
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.sweepMu.Lock()
				if s.sweepStop == stop {
					s.sweepStop, s.sweepDone = nil, nil
				}
				s.sweepMu.Unlock()
				return
			case <-stop:
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Store) sweep(ctx context.Context) {
	removed := s.ClearExpired()
	if removed == 0 {
		return
	}
	st := s.Stats()
	s.logger.Debug(ctx, "cache sweep removed expired entries",
		observe.F("removed", removed),
		observe.F("remaining", st.Total),
		observe.F("pending", st.Pending),
	)
}

// Close stops the background sweeper and waits for it to exit. Entries are
// kept. Close is idempotent and safe to call without StartSweeper.
func (s *Store) Close() {
	s.sweepMu.Lock()
	stop, done := s.sweepStop, s.sweepDone
	s.sweepStop, s.sweepDone = nil, nil
	s.sweepMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
