package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/clubcache/cache"
)

// StatsSource is the part of cache.Store a StoreChecker needs.
type StatsSource interface {
	Stats() cache.Stats
}

// StoreCheckerConfig sets the limits of a StoreChecker.
type StoreCheckerConfig struct {
	// MaxExpiredRatio is the share of expired entries above which the store
	// is degraded. Default 0.5. A high ratio means the sweeper is not running.
	MaxExpiredRatio float64

	// MaxPending is the number of in-flight fetches above which the store is
	// degraded. Default 64.
	MaxPending int
}

// StoreChecker reports cache store health from its statistics.
type StoreChecker struct {
	src StatsSource
	cfg StoreCheckerConfig
}

// NewStoreChecker creates a checker for src.
func NewStoreChecker(src StatsSource, cfg StoreCheckerConfig) *StoreChecker {
	if cfg.MaxExpiredRatio <= 0 || cfg.MaxExpiredRatio > 1 {
		cfg.MaxExpiredRatio = 0.5
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 64
	}
	return &StoreChecker{src: src, cfg: cfg}
}

// Name returns "cache".
func (c *StoreChecker) Name() string { return "cache" }

// Check never reports unhealthy: a struggling cache still serves requests.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	st := c.src.Stats()
	ratio := 0.0
	if st.Total > 0 {
		ratio = float64(st.Expired) / float64(st.Total)
	}
	details := map[string]any{
		"total":         st.Total,
		"valid":         st.Valid,
		"expired":       st.Expired,
		"pending":       st.Pending,
		"expired_ratio": ratio,
	}

	switch {
	case st.Pending > c.cfg.MaxPending:
		r := Degraded(fmt.Sprintf("%d fetches in flight", st.Pending))
		r.Err = ErrThresholdExceeded
		return r.WithDetails(details)
	case st.Total > 0 && ratio > c.cfg.MaxExpiredRatio:
		r := Degraded(fmt.Sprintf("%.0f%% of entries expired", ratio*100))
		r.Err = ErrThresholdExceeded
		return r.WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("%d entries", st.Total)).WithDetails(details)
	}
}

var _ StatsSource = (*cache.Store)(nil)
