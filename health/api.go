package health

import (
	"context"
	"fmt"
	"time"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jonwraymond/clubcache/apiclient"
)

// Pinger is anything that can confirm a remote is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// APICheckerConfig sets the limits of an APIChecker.
type APICheckerConfig struct {
	// SlowThreshold marks a successful ping slower than this as degraded.
	// Default 2s.
	SlowThreshold time.Duration
}

// APIChecker reports whether the CMS API answers.
type APIChecker struct {
	p   Pinger
	cfg APICheckerConfig
}

// NewAPIChecker creates a checker pinging p.
func NewAPIChecker(p Pinger, cfg APICheckerConfig) *APIChecker {
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 2 * time.Second
	}
	return &APIChecker{p: p, cfg: cfg}
}

// Name returns "api".
func (c *APIChecker) Name() string { return "api" }

// Check pings the API. An error is unhealthy except a rate limit, which is
// degraded like a ping slower than SlowThreshold.
func (c *APIChecker) Check(ctx context.Context) Result {
	start := time.Now()
	err := c.p.Ping(ctx)
	latency := time.Since(start)

	details := map[string]any{"latency": latency.String()}
	if err != nil {
		details["code"] = string(platformerrors.GetCode(err))
		// A rate-limited API is up but busy.
		if platformerrors.GetCode(err) == platformerrors.CodeRateLimit {
			r := Degraded("api rate limited")
			r.Err = err
			return r.WithDetails(details)
		}
		return Unhealthy("api unreachable", err).WithDetails(details)
	}
	if latency > c.cfg.SlowThreshold {
		r := Degraded(fmt.Sprintf("api slow: %s", latency))
		r.Err = ErrThresholdExceeded
		return r.WithDetails(details)
	}
	return Healthy("api reachable").WithDetails(details)
}

var _ Pinger = (*apiclient.Client)(nil)
