package cache

import "time"

// Policy configures store behavior.
type Policy struct {
	// DefaultTTL is used when a caller passes a TTL <= 0.
	DefaultTTL time.Duration

	// MaxTTL clamps caller TTLs. If zero, no maximum is enforced.
	MaxTTL time.Duration

	// SweepInterval is how often the background sweeper removes expired entries.
	SweepInterval time.Duration

	// FailureThreshold is the number of consecutive failures after which a
	// key fails fast until RetryInterval has elapsed. Zero disables the guard.
	FailureThreshold int

	// RetryInterval is the minimum time between fetches of a failing key.
	RetryInterval time.Duration
}

// DefaultPolicy returns the default store policy.
// DefaultTTL: 5 minutes, no MaxTTL, SweepInterval: 5 minutes, guard disabled.
// Caller TTLs are stored as given; a clamp is opt-in through MaxTTL.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL:    5 * time.Minute,
		SweepInterval: 5 * time.Minute,
		RetryInterval: 30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.DefaultTTL <= 0 {
		p.DefaultTTL = d.DefaultTTL
	}
	if p.SweepInterval <= 0 {
		p.SweepInterval = d.SweepInterval
	}
	if p.RetryInterval <= 0 {
		p.RetryInterval = d.RetryInterval
	}
	return p
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
