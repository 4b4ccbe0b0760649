package cache

import (
	"testing"
	"time"
)

func TestPolicy_EffectiveTTL(t *testing.T) {
	p := Policy{DefaultTTL: 5 * time.Minute, MaxTTL: time.Hour}

	tests := []struct {
		name     string
		override time.Duration
		want     time.Duration
	}{
		{"zero uses default", 0, 5 * time.Minute},
		{"negative uses default", -time.Second, 5 * time.Minute},
		{"override kept", 10 * time.Minute, 10 * time.Minute},
		{"clamped to max", 2 * time.Hour, time.Hour},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.EffectiveTTL(tc.override); got != tc.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tc.override, got, tc.want)
			}
		})
	}
}

func TestPolicy_WithDefaults(t *testing.T) {
	p := Policy{FailureThreshold: 3}.withDefaults()
	d := DefaultPolicy()

	if p.DefaultTTL != d.DefaultTTL || p.SweepInterval != d.SweepInterval || p.RetryInterval != d.RetryInterval {
		t.Errorf("withDefaults() = %+v, want zero fields from %+v", p, d)
	}
	if p.FailureThreshold != 3 {
		t.Errorf("withDefaults() changed FailureThreshold to %d", p.FailureThreshold)
	}
	if p.MaxTTL != 0 {
		t.Errorf("withDefaults() should leave MaxTTL=0 (no maximum), got %v", p.MaxTTL)
	}
}

func TestDefaultPolicy_NoMaxTTL(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxTTL != 0 {
		t.Errorf("DefaultPolicy().MaxTTL = %v, want 0 (no clamp)", p.MaxTTL)
	}
	if got := p.EffectiveTTL(72 * time.Hour); got != 72*time.Hour {
		t.Errorf("EffectiveTTL(72h) = %v, want 72h", got)
	}
}
