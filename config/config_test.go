package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/clubcache/observe"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("Cache.DefaultTTL = %v, want 5m", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.SweepInterval != 5*time.Minute {
		t.Errorf("Cache.SweepInterval = %v, want 5m", cfg.Cache.SweepInterval)
	}
	if cfg.Cache.MaxTTL != 0 {
		t.Errorf("Cache.MaxTTL = %v, want 0 (no clamp)", cfg.Cache.MaxTTL)
	}
	if cfg.API.WeatherTTL != 10*time.Minute {
		t.Errorf("API.WeatherTTL = %v, want 10m", cfg.API.WeatherTTL)
	}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "base URL is required") {
		t.Fatalf("Validate() = %v, want missing base URL", err)
	}

	cfg.API.BaseURL = "https://club.example/api"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with base URL = %v, want nil", err)
	}
}

func TestFromLookup(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"HOST":                        "club.example",
		"CLUBCACHE_API_URL":           "https://${HOST}/api",
		"CLUBCACHE_API_RETRY_MAX":     "5",
		"CLUBCACHE_CACHE_TTL":         "2m",
		"CLUBCACHE_FAILURE_THRESHOLD": "3",
		"CLUBCACHE_TRACING_EXPORTER":  "stdout",
		"CLUBCACHE_LOG_BACKEND":       "zap",
		"CLUBCACHE_API_TOKEN":         "$$ecret",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	if cfg.API.BaseURL != "https://club.example/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.RetryMax != 5 {
		t.Errorf("API.RetryMax = %d, want 5", cfg.API.RetryMax)
	}
	if cfg.API.Token != "$ecret" {
		t.Errorf("API.Token = %q, want $ecret", cfg.API.Token)
	}
	if cfg.Cache.DefaultTTL != 2*time.Minute {
		t.Errorf("Cache.DefaultTTL = %v, want 2m", cfg.Cache.DefaultTTL)
	}
	if !cfg.Observe.Tracing.Enabled || cfg.Observe.Metrics.Enabled {
		t.Errorf("tracing enabled = %v, metrics enabled = %v; want true, false",
			cfg.Observe.Tracing.Enabled, cfg.Observe.Metrics.Enabled)
	}

	pol := cfg.Policy()
	if pol.DefaultTTL != 2*time.Minute || pol.FailureThreshold != 3 {
		t.Errorf("Policy() = %+v", pol)
	}
	client := cfg.Client()
	if client.BaseURL != cfg.API.BaseURL || client.RetryMax != 5 {
		t.Errorf("Client() = %+v", client)
	}
	if len(cfg.ClientOptions()) != 1 {
		t.Errorf("ClientOptions() len = %d, want 1", len(cfg.ClientOptions()))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFromLookup_Errors(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"CLUBCACHE_API_URL":       "https://${MISSING_HOST}/api",
		"CLUBCACHE_CACHE_TTL":     "five minutes",
		"CLUBCACHE_API_RETRY_MAX": "many",
	}))
	if err == nil {
		t.Fatal("FromLookup() error = nil, want errors")
	}
	if !errors.Is(err, ErrMissingEnv) {
		t.Errorf("error %v does not wrap ErrMissingEnv", err)
	}
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("error %v does not wrap ErrInvalidValue", err)
	}
	for _, name := range []string{"MISSING_HOST", "CLUBCACHE_CACHE_TTL", "CLUBCACHE_API_RETRY_MAX"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "not-a-url"
	cfg.Cache.MaxTTL = 24 * time.Hour
	cfg.Cache.DefaultTTL = 48 * time.Hour
	cfg.Cache.FailureThreshold = -1
	cfg.Observe.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error does not wrap ErrInvalidConfig: %v", err)
	}
	if !errors.Is(err, observe.ErrInvalidLogLevel) {
		t.Errorf("error does not wrap observe.ErrInvalidLogLevel: %v", err)
	}
	for _, want := range []string{"not absolute", "exceeds max TTL", "failure threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("CLUBCACHE_TEST_PRESENT", "ok")

	out, err := ExpandEnvStrict("a=${CLUBCACHE_TEST_PRESENT} cost=$$5")
	if err != nil {
		t.Fatalf("ExpandEnvStrict() error = %v", err)
	}
	if out != "a=ok cost=$5" {
		t.Errorf("ExpandEnvStrict() = %q", out)
	}

	_, err = ExpandEnvStrict("${CLUBCACHE_TEST_PRESENT} ${CLUBCACHE_TEST_MISSING}")
	if !errors.Is(err, ErrMissingEnv) || !strings.Contains(err.Error(), "CLUBCACHE_TEST_MISSING") {
		t.Errorf("ExpandEnvStrict() error = %v, want missing CLUBCACHE_TEST_MISSING", err)
	}
}
