// Package config assembles the settings of the cache, the API client and
// telemetry from defaults and CLUBCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jonwraymond/clubcache/apiclient"
	"github.com/jonwraymond/clubcache/cache"
	"github.com/jonwraymond/clubcache/observe"
)

var (
	// ErrMissingEnv is returned when a ${VAR} reference names an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrInvalidValue is returned when a variable does not parse.
	ErrInvalidValue = errors.New("config: invalid value")

	// ErrInvalidConfig is wrapped by every Validate failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the complete runtime configuration.
type Config struct {
	API     APIConfig
	Cache   CacheConfig
	Observe observe.Config
}

// APIConfig configures the CMS client.
type APIConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
	WeatherTTL   time.Duration
	FeedTTL      time.Duration
}

// CacheConfig configures the request cache.
type CacheConfig struct {
	DefaultTTL       time.Duration
	MaxTTL           time.Duration
	SweepInterval    time.Duration
	FailureThreshold int
	RetryInterval    time.Duration
}

// Default returns the configuration used when no variables are set.
// API.BaseURL has no default.
func Default() Config {
	api := apiclient.DefaultConfig()
	pol := cache.DefaultPolicy()
	return Config{
		API: APIConfig{
			Timeout:      api.Timeout,
			RetryMax:     api.RetryMax,
			RetryWaitMin: api.RetryWaitMin,
			RetryWaitMax: api.RetryWaitMax,
			UserAgent:    api.UserAgent,
			WeatherTTL:   api.WeatherTTL,
			FeedTTL:      api.FeedTTL,
		},
		Cache: CacheConfig{
			DefaultTTL:       pol.DefaultTTL,
			MaxTTL:           pol.MaxTTL,
			SweepInterval:    pol.SweepInterval,
			FailureThreshold: pol.FailureThreshold,
			RetryInterval:    pol.RetryInterval,
		},
		Observe: observe.Config{
			ServiceName: "clubcache",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info", Backend: "json"},
		},
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.API.BaseURL == "" {
		add("api base URL is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("api base URL %q is not absolute", c.API.BaseURL)
	}
	if c.API.RetryMax < 0 {
		add("api retry max must not be negative")
	}
	if c.API.RetryWaitMin > c.API.RetryWaitMax {
		add("api retry wait min %s exceeds max %s", c.API.RetryWaitMin, c.API.RetryWaitMax)
	}
	if c.Cache.DefaultTTL <= 0 {
		add("cache default TTL must be positive")
	}
	if c.Cache.MaxTTL > 0 && c.Cache.DefaultTTL > c.Cache.MaxTTL {
		add("cache default TTL %s exceeds max TTL %s", c.Cache.DefaultTTL, c.Cache.MaxTTL)
	}
	if c.Cache.SweepInterval <= 0 {
		add("cache sweep interval must be positive")
	}
	if c.Cache.FailureThreshold < 0 {
		add("cache failure threshold must not be negative")
	}
	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// Policy returns the cache policy.
func (c Config) Policy() cache.Policy {
	return cache.Policy{
		DefaultTTL:       c.Cache.DefaultTTL,
		MaxTTL:           c.Cache.MaxTTL,
		SweepInterval:    c.Cache.SweepInterval,
		FailureThreshold: c.Cache.FailureThreshold,
		RetryInterval:    c.Cache.RetryInterval,
	}
}

// Client returns the API client configuration.
func (c Config) Client() apiclient.Config {
	return apiclient.Config{
		BaseURL:      c.API.BaseURL,
		Timeout:      c.API.Timeout,
		RetryMax:     c.API.RetryMax,
		RetryWaitMin: c.API.RetryWaitMin,
		RetryWaitMax: c.API.RetryWaitMax,
		UserAgent:    c.API.UserAgent,
		WeatherTTL:   c.API.WeatherTTL,
		FeedTTL:      c.API.FeedTTL,
	}
}

// FromEnv applies CLUBCACHE_* variables over Default. Values may reference
// other variables with ${VAR}. The result is not validated.
func FromEnv() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup is FromEnv with an explicit variable source.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	r.str("CLUBCACHE_API_URL", &cfg.API.BaseURL)
	r.str("CLUBCACHE_API_TOKEN", &cfg.API.Token)
	r.duration("CLUBCACHE_API_TIMEOUT", &cfg.API.Timeout)
	r.integer("CLUBCACHE_API_RETRY_MAX", &cfg.API.RetryMax)
	r.duration("CLUBCACHE_API_RETRY_WAIT_MIN", &cfg.API.RetryWaitMin)
	r.duration("CLUBCACHE_API_RETRY_WAIT_MAX", &cfg.API.RetryWaitMax)
	r.str("CLUBCACHE_API_USER_AGENT", &cfg.API.UserAgent)
	r.duration("CLUBCACHE_WEATHER_TTL", &cfg.API.WeatherTTL)
	r.duration("CLUBCACHE_FEED_TTL", &cfg.API.FeedTTL)

	r.duration("CLUBCACHE_CACHE_TTL", &cfg.Cache.DefaultTTL)
	r.duration("CLUBCACHE_CACHE_MAX_TTL", &cfg.Cache.MaxTTL)
	r.duration("CLUBCACHE_SWEEP_INTERVAL", &cfg.Cache.SweepInterval)
	r.integer("CLUBCACHE_FAILURE_THRESHOLD", &cfg.Cache.FailureThreshold)
	r.duration("CLUBCACHE_RETRY_INTERVAL", &cfg.Cache.RetryInterval)

	r.str("CLUBCACHE_SERVICE_NAME", &cfg.Observe.ServiceName)
	r.str("CLUBCACHE_VERSION", &cfg.Observe.Version)
	r.str("CLUBCACHE_TRACING_EXPORTER", &cfg.Observe.Tracing.Exporter)
	r.float("CLUBCACHE_TRACING_SAMPLE_PCT", &cfg.Observe.Tracing.SamplePct)
	r.str("CLUBCACHE_METRICS_EXPORTER", &cfg.Observe.Metrics.Exporter)
	r.str("CLUBCACHE_LOG_LEVEL", &cfg.Observe.Logging.Level)
	r.str("CLUBCACHE_LOG_BACKEND", &cfg.Observe.Logging.Backend)

	cfg.Observe.Tracing.Enabled = enabledExporter(cfg.Observe.Tracing.Exporter)
	cfg.Observe.Metrics.Enabled = enabledExporter(cfg.Observe.Metrics.Exporter)

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

func enabledExporter(name string) bool {
	return name != "" && name != "none"
}

// reader collects parse errors so all of them are reported together.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) raw(name string) (string, bool) {
	v, ok := r.lookup(name)
	if !ok || v == "" {
		return "", false
	}
	expanded, err := expandStrict(v, r.lookup)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", name, err))
		return "", false
	}
	return expanded, true
}

func (r *reader) str(name string, dst *string) {
	if v, ok := r.raw(name); ok {
		*dst = v
	}
}

func (r *reader) duration(name string, dst *time.Duration) {
	v, ok := r.raw(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, name, v, err))
		return
	}
	*dst = d
}

func (r *reader) integer(name string, dst *int) {
	v, ok := r.raw(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, name, v, err))
		return
	}
	*dst = n
}

func (r *reader) float(name string, dst *float64) {
	v, ok := r.raw(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, name, v, err))
		return
	}
	*dst = f
}

// ClientOptions returns the apiclient options implied by the configuration.
func (c Config) ClientOptions() []apiclient.Option {
	var opts []apiclient.Option
	if c.API.Token != "" {
		opts = append(opts, apiclient.WithToken(c.API.Token))
	}
	return opts
}
