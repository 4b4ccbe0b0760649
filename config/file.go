package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a configuration file. Each field corresponds to
// one CLUBCACHE_* variable; values are strings in the variable's syntax and
// may reference the environment with ${VAR}.
//
//	api:
//	  url: https://club.example/api
//	  timeout: 10s
//	cache:
//	  ttl: 5m
//	observe:
//	  log_level: debug
type File struct {
	API struct {
		URL          string `yaml:"url"`
		Token        string `yaml:"token"`
		Timeout      string `yaml:"timeout"`
		RetryMax     string `yaml:"retry_max"`
		RetryWaitMin string `yaml:"retry_wait_min"`
		RetryWaitMax string `yaml:"retry_wait_max"`
		UserAgent    string `yaml:"user_agent"`
		WeatherTTL   string `yaml:"weather_ttl"`
		FeedTTL      string `yaml:"feed_ttl"`
	} `yaml:"api"`
	Cache struct {
		TTL              string `yaml:"ttl"`
		MaxTTL           string `yaml:"max_ttl"`
		SweepInterval    string `yaml:"sweep_interval"`
		FailureThreshold string `yaml:"failure_threshold"`
		RetryInterval    string `yaml:"retry_interval"`
	} `yaml:"cache"`
	Observe struct {
		ServiceName      string `yaml:"service_name"`
		Version          string `yaml:"version"`
		TracingExporter  string `yaml:"tracing_exporter"`
		TracingSamplePct string `yaml:"tracing_sample_pct"`
		MetricsExporter  string `yaml:"metrics_exporter"`
		LogLevel         string `yaml:"log_level"`
		LogBackend       string `yaml:"log_backend"`
	} `yaml:"observe"`
}

// vars maps the file onto the variable names FromLookup reads.
func (f *File) vars() map[string]string {
	return map[string]string{
		"CLUBCACHE_API_URL":            f.API.URL,
		"CLUBCACHE_API_TOKEN":          f.API.Token,
		"CLUBCACHE_API_TIMEOUT":        f.API.Timeout,
		"CLUBCACHE_API_RETRY_MAX":      f.API.RetryMax,
		"CLUBCACHE_API_RETRY_WAIT_MIN": f.API.RetryWaitMin,
		"CLUBCACHE_API_RETRY_WAIT_MAX": f.API.RetryWaitMax,
		"CLUBCACHE_API_USER_AGENT":     f.API.UserAgent,
		"CLUBCACHE_WEATHER_TTL":        f.API.WeatherTTL,
		"CLUBCACHE_FEED_TTL":           f.API.FeedTTL,
		"CLUBCACHE_CACHE_TTL":          f.Cache.TTL,
		"CLUBCACHE_CACHE_MAX_TTL":      f.Cache.MaxTTL,
		"CLUBCACHE_SWEEP_INTERVAL":     f.Cache.SweepInterval,
		"CLUBCACHE_FAILURE_THRESHOLD":  f.Cache.FailureThreshold,
		"CLUBCACHE_RETRY_INTERVAL":     f.Cache.RetryInterval,
		"CLUBCACHE_SERVICE_NAME":       f.Observe.ServiceName,
		"CLUBCACHE_VERSION":            f.Observe.Version,
		"CLUBCACHE_TRACING_EXPORTER":   f.Observe.TracingExporter,
		"CLUBCACHE_TRACING_SAMPLE_PCT": f.Observe.TracingSamplePct,
		"CLUBCACHE_METRICS_EXPORTER":   f.Observe.MetricsExporter,
		"CLUBCACHE_LOG_LEVEL":          f.Observe.LogLevel,
		"CLUBCACHE_LOG_BACKEND":        f.Observe.LogBackend,
	}
}

// ParseFile decodes a YAML configuration file. Unknown keys are an error.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return &f, nil
}

// Load reads the YAML file at path and applies the environment on top of it:
// a set CLUBCACHE_* variable wins over the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return FromLookup(layered(os.LookupEnv, f.vars()))
}

// layered resolves a name from lookup first and from fallback second.
// Empty fallback values count as unset.
func layered(lookup func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := lookup(name); ok && v != "" {
			return v, true
		}
		v, ok := fallback[name]
		return v, ok && v != ""
	}
}
