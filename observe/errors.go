package observe

import (
	"errors"
	"strings"
)

var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
	ErrInvalidLogBackend      = errors.New("observe: invalid log backend")

	// ErrNilObserver is returned by MiddlewareFromObserver.
	ErrNilObserver = errors.New("observe: observer is nil")
)

// Accepted names per setting. The empty string selects the default.
var (
	tracingExporters = set("otlp", "jaeger", "stdout", "none", "")
	metricsExporters = set("otlp", "prometheus", "stdout", "none", "")
	logLevels        = set("debug", "info", "warn", "error", "")
	logBackends      = set("json", "zap", "")
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// redactedKeys holds lower-cased field keys whose values never reach a log.
// Admin calls carry bearer tokens and user records carry passwords.
var redactedKeys = set(
	"authorization",
	"cookie",
	"set-cookie",
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
)

// Redacted reports whether values logged under key are replaced by
// "[REDACTED]". Matching ignores case.
func Redacted(key string) bool {
	return redactedKeys[strings.ToLower(key)]
}
