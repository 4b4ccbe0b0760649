package exporters

import (
	"context"
	"errors"
	"io"
	"testing"
)

func discardStdout(t *testing.T) {
	prev := Stdout
	Stdout = io.Discard
	t.Cleanup(func() { Stdout = prev })
}

func TestNewTracingExporter(t *testing.T) {
	discardStdout(t)
	ctx := context.Background()

	for _, name := range []string{"stdout", "none", ""} {
		exp, err := NewTracingExporter(ctx, name)
		if err != nil {
			t.Errorf("NewTracingExporter(%q) error = %v", name, err)
			continue
		}
		if exp == nil {
			t.Errorf("NewTracingExporter(%q) returned nil", name)
			continue
		}
		_ = exp.Shutdown(ctx)
	}

	if _, err := NewTracingExporter(ctx, "zipkin"); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("unknown exporter error = %v, want ErrUnknownExporter", err)
	}
}

func TestNewTracingExporter_MissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	for _, name := range []string{"otlp", "jaeger"} {
		if _, err := NewTracingExporter(context.Background(), name); !errors.Is(err, ErrEndpointNotConfigured) {
			t.Errorf("NewTracingExporter(%q) error = %v, want ErrEndpointNotConfigured", name, err)
		}
	}
}

func TestNewMetricsReader(t *testing.T) {
	discardStdout(t)
	ctx := context.Background()

	for _, name := range []string{"stdout", "none", "prometheus"} {
		reader, err := NewMetricsReader(ctx, name)
		if err != nil {
			t.Errorf("NewMetricsReader(%q) error = %v", name, err)
			continue
		}
		if reader == nil {
			t.Errorf("NewMetricsReader(%q) returned nil", name)
		}
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	if _, err := NewMetricsReader(ctx, "otlp"); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("otlp without endpoint error = %v, want ErrEndpointNotConfigured", err)
	}
	if _, err := NewMetricsReader(ctx, "statsd"); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("unknown exporter error = %v, want ErrUnknownExporter", err)
	}
}
