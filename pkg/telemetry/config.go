package telemetry

import "time"

// LoggingConfig controls the structured diagnostic log (distinct from the
// human-readable display stream).
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format selects "console" or "json" output.
	Format string `json:"format" yaml:"format"`

	// Output selects "stdout", "stderr", or a file path.
	Output string `json:"output" yaml:"output"`
}

// DefaultLoggingConfig returns the logging defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// TracingConfig controls OpenTelemetry trace export.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Exporter selects "stdout", "otlp", or "none".
	Exporter string `json:"exporter" yaml:"exporter"`

	// Endpoint is the OTLP gRPC endpoint, host:port.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `json:"insecure" yaml:"insecure"`

	// SamplingRate is the trace sampling ratio in [0, 1].
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate"`

	// ExportTimeout bounds a single export batch.
	ExportTimeout time.Duration `json:"export_timeout" yaml:"export_timeout"`
}

// DefaultTracingConfig returns the tracing defaults (disabled).
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:       false,
		Exporter:      "none",
		SamplingRate:  1.0,
		ExportTimeout: 30 * time.Second,
	}
}

// MetricsConfig controls the Prometheus metrics registry.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace" yaml:"namespace"`
}

// DefaultMetricsConfig returns the metrics defaults.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "dotfix",
	}
}
