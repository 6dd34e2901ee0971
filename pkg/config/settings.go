package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dotfix-sh/dotfix/pkg/telemetry"
)

// Settings are the engine options, loaded from an optional YAML file.
type Settings struct {
	// Parallel enables task-level and resource-level fan-out.
	Parallel bool `yaml:"parallel" json:"parallel"`

	// LogLevel is the minimum diagnostic log level.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`

	// LogFormat selects console or json diagnostic output.
	LogFormat string `yaml:"log_format" json:"log_format" validate:"omitempty,oneof=console json"`

	// StorePath is the run-history database path.
	StorePath string `yaml:"store_path" json:"store_path"`

	// PolicyPaths are additional Rego policy files loaded before a run.
	PolicyPaths []string `yaml:"policy_paths" json:"policy_paths"`

	// MetricsEnabled turns Prometheus metric collection on.
	MetricsEnabled bool `yaml:"metrics" json:"metrics"`

	// TraceExporter selects span export: none, stdout, or otlp.
	TraceExporter string `yaml:"trace_exporter" json:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`

	// TraceEndpoint is the OTLP gRPC endpoint when TraceExporter is otlp.
	TraceEndpoint string `yaml:"trace_endpoint" json:"trace_endpoint"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Parallel:      true,
		LogLevel:      "info",
		LogFormat:     "console",
		StorePath:     defaultStorePath(),
		TraceExporter: "none",
	}
}

// LoadSettings reads and validates a settings file. A missing file is not an
// error; the defaults are returned.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	if err := validator.New().Struct(settings); err != nil {
		return settings, fmt.Errorf("invalid settings %s: %w", path, err)
	}

	return settings, nil
}

// LoggingConfig maps the settings onto the telemetry logging configuration.
func (s Settings) LoggingConfig() telemetry.LoggingConfig {
	cfg := telemetry.DefaultLoggingConfig()
	if s.LogLevel != "" {
		cfg.Level = s.LogLevel
	}
	if s.LogFormat != "" {
		cfg.Format = s.LogFormat
	}
	return cfg
}

// TracingConfig maps the settings onto the telemetry tracing configuration.
func (s Settings) TracingConfig() telemetry.TracingConfig {
	cfg := telemetry.DefaultTracingConfig()
	if s.TraceExporter != "" && s.TraceExporter != "none" {
		cfg.Enabled = true
		cfg.Exporter = s.TraceExporter
		cfg.Endpoint = s.TraceEndpoint
		cfg.Insecure = true
	}
	return cfg
}

// MetricsConfig maps the settings onto the telemetry metrics configuration.
func (s Settings) MetricsConfig() telemetry.MetricsConfig {
	cfg := telemetry.DefaultMetricsConfig()
	cfg.Enabled = s.MetricsEnabled
	return cfg
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dotfix.db"
	}
	return filepath.Join(home, ".local", "state", "dotfix", "history.db")
}
