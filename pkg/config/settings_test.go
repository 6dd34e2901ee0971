package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_MissingFile(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed for a missing file: %v", err)
	}

	defaults := DefaultSettings()
	if settings.LogLevel != defaults.LogLevel {
		t.Errorf("Expected default log level %q, got %q", defaults.LogLevel, settings.LogLevel)
	}
	if !settings.Parallel {
		t.Error("Expected parallel to default to true")
	}
	if settings.TraceExporter != "none" {
		t.Errorf("Expected trace exporter to default to none, got %q", settings.TraceExporter)
	}
}

func TestLoadSettings_EmptyPath(t *testing.T) {
	settings, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings failed for an empty path: %v", err)
	}
	if settings.StorePath == "" {
		t.Error("Expected a default store path")
	}
}

func TestLoadSettings_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
parallel: false
log_level: debug
log_format: json
store_path: /tmp/dotfix-test.db
policy_paths:
  - /etc/dotfix/policies
metrics: true
trace_exporter: stdout
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if settings.Parallel {
		t.Error("Expected parallel to be false")
	}
	if settings.LogLevel != "debug" || settings.LogFormat != "json" {
		t.Errorf("Unexpected log settings: %q %q", settings.LogLevel, settings.LogFormat)
	}
	if settings.StorePath != "/tmp/dotfix-test.db" {
		t.Errorf("Unexpected store path: %q", settings.StorePath)
	}
	if len(settings.PolicyPaths) != 1 {
		t.Errorf("Unexpected policy paths: %v", settings.PolicyPaths)
	}
	if !settings.MetricsEnabled {
		t.Error("Expected metrics to be enabled")
	}
	if !settings.TracingConfig().Enabled {
		t.Error("Expected tracing to be enabled for the stdout exporter")
	}
}

func TestLoadSettings_InvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Fatal("Expected error for an invalid log level")
	}
}

func TestLoadSettings_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("log_level: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestSettings_TracingConfigDisabledByDefault(t *testing.T) {
	if DefaultSettings().TracingConfig().Enabled {
		t.Error("Expected tracing to be disabled by default")
	}
}
