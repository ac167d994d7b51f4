package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "citeflex.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
resolver:
  threshold: 0.7
  timeout: 10s
  workers: 8
pipeline:
  style: Harvard
providers:
  websearch:
    api_key_env: MY_BRAVE_KEY
    rate_limit: 30/minute
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Resolver.Threshold != 0.7 {
		t.Errorf("Threshold = %v", config.Resolver.Threshold)
	}
	// untouched fields keep defaults
	if config.Resolver.OracleThreshold != 0.5 {
		t.Errorf("OracleThreshold = %v, want default", config.Resolver.OracleThreshold)
	}
	if config.ResolverTimeout() != 10*time.Second {
		t.Errorf("ResolverTimeout() = %v", config.ResolverTimeout())
	}
	if config.Pipeline.Style != "Harvard" {
		t.Errorf("Style = %q", config.Pipeline.Style)
	}
	if got := config.ProviderRateInterval("websearch"); got != 2*time.Second {
		t.Errorf("ProviderRateInterval(websearch) = %v, want 2s", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"threshold above one", "resolver:\n  threshold: 1.4\n"},
		{"bad timeout", "resolver:\n  timeout: soon\n"},
		{"bad rate limit", "providers:\n  crossref:\n    rate_limit: fast\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() accepted invalid config")
			}
		})
	}
}

func TestProviderAPIKeyFromEnv(t *testing.T) {
	t.Setenv("CITEFLEX_TEST_KEY", "secret-value")

	config := Default()
	config.Providers["websearch"] = ProviderConfig{APIKeyEnv: "CITEFLEX_TEST_KEY"}

	if got := config.ProviderAPIKey("websearch"); got != "secret-value" {
		t.Errorf("ProviderAPIKey() = %q", got)
	}
	if got := config.ProviderAPIKey("crossref"); got != "" {
		t.Errorf("ProviderAPIKey(crossref) = %q, want empty", got)
	}
}

func TestProviderEnabled(t *testing.T) {
	disabled := false
	config := Default()
	config.Providers["openalex"] = ProviderConfig{Enabled: &disabled}

	if config.ProviderEnabled("openalex") {
		t.Error("disabled provider reported enabled")
	}
	if !config.ProviderEnabled("crossref") {
		t.Error("default provider reported disabled")
	}
	if !config.ProviderEnabled("never-configured") {
		t.Error("unknown provider should default to enabled")
	}
}

func TestOracleEnabled(t *testing.T) {
	t.Setenv("CITEFLEX_ORACLE_KEY", "key")

	config := Default()
	config.Oracle.APIKeyEnv = "CITEFLEX_ORACLE_KEY"
	if !config.OracleEnabled() {
		t.Error("oracle with key reported disabled")
	}

	disabled := false
	config.Oracle.Enabled = &disabled
	if config.OracleEnabled() {
		t.Error("explicitly disabled oracle reported enabled")
	}

	config.Oracle.Enabled = nil
	config.Oracle.APIKeyEnv = "CITEFLEX_MISSING_KEY"
	if config.OracleEnabled() {
		t.Error("oracle without key reported enabled")
	}
}

func TestParseRateInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"1/second", time.Second, false},
		{"2/second", 500 * time.Millisecond, false},
		{"30/minute", 2 * time.Second, false},
		{"1/hour", time.Hour, false},
		{"fast", 0, true},
		{"0/second", 0, true},
		{"1/fortnight", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRateInterval(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRateInterval(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseRateInterval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
