// Package config loads the processing configuration: provider
// credentials, resolver thresholds, and worker counts. Secrets are
// never stored in the file; entries name the environment variable that
// carries them.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig configures one metadata provider.
type ProviderConfig struct {
	// Enabled indicates if this provider participates (default true).
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// APIKeyEnv is the environment variable containing the API key,
	// for providers that require one.
	APIKeyEnv string `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`

	// RateLimit limits requests (e.g., "1/second", "30/minute").
	RateLimit string `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// ResolverConfig tunes the citation resolver federation.
type ResolverConfig struct {
	// Threshold is the minimum confidence for accepting a provider
	// result (default 0.6).
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// OracleThreshold is the minimum confidence for accepting an
	// oracle fallback guess (default 0.5).
	OracleThreshold float64 `yaml:"oracle_threshold,omitempty" json:"oracle_threshold,omitempty"`

	// Timeout is the wall-clock deadline per query (e.g., "5s").
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Workers is the provider fan-out pool size (minimum 4).
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// OracleConfig configures the contextual-guessing fallback.
type OracleConfig struct {
	// Enabled indicates if the oracle fallback is used (default true
	// when the key is available).
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// APIKeyEnv is the environment variable containing the API key.
	APIKeyEnv string `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`

	// Model overrides the default model identifier.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
}

// PipelineConfig tunes document processing.
type PipelineConfig struct {
	// Workers is the note-resolution pool size (minimum 10).
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// Style is the default citation style name.
	Style string `yaml:"style,omitempty" json:"style,omitempty"`

	// AddLinks enables the hyperlink activation pass (default true).
	AddLinks *bool `yaml:"add_links,omitempty" json:"add_links,omitempty"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	// Directory is the path watched for dropped documents.
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`

	// OutputDirectory receives processed documents. Defaults to the
	// watched directory.
	OutputDirectory string `yaml:"output_directory,omitempty" json:"output_directory,omitempty"`

	// Style overrides the pipeline style for watched documents.
	Style string `yaml:"style,omitempty" json:"style,omitempty"`
}

// Config is the complete processing configuration.
type Config struct {
	Resolver  ResolverConfig            `yaml:"resolver,omitempty" json:"resolver,omitempty"`
	Oracle    OracleConfig              `yaml:"oracle,omitempty" json:"oracle,omitempty"`
	Pipeline  PipelineConfig            `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	Watch     WatchConfig               `yaml:"watch,omitempty" json:"watch,omitempty"`
	Providers map[string]ProviderConfig `yaml:"providers,omitempty" json:"providers,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Threshold:       0.6,
			OracleThreshold: 0.5,
			Timeout:         "5s",
			Workers:         4,
		},
		Oracle: OracleConfig{
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Pipeline: PipelineConfig{
			Workers: 10,
			Style:   "Chicago Manual of Style",
		},
		Providers: map[string]ProviderConfig{
			"crossref":        {RateLimit: "2/second"},
			"semanticscholar": {RateLimit: "1/second"},
			"openalex":        {RateLimit: "2/second"},
			"websearch":       {APIKeyEnv: "BRAVE_API_KEY", RateLimit: "1/second"},
		},
	}
}

// Load reads configuration from a YAML file, filling unset fields with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Resolver.Threshold < 0 || c.Resolver.Threshold > 1 {
		return fmt.Errorf("resolver threshold %v outside [0, 1]", c.Resolver.Threshold)
	}
	if c.Resolver.OracleThreshold < 0 || c.Resolver.OracleThreshold > 1 {
		return fmt.Errorf("oracle threshold %v outside [0, 1]", c.Resolver.OracleThreshold)
	}
	if c.Resolver.Timeout != "" {
		if _, err := time.ParseDuration(c.Resolver.Timeout); err != nil {
			return fmt.Errorf("invalid resolver timeout %q: %w", c.Resolver.Timeout, err)
		}
	}
	for name, provider := range c.Providers {
		if provider.RateLimit != "" {
			if _, err := ParseRateInterval(provider.RateLimit); err != nil {
				return fmt.Errorf("provider %s: %w", name, err)
			}
		}
	}
	return nil
}

// ResolverTimeout returns the parsed resolver deadline.
func (c *Config) ResolverTimeout() time.Duration {
	if c.Resolver.Timeout == "" {
		return 5 * time.Second
	}
	timeout, err := time.ParseDuration(c.Resolver.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return timeout
}

// ProviderEnabled reports whether the named provider participates.
// Unknown providers default to enabled.
func (c *Config) ProviderEnabled(name string) bool {
	provider, exists := c.Providers[name]
	if !exists {
		return true
	}
	return provider.Enabled == nil || *provider.Enabled
}

// ProviderAPIKey resolves the named provider's API key from the
// environment, or "" when none is configured.
func (c *Config) ProviderAPIKey(name string) string {
	provider, exists := c.Providers[name]
	if !exists || provider.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(provider.APIKeyEnv)
}

// ProviderRateInterval returns the minimum spacing between requests to
// the named provider.
func (c *Config) ProviderRateInterval(name string) time.Duration {
	provider, exists := c.Providers[name]
	if !exists || provider.RateLimit == "" {
		return time.Second
	}
	interval, err := ParseRateInterval(provider.RateLimit)
	if err != nil {
		return time.Second
	}
	return interval
}

// OracleAPIKey resolves the oracle API key from the environment.
func (c *Config) OracleAPIKey() string {
	env := c.Oracle.APIKeyEnv
	if env == "" {
		env = "ANTHROPIC_API_KEY"
	}
	return os.Getenv(env)
}

// OracleEnabled reports whether the oracle fallback should be wired.
func (c *Config) OracleEnabled() bool {
	if c.Oracle.Enabled != nil && !*c.Oracle.Enabled {
		return false
	}
	return c.OracleAPIKey() != ""
}

// LinksEnabled reports whether the hyperlink pass runs.
func (c *Config) LinksEnabled() bool {
	return c.Pipeline.AddLinks == nil || *c.Pipeline.AddLinks
}

// ParseRateInterval parses rate limit strings like "2/second" or
// "30/minute" into the spacing between requests.
func ParseRateInterval(rateLimit string) (time.Duration, error) {
	parts := strings.Split(rateLimit, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid rate limit %q, want count/unit", rateLimit)
	}

	var duration time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "second", "s":
		duration = time.Second
	case "minute", "m", "min":
		duration = time.Minute
	case "hour", "h":
		duration = time.Hour
	default:
		return 0, fmt.Errorf("invalid rate limit unit %q", parts[1])
	}

	count := 0
	if _, err := fmt.Sscanf(strings.TrimSpace(parts[0]), "%d", &count); err != nil || count < 1 {
		return 0, fmt.Errorf("invalid rate limit count %q", parts[0])
	}

	return duration / time.Duration(count), nil
}
