// Package config provides configuration structs and utilities for the modelbridge application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config represents the root configuration for the modelbridge application.
type Config struct {
	Providers     ProviderConfigs     `yaml:"providers"`
	Tokenizers    TokenizersConfig    `yaml:"tokenizers"`
	Usage         UsageConfig         `yaml:"usage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ProviderConfigs holds configuration for all supported LLM providers.
type ProviderConfigs struct {
	OpenAI CloudConfig  `yaml:"openai"`
	Cohere CloudConfig  `yaml:"cohere"`
	Ollama OllamaConfig `yaml:"ollama"`
}

// OllamaConfig holds configuration for the Ollama local LLM provider.
type OllamaConfig struct {
	URL     string        `yaml:"url"`
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// CloudConfig holds configuration for cloud-based LLM providers.
type CloudConfig struct {
	APIKey  string        `yaml:"api_key,omitempty"`
	BaseURL string        `yaml:"base_url,omitempty"` // Optional custom endpoint (e.g., for proxies)
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// TokenizersConfig holds configuration for tokenizer artifact discovery.
type TokenizersConfig struct {
	Directory string `yaml:"directory"` // Root directory holding per-family artifact bundles
	Watch     bool   `yaml:"watch"`     // Whether to watch the directory for artifact changes
}

// UsageConfig holds configuration for the invocation usage ledger.
type UsageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// Default configuration values.
const (
	DefaultOllamaURL           = "http://localhost:11434"
	DefaultTimeout             = 120 * time.Second
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultTokenizersDirectory = "~/.modelbridge/tokenizers"
	DefaultUsageEnabled        = true
	DefaultUsageDatabasePath   = "~/.modelbridge/modelbridge.db"

	// Observability defaults
	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "modelbridge"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Providers: ProviderConfigs{
			OpenAI: CloudConfig{
				Enabled: true,
				Timeout: DefaultTimeout,
			},
			Cohere: CloudConfig{
				Enabled: true,
				Timeout: DefaultTimeout,
			},
			Ollama: OllamaConfig{
				URL:     DefaultOllamaURL,
				Enabled: true,
				Timeout: DefaultTimeout,
			},
		},
		Tokenizers: TokenizersConfig{
			Directory: DefaultTokenizersDirectory,
			Watch:     false,
		},
		Usage: UsageConfig{
			Enabled:      DefaultUsageEnabled,
			DatabasePath: DefaultUsageDatabasePath,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Providers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("providers: %w", err))
	}

	if err := c.Tokenizers.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tokenizers: %w", err))
	}

	if err := c.Usage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("usage: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ProviderConfigs is valid.
func (p *ProviderConfigs) Validate() error {
	var errs []error

	if err := p.OpenAI.Validate("openai"); err != nil {
		errs = append(errs, err)
	}

	if err := p.Cohere.Validate("cohere"); err != nil {
		errs = append(errs, err)
	}

	if err := p.Ollama.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ollama: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the CloudConfig is valid. API keys are optional here
// because they may instead arrive via environment variables.
func (c *CloudConfig) Validate(providerName string) error {
	var errs []error

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s: timeout must be non-negative", providerName))
	}

	if c.BaseURL != "" {
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid base_url: %w", providerName, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errs = append(errs, fmt.Errorf("%s: base_url must use http or https scheme", providerName))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the OllamaConfig is valid.
func (o *OllamaConfig) Validate() error {
	var errs []error

	if o.Enabled && o.URL == "" {
		errs = append(errs, errors.New("url is required when enabled"))
	}

	if o.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the TokenizersConfig is valid.
func (t *TokenizersConfig) Validate() error {
	if t.Directory == "" {
		return errors.New("directory is required")
	}
	return nil
}

// Validate checks if the UsageConfig is valid.
func (u *UsageConfig) Validate() error {
	if u.Enabled && u.DatabasePath == "" {
		return errors.New("database_path is required when enabled")
	}
	return nil
}

// Validate checks if the LoggingConfig is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	if l.Level != "" && !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", l.Level))
	}

	if l.Format != "" && !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be one of json, text", l.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks if the ObservabilityConfig is valid.
func (o *ObservabilityConfig) Validate() error {
	if err := o.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Validate checks if the TracingConfig is valid.
func (t *TracingConfig) Validate() error {
	var errs []error

	if t.Enabled {
		if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
			errs = append(errs, fmt.Errorf("invalid exporter_type %q: must be one of none, stdout, otlp", t.ExporterType))
		}
		if t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
			errs = append(errs, errors.New("otlp_endpoint is required when exporter_type is 'otlp'"))
		}
		if t.SampleRate < 0 || t.SampleRate > 1 {
			errs = append(errs, errors.New("sample_rate must be between 0.0 and 1.0"))
		}
		if t.ServiceName == "" {
			errs = append(errs, errors.New("service_name is required when tracing is enabled"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
