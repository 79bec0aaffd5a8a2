package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg == nil {
		t.Fatal("NewDefaultConfig returned nil")
	}

	// Check Ollama defaults
	if cfg.Providers.Ollama.URL != DefaultOllamaURL {
		t.Errorf("expected Ollama URL %q, got %q", DefaultOllamaURL, cfg.Providers.Ollama.URL)
	}
	if !cfg.Providers.Ollama.Enabled {
		t.Error("expected Ollama to be enabled by default")
	}
	if cfg.Providers.OpenAI.Timeout != DefaultTimeout {
		t.Errorf("expected OpenAI timeout %v, got %v", DefaultTimeout, cfg.Providers.OpenAI.Timeout)
	}

	// Check tokenizer defaults
	if cfg.Tokenizers.Directory != DefaultTokenizersDirectory {
		t.Errorf("expected tokenizers directory %q, got %q", DefaultTokenizersDirectory, cfg.Tokenizers.Directory)
	}

	// Check usage ledger defaults
	if !cfg.Usage.Enabled {
		t.Error("expected usage ledger to be enabled by default")
	}
	if cfg.Usage.DatabasePath != DefaultUsageDatabasePath {
		t.Errorf("expected database path %q, got %q", DefaultUsageDatabasePath, cfg.Usage.DatabasePath)
	}

	// Check logging defaults
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("expected log level %q, got %q", DefaultLogLevel, cfg.Logging.Level)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("expected log format %q, got %q", DefaultLogFormat, cfg.Logging.Format)
	}

	// Check tracing defaults
	if cfg.Observability.Tracing.Enabled {
		t.Error("expected tracing to be disabled by default")
	}
}

func TestConfig_Validate_DefaultIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got error: %v", err)
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid debug json",
			config:  LoggingConfig{Level: "debug", Format: "json"},
			wantErr: false,
		},
		{
			name:    "valid info text",
			config:  LoggingConfig{Level: "info", Format: "text"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			config:  LoggingConfig{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid log format",
			config:  LoggingConfig{Level: "info", Format: "invalid"},
			wantErr: true,
		},
		{
			name:    "empty values are valid",
			config:  LoggingConfig{Level: "", Format: ""},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloudConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  CloudConfig
		wantErr bool
	}{
		{
			name:    "enabled without api key is valid",
			config:  CloudConfig{Enabled: true, Timeout: time.Minute},
			wantErr: false,
		},
		{
			name:    "negative timeout",
			config:  CloudConfig{Enabled: true, Timeout: -time.Second},
			wantErr: true,
		},
		{
			name:    "valid base url",
			config:  CloudConfig{Enabled: true, BaseURL: "https://proxy.example.com/v1"},
			wantErr: false,
		},
		{
			name:    "base url with bad scheme",
			config:  CloudConfig{Enabled: true, BaseURL: "ftp://example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate("openai")
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOllamaConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  OllamaConfig
		wantErr bool
	}{
		{
			name:    "valid",
			config:  OllamaConfig{URL: DefaultOllamaURL, Enabled: true, Timeout: time.Minute},
			wantErr: false,
		},
		{
			name:    "enabled without url",
			config:  OllamaConfig{Enabled: true},
			wantErr: true,
		},
		{
			name:    "disabled without url is valid",
			config:  OllamaConfig{Enabled: false},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenizersConfig_Validate(t *testing.T) {
	valid := TokenizersConfig{Directory: "/tmp/tokenizers"}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	invalid := TokenizersConfig{}
	if err := invalid.Validate(); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestUsageConfig_Validate(t *testing.T) {
	invalid := UsageConfig{Enabled: true}
	if err := invalid.Validate(); err == nil {
		t.Error("expected error for enabled ledger without database path")
	}

	disabled := UsageConfig{Enabled: false}
	if err := disabled.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTracingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  TracingConfig
		wantErr bool
	}{
		{
			name:    "disabled skips validation",
			config:  TracingConfig{Enabled: false},
			wantErr: false,
		},
		{
			name: "valid stdout",
			config: TracingConfig{
				Enabled:      true,
				ExporterType: "stdout",
				SampleRate:   1.0,
				ServiceName:  "modelbridge",
			},
			wantErr: false,
		},
		{
			name: "otlp without endpoint",
			config: TracingConfig{
				Enabled:      true,
				ExporterType: "otlp",
				SampleRate:   1.0,
				ServiceName:  "modelbridge",
			},
			wantErr: true,
		},
		{
			name: "sample rate out of range",
			config: TracingConfig{
				Enabled:      true,
				ExporterType: "stdout",
				SampleRate:   1.5,
				ServiceName:  "modelbridge",
			},
			wantErr: true,
		},
		{
			name: "unknown exporter type",
			config: TracingConfig{
				Enabled:      true,
				ExporterType: "jaeger",
				SampleRate:   1.0,
				ServiceName:  "modelbridge",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_LoadMissingFileReturnsDefaults(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Providers.Ollama.URL != DefaultOllamaURL {
		t.Errorf("expected default config, got Ollama URL %q", cfg.Providers.Ollama.URL)
	}
}

func TestLoader_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	cfg := NewDefaultConfig()
	cfg.Providers.OpenAI.BaseURL = "https://proxy.example.com/v1"
	cfg.Logging.Level = "debug"
	cfg.Usage.DatabasePath = filepath.Join(dir, "usage.db")

	if err := loader.Save(cfg, ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// File should be private; it may hold API keys.
	info, err := os.Stat(loader.DefaultConfigPath())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Providers.OpenAI.BaseURL != cfg.Providers.OpenAI.BaseURL {
		t.Errorf("BaseURL = %q, want %q", loaded.Providers.OpenAI.BaseURL, cfg.Providers.OpenAI.BaseURL)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", loaded.Logging.Level)
	}
}

func TestLoader_LoadFromFileMissing(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	if _, err := loader.LoadFromFile(filepath.Join(loader.ConfigDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandPath("~/.modelbridge/modelbridge.db")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	want := filepath.Join(home, ".modelbridge/modelbridge.db")
	if got != want {
		t.Errorf("ExpandPath() = %q, want %q", got, want)
	}

	abs, err := ExpandPath("/var/lib/modelbridge.db")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if abs != "/var/lib/modelbridge.db" {
		t.Errorf("absolute path must pass through, got %q", abs)
	}
}
