package application

import (
	"path/filepath"
	"testing"

	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.Tokenizers.Directory = filepath.Join(dir, "tokenizers")
	cfg.Usage.DatabasePath = filepath.Join(dir, "modelbridge.db")
	return cfg
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if c.Logger() == nil {
		t.Error("Logger() = nil")
	}
	if c.Tracer() == nil {
		t.Error("Tracer() = nil")
	}
	if c.TokenizerRegistry() == nil {
		t.Error("TokenizerRegistry() = nil")
	}
	if c.TokenCounter() == nil {
		t.Error("TokenCounter() = nil")
	}
	if c.ProviderRegistry() == nil {
		t.Error("ProviderRegistry() = nil")
	}
	if c.ProviderFactory() == nil {
		t.Error("ProviderFactory() = nil")
	}
	if c.InvokeService() == nil {
		t.Error("InvokeService() = nil")
	}
	if c.UsageRepository() == nil {
		t.Error("UsageRepository() = nil with ledger enabled")
	}
	if c.DB() == nil {
		t.Error("DB() = nil with ledger enabled")
	}
}

func TestNewContainer_LedgerDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Usage.Enabled = false

	c, err := NewContainer(cfg, false)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if c.UsageRepository() != nil {
		t.Error("UsageRepository() must be nil when the ledger is disabled")
	}
	if c.InvokeService() == nil {
		t.Error("InvokeService() = nil")
	}
}

func TestContainer_Close(t *testing.T) {
	c, err := NewContainer(testConfig(t), false)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
