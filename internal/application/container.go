// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	adapterProvider "github.com/jbctechsolutions/modelbridge/internal/adapters/provider"
	"github.com/jbctechsolutions/modelbridge/internal/application/invoke"
	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/config"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/logging"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/storage"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/tokenizer"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	config  *config.Config
	verbose bool // Override log level to debug when true

	// Database connection
	dbConn *storage.Connection
	db     *sql.DB

	// Repositories
	usageRepo ports.UsageStore

	// Tokenization
	tokenizerRegistry *tokenizer.Registry
	tokenCounter      *tokenizer.Counter
	tokenizerWatcher  *tokenizer.Watcher

	// Provider bindings
	providerRegistry *adapterProvider.Registry
	providerFactory  *adapterProvider.Factory

	// Application services
	invokeService *invoke.Service

	// Observability
	logger *logging.Logger
	tracer *tracing.Tracer
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initTokenizers(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize tokenizers: %w", err)
	}

	if err := c.initDatabase(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := c.initProviders(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

// initObservability initializes logging and tracing.
func (c *Container) initObservability() error {
	logLevel := logging.Level(c.config.Logging.Level)
	if c.verbose {
		logLevel = logging.LevelDebug
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logLevel
	logCfg.Format = logFormat
	c.logger = logging.New(logCfg)

	if c.config.Observability.Tracing.Enabled {
		tracingCfg := tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Observability.Tracing.ExporterType),
			OTLPEndpoint: c.config.Observability.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Observability.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Observability.Tracing.SampleRate,
		}
		tracer, err := tracing.New(context.Background(), tracingCfg)
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	return nil
}

// initTokenizers initializes the tokenizer artifact registry and counter.
func (c *Container) initTokenizers() error {
	root, err := config.ExpandPath(c.config.Tokenizers.Directory)
	if err != nil {
		return fmt.Errorf("failed to resolve tokenizer directory: %w", err)
	}

	c.tokenizerRegistry = tokenizer.NewRegistry(root)
	c.tokenCounter = tokenizer.NewCounter(c.tokenizerRegistry)

	if c.config.Tokenizers.Watch {
		watcher, err := tokenizer.NewWatcher(c.tokenizerRegistry, c.logger)
		if err != nil {
			// Artifact hot reload is optional.
			c.logger.Warn("failed to initialize tokenizer watcher", "error", err)
			return nil
		}
		c.tokenizerWatcher = watcher
	}

	return nil
}

// initDatabase opens the usage ledger database when the ledger is enabled.
func (c *Container) initDatabase() error {
	if !c.config.Usage.Enabled {
		return nil
	}

	dbPath, err := config.ExpandPath(c.config.Usage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	conn, err := storage.NewConnection(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := conn.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db, err := conn.DB()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	c.dbConn = conn
	c.db = db
	c.usageRepo = storage.NewUsageRepository(db)
	return nil
}

// initProviders initializes the provider registry and binding factory.
func (c *Container) initProviders() error {
	c.providerRegistry = adapterProvider.NewRegistry()
	c.providerFactory = adapterProvider.NewFactory(
		adapterProvider.WithEnvLookup(c.lookupCredential),
	)
	return nil
}

// initServices initializes application services.
func (c *Container) initServices() error {
	opts := []invoke.ServiceOption{
		invoke.WithLogger(c.logger),
		invoke.WithTracer(c.tracer),
	}
	if c.usageRepo != nil {
		opts = append(opts, invoke.WithUsageStore(c.usageRepo))
	}

	svc, err := invoke.NewService(c.providerFactory, c.tokenCounter, opts...)
	if err != nil {
		return fmt.Errorf("failed to create invoke service: %w", err)
	}
	c.invokeService = svc
	return nil
}

// lookupCredential resolves provider credentials and endpoints. Environment
// variables win; the config file fills in what the environment omits.
func (c *Container) lookupCredential(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	switch key {
	case "OPENAI_API_KEY":
		return c.config.Providers.OpenAI.APIKey
	case "OPENAI_BASE_URL":
		return c.config.Providers.OpenAI.BaseURL
	case "COHERE_API_KEY":
		return c.config.Providers.Cohere.APIKey
	case "COHERE_BASE_URL":
		return c.config.Providers.Cohere.BaseURL
	case "OLLAMA_BASE_URL":
		return c.config.Providers.Ollama.URL
	}
	return ""
}

// StartTokenizerWatching starts artifact hot reload. This should be called
// after the container is fully initialized.
func (c *Container) StartTokenizerWatching(ctx context.Context) error {
	if c.tokenizerWatcher == nil {
		return nil
	}
	return c.tokenizerWatcher.Start(ctx)
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	ctx := context.Background()

	if c.tokenizerWatcher != nil {
		_ = c.tokenizerWatcher.Close()
	}

	if c.tracer != nil {
		_ = c.tracer.Shutdown(ctx)
	}

	if c.dbConn != nil {
		return c.dbConn.Close()
	}
	return nil
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// DB returns the database connection.
func (c *Container) DB() *sql.DB {
	return c.db
}

// UsageRepository returns the usage ledger repository.
// Returns nil when the ledger is disabled.
func (c *Container) UsageRepository() ports.UsageStore {
	return c.usageRepo
}

// TokenizerRegistry returns the tokenizer artifact registry.
func (c *Container) TokenizerRegistry() *tokenizer.Registry {
	return c.tokenizerRegistry
}

// TokenCounter returns the token counter.
func (c *Container) TokenCounter() *tokenizer.Counter {
	return c.tokenCounter
}

// ProviderRegistry returns the provider binding registry.
func (c *Container) ProviderRegistry() *adapterProvider.Registry {
	return c.providerRegistry
}

// ProviderFactory returns the provider binding factory.
func (c *Container) ProviderFactory() *adapterProvider.Factory {
	return c.providerFactory
}

// InvokeService returns the invocation service.
func (c *Container) InvokeService() *invoke.Service {
	return c.invokeService
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the OpenTelemetry tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}
