// Package app provides dependency injection container for assembling library components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/suryadisoft/cipher/internal/config"
	cryptoService "github.com/suryadisoft/cipher/internal/crypto/service"
	"github.com/suryadisoft/cipher/internal/metrics"
	"github.com/suryadisoft/cipher/internal/provider"
)

// Container holds all library dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger       *slog.Logger
	metrics      *metrics.Metrics
	cacheMetrics otelmetric.Registration

	// Crypto
	engine        cryptoService.Engine
	clientFactory cryptoService.ClientFactory
	provider      provider.Provider

	// Initialization flags and mutex for thread-safety
	mu                sync.Mutex
	loggerInit        sync.Once
	metricsInit       sync.Once
	engineInit        sync.Once
	clientFactoryInit sync.Once
	providerInit      sync.Once
	initErrors        map[string]error
	shutdown          bool
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the library configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Metrics returns the operation, remote call and cache metrics, or nil when metrics
// are disabled.
func (c *Container) Metrics() (*metrics.Metrics, error) {
	var err error
	c.metricsInit.Do(func() {
		c.metrics, err = c.initMetrics()
		if err != nil {
			c.setInitError("metrics", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("metrics"); storedErr != nil {
		return nil, storedErr
	}
	return c.metrics, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the library is no longer used. Later calls are no-ops.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return nil
	}
	c.shutdown = true

	var shutdownErrors []error

	// Stop observing the cache before the provider goes away
	if c.cacheMetrics != nil {
		if err := c.cacheMetrics.Unregister(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache metrics unregister: %w", err))
		}
		c.cacheMetrics = nil
	}

	if c.provider != nil {
		if err := c.provider.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("provider close: %w", err))
		}
	}

	if c.metrics != nil {
		if err := c.metrics.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

func (c *Container) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

func (c *Container) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// initLogger creates and configures a structured logger based on the log level.
// Output goes to stderr so it never mixes with data written by the embedding program.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initMetrics creates the Prometheus-backed instruments when metrics are enabled.
func (c *Container) initMetrics() (*metrics.Metrics, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	m, err := metrics.New(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	return m, nil
}

// observeCache exports the provider's cache counters.
func (c *Container) observeCache(m *metrics.Metrics, p provider.Provider) error {
	registration, err := m.ObserveCache(p.Type(), p.CacheStats)
	if err != nil {
		return fmt.Errorf("failed to register cache metrics: %w", err)
	}

	c.mu.Lock()
	c.cacheMetrics = registration
	c.mu.Unlock()
	return nil
}
