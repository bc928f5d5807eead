package app

import (
	"fmt"
	"log/slog"

	"github.com/suryadisoft/cipher/internal/cache"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	cryptoService "github.com/suryadisoft/cipher/internal/crypto/service"
	apperrors "github.com/suryadisoft/cipher/internal/errors"
	"github.com/suryadisoft/cipher/internal/provider"
)

// Engine returns the crypto engine configured with the algorithm names from configuration.
func (c *Container) Engine() (cryptoService.Engine, error) {
	var err error
	c.engineInit.Do(func() {
		c.engine, err = c.initEngine()
		if err != nil {
			c.setInitError("engine", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("engine"); storedErr != nil {
		return nil, storedErr
	}
	return c.engine, nil
}

// CacheConfig returns the data key cache configuration.
func (c *Container) CacheConfig() cache.Config {
	return cache.Config{
		InitialCapacity:   c.config.CacheInitialCapacity,
		ConcurrencyLevel:  c.config.CacheConcurrencyLevel,
		MaximumSize:       c.config.CacheMaximumSize,
		ExpireAfterAccess: c.config.CacheExpireDuration,
	}
}

// GoogleKMS returns the identity of the remote master key.
func (c *Container) GoogleKMS() cryptoDomain.GoogleKMS {
	return cryptoDomain.GoogleKMS{
		ProjectID:      c.config.GoogleKMSProjectID,
		LocationID:     c.config.GoogleKMSLocationID,
		KeyRingID:      c.config.GoogleKMSKeyRingID,
		KeyID:          c.config.GoogleKMSKeyID,
		CredentialFile: c.config.GoogleKMSCredentialFile,
	}
}

// RemoteClientFactory returns the factory used by the KMS provider to reach its master key.
func (c *Container) RemoteClientFactory() cryptoService.ClientFactory {
	c.clientFactoryInit.Do(func() {
		factory := c.initRemoteClientFactory()
		c.mu.Lock()
		c.clientFactory = factory
		c.mu.Unlock()
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientFactory
}

// SetRemoteClientFactory replaces the remote client factory. It has no effect once the
// provider has been created.
func (c *Container) SetRemoteClientFactory(factory cryptoService.ClientFactory) {
	c.clientFactoryInit.Do(func() {})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientFactory = factory
}

// Provider returns the envelope encryption provider selected by configuration.
func (c *Container) Provider() (provider.Provider, error) {
	var err error
	c.providerInit.Do(func() {
		c.provider, err = c.initProvider()
		if err != nil {
			c.setInitError("provider", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("provider"); storedErr != nil {
		return nil, storedErr
	}
	return c.provider, nil
}

// initEngine creates the crypto engine.
func (c *Container) initEngine() (cryptoService.Engine, error) {
	engine, err := cryptoService.NewCryptoEngine(cryptoService.EngineConfig{
		Algorithm:      c.config.Algorithm,
		Transformation: c.config.Transformation,
		HashAlgorithm:  c.config.HashAlgorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create crypto engine: %w", err)
	}
	return engine, nil
}

// initRemoteClientFactory selects a gocloud.dev keeper when a key URI is configured and
// the Google Cloud KMS SDK otherwise. Calls are rate limited when a limit is configured.
func (c *Container) initRemoteClientFactory() cryptoService.ClientFactory {
	var factory cryptoService.ClientFactory
	if c.config.KMSKeyURI != "" {
		factory = cryptoService.KeeperClientFactory(c.config.KMSKeyURI)
	} else {
		factory = cryptoService.GoogleKMSClientFactory(c.GoogleKMS())
	}
	return cryptoService.RateLimited(factory, c.config.KMSRateLimit, c.config.KMSRateLimitBurst)
}

// masterKey parses the configured LOCAL master key. An empty key yields the zero value.
func (c *Container) masterKey() (cryptoDomain.KeyMaterial, error) {
	if c.config.MasterKey == "" {
		return cryptoDomain.KeyMaterial{}, nil
	}
	key, err := cryptoDomain.ParseKeyMaterial(c.config.MasterKey)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, fmt.Errorf("failed to parse master key: %w", err)
	}
	return key, nil
}

// initProvider creates the provider, decorates it with metrics and exports its cache counters.
func (c *Container) initProvider() (provider.Provider, error) {
	logger := c.Logger()

	engine, err := c.Engine()
	if err != nil {
		return nil, fmt.Errorf("failed to get engine for provider: %w", err)
	}

	m, err := c.Metrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for provider: %w", err)
	}

	var p provider.Provider
	switch cryptoDomain.ProviderType(c.config.Provider) {
	case cryptoDomain.ProviderLocal:
		masterKey, err := c.masterKey()
		if err != nil {
			return nil, err
		}
		p, err = provider.NewLocalProvider(engine, masterKey, c.CacheConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create local provider: %w", err)
		}
	case cryptoDomain.ProviderGoogleKMS:
		factory := c.RemoteClientFactory()
		if m != nil {
			factory = cryptoService.Observed(factory, m)
		}
		p, err = provider.NewKMSProvider(engine, c.GoogleKMS(), factory, c.CacheConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kms provider: %w", err)
		}
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported provider %q", c.config.Provider)
	}

	if m != nil {
		p = provider.NewProviderWithMetrics(p, m)
		if err := c.observeCache(m, p); err != nil {
			return nil, closeOnError(p, err)
		}
	}

	logger.Debug("provider initialized",
		slog.String("provider", p.Type().String()),
		slog.String("algorithm", c.config.Algorithm),
		slog.String("hash_algorithm", c.config.HashAlgorithm),
	)

	return p, nil
}

func closeOnError(p provider.Provider, err error) error {
	_ = p.Close()
	return err
}
