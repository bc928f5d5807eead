package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/suryadisoft/cipher/internal/cache"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	cryptoService "github.com/suryadisoft/cipher/internal/crypto/service"
)

var errProviderClosed = fmt.Errorf("%w: provider closed", cryptoDomain.ErrProviderInit)

// KMSProvider keeps the master key inside a remote key management service.
//
// Data keys are wrapped by sending their printable form to the service's Encrypt RPC.
// The remote client is created on first use; if creation fails the error is kept and
// returned by every later call.
type KMSProvider struct {
	engine  cryptoService.Engine
	kms     cryptoDomain.GoogleKMS
	keyName string
	factory cryptoService.ClientFactory
	cache   *cache.DataKeyCache
	logger  *slog.Logger

	clientOnce sync.Once
	client     cryptoService.RemoteClient
	clientErr  error

	mu     sync.Mutex
	closed bool

	// fixedDataKey replaces the random data key when set. Tests only.
	fixedDataKey cryptoDomain.KeyMaterial
}

// NewKMSProvider creates a provider for the CryptoKey identified by kms. factory is
// invoked at most once.
func NewKMSProvider(
	engine cryptoService.Engine,
	kms cryptoDomain.GoogleKMS,
	factory cryptoService.ClientFactory,
	cacheCfg cache.Config,
	logger *slog.Logger,
) (*KMSProvider, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: client factory is nil", cryptoDomain.ErrProviderInit)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &KMSProvider{
		engine:  engine,
		kms:     kms,
		keyName: kms.CryptoKeyName(),
		factory: factory,
		logger:  logger,
	}

	c, err := cache.New(cacheCfg, p.unwrap)
	if err != nil {
		return nil, fmt.Errorf("failed to create data key cache: %w", err)
	}
	p.cache = c

	return p, nil
}

// setFixedDataKey makes every Encrypt use key instead of a random data key.
func (p *KMSProvider) setFixedDataKey(key cryptoDomain.KeyMaterial) {
	p.fixedDataKey = key
}

// remote returns the remote client, creating it on first use.
func (p *KMSProvider) remote(ctx context.Context) (cryptoService.RemoteClient, error) {
	p.clientOnce.Do(func() {
		client, err := p.factory(context.WithoutCancel(ctx))
		if err != nil {
			p.clientErr = fmt.Errorf("%w: %w", cryptoDomain.ErrProviderInit, err)
			p.logger.Error("failed to create remote kms client",
				slog.String("key_name", p.keyName),
				slog.Any("error", err),
			)
			return
		}
		p.client = client
		p.logger.Debug("remote kms client created", slog.String("key_name", p.keyName))
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errProviderClosed
	}
	return p.client, p.clientErr
}

// Encrypt encrypts plaintext under a new data key and wraps the data key remotely.
func (p *KMSProvider) Encrypt(ctx context.Context, plaintext []byte) (cryptoDomain.WrappedCipherText, error) {
	client, err := p.remote(ctx)
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, err
	}

	var envelope cryptoDomain.EncryptedEnvelope
	if p.fixedDataKey.IsZero() {
		envelope, err = p.engine.Encrypt(plaintext)
	} else {
		envelope, err = p.engine.EncryptWithKey(plaintext, p.fixedDataKey)
	}
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, err
	}

	wrapped, err := client.Encrypt(ctx, p.keyName, []byte(envelope.Key.Printable()))
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, fmt.Errorf("%w: %w", cryptoDomain.ErrRemoteProvider, err)
	}

	return cryptoDomain.WrappedCipherText{
		WrappedDataKey: cryptoDomain.EncodeBase64(wrapped),
		CipherText:     cryptoDomain.EncodeBase64(envelope.CipherText),
	}, nil
}

// Decrypt unwraps the data key through the cache and decrypts the message.
func (p *KMSProvider) Decrypt(ctx context.Context, wrapped cryptoDomain.WrappedCipherText) ([]byte, error) {
	return decryptWithCache(ctx, p.engine, p.cache, wrapped)
}

// unwrap resolves a wrapped data key on a cache miss.
func (p *KMSProvider) unwrap(ctx context.Context, wrappedDataKey string) (cryptoDomain.KeyMaterial, error) {
	client, err := p.remote(ctx)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, err
	}

	b, err := cryptoDomain.DecodeBase64(wrappedDataKey)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, undecodableSegment("wrapped data key", err)
	}

	printable, err := client.Decrypt(ctx, p.keyName, b)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, fmt.Errorf("%w: %w", cryptoDomain.ErrRemoteProvider, err)
	}
	defer cryptoDomain.Zero(printable)

	km, err := cryptoDomain.ParseKeyMaterial(string(printable))
	if err != nil {
		return cryptoDomain.KeyMaterial{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}

	p.logger.Debug("data key unwrapped", slog.String("provider", p.Type().String()))
	return km, nil
}

// Hash returns the salted digest of plaintext.
func (p *KMSProvider) Hash(plaintext, salt string) (string, error) {
	return p.engine.Hash(plaintext, salt)
}

// Type returns cryptoDomain.ProviderGoogleKMS.
func (p *KMSProvider) Type() cryptoDomain.ProviderType {
	return cryptoDomain.ProviderGoogleKMS
}

// MasterKeyInfo returns the CryptoKey identity as JSON.
func (p *KMSProvider) MasterKeyInfo() string {
	return masterKeyInfo(p.logger, map[string]string{
		"provider":   p.Type().String(),
		"projectId":  p.kms.ProjectID,
		"locationId": p.kms.LocationID,
		"keyRingId":  p.kms.KeyRingID,
		"keyId":      p.kms.KeyID,
	})
}

// CacheStats reports the data-key cache counters.
func (p *KMSProvider) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// Close releases the remote client if it was created and drops cached data keys.
// Later calls fail with ErrProviderInit. Closing twice is a no-op.
func (p *KMSProvider) Close() error {
	p.cache.Purge()
	// a client must never be created after Close
	p.clientOnce.Do(func() {})

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	client := p.client
	p.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}
