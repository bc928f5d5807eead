// Package cipher provides envelope encryption of small secrets.
//
// Every message is encrypted under a fresh AES-GCM data key. The data key is wrapped by
// a master key, held either in process memory (LOCAL) or in Google Cloud KMS
// (GOOGLE_KMS), and travels with the message as "{wrappedDataKey}ciphertext". Unwrapped
// data keys are cached so repeated reads of the same message avoid the master key.
//
//	c, err := cipher.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer c.Close(ctx)
//
//	text, err := c.EncryptString(ctx, "Hello World")
//	plaintext, err := c.Decrypt(ctx, text)
package cipher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/suryadisoft/cipher/internal/app"
	"github.com/suryadisoft/cipher/internal/cache"
	"github.com/suryadisoft/cipher/internal/config"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	"github.com/suryadisoft/cipher/internal/provider"
)

// Config holds the library configuration. See Load, LoadProperties and DefaultConfig.
type Config = config.Config

// Stats is a snapshot of the data key cache counters.
type Stats = cache.Stats

// ProviderType identifies a master-key backend.
type ProviderType = cryptoDomain.ProviderType

// Master-key backends.
const (
	ProviderLocal     = cryptoDomain.ProviderLocal
	ProviderGoogleKMS = cryptoDomain.ProviderGoogleKMS
)

// Errors returned by Cipher. Test with errors.Is.
var (
	ErrUnsupportedAlgorithm = cryptoDomain.ErrUnsupportedAlgorithm
	ErrCryptoFailure        = cryptoDomain.ErrCryptoFailure
	ErrMalformedCipherText  = cryptoDomain.ErrMalformedCipherText
	ErrInvalidKeyMaterial   = cryptoDomain.ErrInvalidKeyMaterial
	ErrInvalidSalt          = cryptoDomain.ErrInvalidSalt
	ErrMasterKeyNotSet      = cryptoDomain.ErrMasterKeyNotSet
	ErrProviderInit         = cryptoDomain.ErrProviderInit
	ErrRemoteProvider       = cryptoDomain.ErrRemoteProvider
)

// DefaultConfig returns the configuration used when nothing is set. A LOCAL provider
// still needs a MasterKey.
func DefaultConfig() *Config {
	return config.Default()
}

// Cipher encrypts, decrypts and hashes through one provider. It is safe for concurrent use.
type Cipher struct {
	container *app.Container
	provider  provider.Provider
}

// New validates cfg and creates a Cipher. The Google Cloud KMS client is created on
// first use, so connectivity errors surface from Encrypt and Decrypt as ErrProviderInit.
func New(cfg *Config) (*Cipher, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	p, err := container.Provider()
	if err != nil {
		_ = container.Shutdown(context.Background())
		return nil, err
	}

	return &Cipher{
		container: container,
		provider:  p,
	}, nil
}

// NewWithGeneratedKey creates a LOCAL Cipher with a freshly generated master key.
// Data encrypted by it can only be decrypted by the same instance.
func NewWithGeneratedKey() (*Cipher, error) {
	cfg := config.Default()
	masterKey, err := GenerateNewKey(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	cfg.MasterKey = masterKey
	return New(cfg)
}

// NewFromProperties creates a Cipher from a "key=value" properties file.
func NewFromProperties(path string) (*Cipher, error) {
	cfg, err := config.LoadProperties(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// FromEnv creates a Cipher from environment variables and an optional .env file.
func FromEnv() (*Cipher, error) {
	return New(config.Load())
}

// Encrypt encrypts plaintext and returns the "{wrappedDataKey}ciphertext" text.
// A nil plaintext yields an empty string and no error.
func (c *Cipher) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	if plaintext == nil {
		return "", nil
	}
	wrapped, err := c.provider.Encrypt(ctx, plaintext)
	if err != nil {
		return "", err
	}
	return wrapped.String(), nil
}

// EncryptString encrypts the bytes of plaintext.
func (c *Cipher) EncryptString(ctx context.Context, plaintext string) (string, error) {
	return c.Encrypt(ctx, []byte(plaintext))
}

// Decrypt parses and decrypts text produced by Encrypt. An empty text yields nil and
// no error.
func (c *Cipher) Decrypt(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}
	wrapped, err := cryptoDomain.ParseWrappedCipherText(text)
	if err != nil {
		return nil, err
	}
	return c.provider.Decrypt(ctx, wrapped)
}

// DecryptString decrypts text and returns the plaintext as a string.
func (c *Cipher) DecryptString(ctx context.Context, text string) (string, error) {
	plaintext, err := c.Decrypt(ctx, text)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Hash returns base64url(digest(salt || plaintext)) where salt is a base64 string such
// as one returned by GenerateNewSalt. The result is deterministic for a given salt.
func (c *Cipher) Hash(plaintext, salt string) (string, error) {
	return c.provider.Hash(plaintext, salt)
}

// MasterKeyInfo describes the master key as JSON without revealing it.
func (c *Cipher) MasterKeyInfo() string {
	return c.provider.MasterKeyInfo()
}

// ProviderType returns the master-key backend in use.
func (c *Cipher) ProviderType() ProviderType {
	return c.provider.Type()
}

// Stats returns the data key cache counters.
func (c *Cipher) Stats() Stats {
	return c.provider.CacheStats()
}

// Config returns the configuration the Cipher was created with.
func (c *Cipher) Config() *Config {
	return c.container.Config()
}

// MetricsHandler serves the Prometheus exposition of operation and cache metrics.
// It returns nil when metrics are disabled.
func (c *Cipher) MetricsHandler() http.Handler {
	m, err := c.container.Metrics()
	if err != nil || m == nil {
		return nil
	}
	return m.Handler()
}

// Close releases the provider and flushes metrics.
func (c *Cipher) Close(ctx context.Context) error {
	return c.container.Shutdown(ctx)
}
