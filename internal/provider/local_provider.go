package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suryadisoft/cipher/internal/cache"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	cryptoService "github.com/suryadisoft/cipher/internal/crypto/service"
)

// LocalProvider holds the master key in process memory.
//
// A data key is wrapped by encrypting its raw byte form under the master key's key
// bytes and a fresh nonce. The wrapped data key is nonce || ciphertext, so no two
// wraps share a (key, nonce) pair.
type LocalProvider struct {
	engine    cryptoService.Engine
	masterKey cryptoDomain.KeyMaterial
	cache     *cache.DataKeyCache
	logger    *slog.Logger
}

// NewLocalProvider creates a provider bound to masterKey for its lifetime.
func NewLocalProvider(
	engine cryptoService.Engine,
	masterKey cryptoDomain.KeyMaterial,
	cacheCfg cache.Config,
	logger *slog.Logger,
) (*LocalProvider, error) {
	if masterKey.IsZero() {
		return nil, cryptoDomain.ErrMasterKeyNotSet
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &LocalProvider{
		engine:    engine,
		masterKey: masterKey,
		logger:    logger,
	}

	c, err := cache.New(cacheCfg, p.unwrap)
	if err != nil {
		return nil, fmt.Errorf("failed to create data key cache: %w", err)
	}
	p.cache = c

	return p, nil
}

// Encrypt encrypts plaintext under a new data key and wraps the data key locally.
func (p *LocalProvider) Encrypt(_ context.Context, plaintext []byte) (cryptoDomain.WrappedCipherText, error) {
	envelope, err := p.engine.Encrypt(plaintext)
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, err
	}

	raw, err := envelope.Key.MarshalBinary()
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}
	defer cryptoDomain.Zero(raw)

	nonce, err := p.engine.GenerateNonce()
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}

	wrapKey, err := p.wrappingKey(nonce)
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, err
	}

	wrapped, err := p.engine.EncryptWithKey(raw, wrapKey)
	if err != nil {
		return cryptoDomain.WrappedCipherText{}, err
	}

	wrappedDataKey := make([]byte, 0, len(nonce)+len(wrapped.CipherText))
	wrappedDataKey = append(wrappedDataKey, nonce...)
	wrappedDataKey = append(wrappedDataKey, wrapped.CipherText...)

	return cryptoDomain.WrappedCipherText{
		WrappedDataKey: cryptoDomain.EncodeBase64(wrappedDataKey),
		CipherText:     cryptoDomain.EncodeBase64(envelope.CipherText),
	}, nil
}

// Decrypt unwraps the data key through the cache and decrypts the message.
func (p *LocalProvider) Decrypt(ctx context.Context, wrapped cryptoDomain.WrappedCipherText) ([]byte, error) {
	return decryptWithCache(ctx, p.engine, p.cache, wrapped)
}

// unwrap resolves a wrapped data key on a cache miss.
func (p *LocalProvider) unwrap(_ context.Context, wrappedDataKey string) (cryptoDomain.KeyMaterial, error) {
	b, err := cryptoDomain.DecodeBase64(wrappedDataKey)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, undecodableSegment("wrapped data key", err)
	}
	if len(b) < cryptoDomain.NonceSize+cryptoDomain.TagSize {
		return cryptoDomain.KeyMaterial{}, cryptoDomain.ErrCryptoFailure
	}

	wrapKey, err := p.wrappingKey(b[:cryptoDomain.NonceSize])
	if err != nil {
		return cryptoDomain.KeyMaterial{}, err
	}

	raw, err := p.engine.Decrypt(cryptoDomain.EncryptedEnvelope{
		Key:        wrapKey,
		CipherText: b[cryptoDomain.NonceSize:],
	})
	if err != nil {
		return cryptoDomain.KeyMaterial{}, err
	}
	defer cryptoDomain.Zero(raw)

	km, err := cryptoDomain.UnmarshalKeyMaterial(raw)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}

	p.logger.Debug("data key unwrapped", slog.String("provider", p.Type().String()))
	return km, nil
}

// wrappingKey pairs the master key bytes with nonce.
func (p *LocalProvider) wrappingKey(nonce []byte) (cryptoDomain.KeyMaterial, error) {
	masterKey := p.masterKey.DataKey()
	defer cryptoDomain.Zero(masterKey)

	km, err := cryptoDomain.NewKeyMaterial(masterKey, nonce)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}
	return km, nil
}

// Hash returns the salted digest of plaintext.
func (p *LocalProvider) Hash(plaintext, salt string) (string, error) {
	return p.engine.Hash(plaintext, salt)
}

// Type returns cryptoDomain.ProviderLocal.
func (p *LocalProvider) Type() cryptoDomain.ProviderType {
	return cryptoDomain.ProviderLocal
}

// MasterKeyInfo returns {"provider":"LOCAL"}.
func (p *LocalProvider) MasterKeyInfo() string {
	return masterKeyInfo(p.logger, map[string]string{
		"provider": p.Type().String(),
	})
}

// CacheStats reports the data-key cache counters.
func (p *LocalProvider) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// Close drops cached data keys.
func (p *LocalProvider) Close() error {
	p.cache.Purge()
	return nil
}

// decryptWithCache decodes the message ciphertext, resolves its data key and decrypts.
func decryptWithCache(
	ctx context.Context,
	engine cryptoService.Engine,
	c *cache.DataKeyCache,
	wrapped cryptoDomain.WrappedCipherText,
) ([]byte, error) {
	if wrapped.WrappedDataKey == "" {
		return nil, fmt.Errorf("%w: empty wrapped data key", cryptoDomain.ErrMalformedCipherText)
	}

	ciphertext, err := cryptoDomain.DecodeBase64(wrapped.CipherText)
	if err != nil {
		return nil, undecodableSegment("ciphertext", err)
	}

	key, err := c.Get(ctx, wrapped.WrappedDataKey)
	if err != nil {
		return nil, err
	}

	return engine.Decrypt(cryptoDomain.EncryptedEnvelope{Key: key, CipherText: ciphertext})
}

// undecodableSegment reports a segment that passed brace parsing but is not base64.
// It is treated as tampered and matches both ErrCryptoFailure and ErrMalformedCipherText.
func undecodableSegment(segment string, err error) error {
	return fmt.Errorf("%w: %w: %s: %v", cryptoDomain.ErrCryptoFailure, cryptoDomain.ErrMalformedCipherText, segment, err)
}
