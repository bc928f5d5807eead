// Package provider implements envelope encryption on top of a master key backend.
//
// A provider encrypts each message under a fresh data key, wraps the data key with its
// master key, and on decrypt unwraps the data key through a cache so repeated reads of
// the same message avoid the master key backend.
package provider

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/suryadisoft/cipher/internal/cache"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// Provider is a master-key backend capable of envelope encryption.
type Provider interface {
	// Encrypt encrypts plaintext under a new data key and wraps the data key.
	Encrypt(ctx context.Context, plaintext []byte) (cryptoDomain.WrappedCipherText, error)

	// Decrypt unwraps the data key (through the cache) and decrypts the ciphertext.
	Decrypt(ctx context.Context, wrapped cryptoDomain.WrappedCipherText) ([]byte, error)

	// Hash returns the salted digest of plaintext. It does not involve the master key.
	Hash(plaintext, salt string) (string, error)

	// Type identifies the backend.
	Type() cryptoDomain.ProviderType

	// MasterKeyInfo describes the master key as JSON without revealing it. Returns an
	// empty string if the description cannot be encoded.
	MasterKeyInfo() string

	// CacheStats reports the data-key cache counters.
	CacheStats() cache.Stats

	// Close releases the backend's resources.
	Close() error
}

// masterKeyInfo encodes info as JSON, logging and returning "" on failure.
func masterKeyInfo(logger *slog.Logger, info map[string]string) string {
	b, err := json.Marshal(info)
	if err != nil {
		logger.Warn("failed to encode master key info", slog.Any("error", err))
		return ""
	}
	return string(b)
}
