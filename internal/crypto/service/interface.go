// Package service provides the cryptographic primitives of envelope encryption and the
// clients used to reach remote key management services.
package service

import (
	"context"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// Engine generates data keys and performs authenticated encryption and hashing.
type Engine interface {
	// GenerateKey creates a random data key for the named key algorithm paired with a fresh nonce.
	GenerateKey(algorithm string) (cryptoDomain.KeyMaterial, error)

	// GenerateNonce returns cryptoDomain.NonceSize random bytes.
	GenerateNonce() ([]byte, error)

	// Encrypt encrypts plaintext under a freshly generated data key.
	Encrypt(plaintext []byte) (cryptoDomain.EncryptedEnvelope, error)

	// EncryptWithKey encrypts plaintext under the given key material. The caller must never
	// reuse a (key, nonce) pair for a second plaintext.
	EncryptWithKey(plaintext []byte, key cryptoDomain.KeyMaterial) (cryptoDomain.EncryptedEnvelope, error)

	// Decrypt authenticates and decrypts an envelope.
	Decrypt(envelope cryptoDomain.EncryptedEnvelope) ([]byte, error)

	// Hash returns the base64url digest of the decoded salt followed by plaintext.
	Hash(plaintext, salt string) (string, error)
}

// RemoteClient wraps and unwraps data keys with a master key that never leaves a
// remote key management service.
type RemoteClient interface {
	// Encrypt wraps plaintext under the key identified by keyName.
	Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error)

	// Decrypt unwraps ciphertext under the key identified by keyName.
	Decrypt(ctx context.Context, keyName string, ciphertext []byte) ([]byte, error)

	// Close releases the underlying connection.
	Close() error
}

// ClientFactory creates a RemoteClient. It is invoked at most once per provider.
type ClientFactory func(ctx context.Context) (RemoteClient, error)
