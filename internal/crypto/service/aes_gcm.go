package service

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// AESGCMCipher is AES in Galois/Counter Mode with a 16-byte nonce and a 128-bit
// authentication tag appended to the ciphertext.
//
// The key size selects AES-128, AES-192 or AES-256. The nonce is supplied by the
// caller because it is part of the key material. The cipher is stateless and safe
// for concurrent use.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a cipher for a 16, 24 or 32 byte key.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, cryptoDomain.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Seal encrypts plaintext and appends the authentication tag.
func (a *AESGCMCipher) Seal(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", a.aead.NonceSize(), len(nonce))
	}
	return a.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open verifies the tag and decrypts. No plaintext is returned if verification fails.
func (a *AESGCMCipher) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", a.aead.NonceSize(), len(nonce))
	}
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
