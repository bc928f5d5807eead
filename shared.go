package cipher

import (
	"context"
	"sync"

	"github.com/suryadisoft/cipher/internal/config"
	cryptoService "github.com/suryadisoft/cipher/internal/crypto/service"
)

var (
	sharedMu sync.Mutex
	shared   *Cipher
)

// Init creates the process-wide Cipher from cfg. If one already exists it is returned
// unchanged and cfg is ignored.
func Init(cfg *Config) (*Cipher, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}

	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	shared = c
	return shared, nil
}

// Default returns the process-wide Cipher, creating a LOCAL one with a generated master
// key if Init was never called.
func Default() (*Cipher, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}

	c, err := NewWithGeneratedKey()
	if err != nil {
		return nil, err
	}
	shared = c
	return shared, nil
}

// Reset closes and forgets the process-wide Cipher.
func Reset(ctx context.Context) error {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		return nil
	}
	err := shared.Close(ctx)
	shared = nil
	return err
}

// GenerateNewKey returns printable key material "base64url(key):base64url(nonce)" for
// algorithm ("AES", "AES_128", "AES_192" or "AES_256"). An empty algorithm means "AES".
// Use it to provision a LOCAL master key.
func GenerateNewKey(algorithm string) (string, error) {
	engine, err := cryptoService.NewCryptoEngine(cryptoService.EngineConfig{Algorithm: algorithm})
	if err != nil {
		return "", err
	}
	if algorithm == "" {
		algorithm = config.DefaultAlgorithm
	}
	key, err := engine.GenerateKey(algorithm)
	if err != nil {
		return "", err
	}
	return key.Printable(), nil
}

// GenerateNewSalt returns 16 random bytes encoded as base64url, suitable for Hash.
func GenerateNewSalt() (string, error) {
	return cryptoService.GenerateSalt()
}
