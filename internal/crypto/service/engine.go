package service

import (
	"crypto/rand"
	"fmt"
	"strings"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// keySizes maps key generator algorithm names to their default key length in bytes.
// Plain "AES" is AES-256 on every platform, never the 128-bit default of older JDKs.
var keySizes = map[string]int{
	"AES":     32,
	"AES_128": 16,
	"AES_192": 24,
	"AES_256": 32,
}

// EngineConfig selects the algorithms used by a CryptoEngine.
type EngineConfig struct {
	Algorithm      string
	Transformation string
	HashAlgorithm  string
}

// DefaultEngineConfig returns AES-256 data keys, AES/GCM/NoPadding and SHA3-256.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Algorithm:      cryptoDomain.DefaultAlgorithm,
		Transformation: cryptoDomain.DefaultTransformation,
		HashAlgorithm:  cryptoDomain.DefaultHashAlgorithm,
	}
}

// CryptoEngine implements Engine with AES-GCM. It holds no key state and is safe for
// concurrent use.
type CryptoEngine struct {
	cfg EngineConfig
}

// NewCryptoEngine validates the configured algorithm names and creates an engine.
// Empty fields fall back to the defaults.
func NewCryptoEngine(cfg EngineConfig) (*CryptoEngine, error) {
	def := DefaultEngineConfig()
	if cfg.Algorithm == "" {
		cfg.Algorithm = def.Algorithm
	}
	if cfg.Transformation == "" {
		cfg.Transformation = def.Transformation
	}
	if cfg.HashAlgorithm == "" {
		cfg.HashAlgorithm = def.HashAlgorithm
	}

	if _, err := keySize(cfg.Algorithm); err != nil {
		return nil, err
	}
	if !supportedTransformation(cfg.Transformation) {
		return nil, fmt.Errorf(
			"%w: transformation %q",
			cryptoDomain.ErrUnsupportedAlgorithm,
			cfg.Transformation,
		)
	}
	if _, err := newDigest(cfg.HashAlgorithm); err != nil {
		return nil, err
	}

	return &CryptoEngine{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (e *CryptoEngine) Config() EngineConfig {
	return e.cfg
}

func keySize(algorithm string) (int, error) {
	size, ok := keySizes[strings.ToUpper(strings.TrimSpace(algorithm))]
	if !ok {
		return 0, fmt.Errorf("%w: key algorithm %q", cryptoDomain.ErrUnsupportedAlgorithm, algorithm)
	}
	return size, nil
}

func supportedTransformation(transformation string) bool {
	return strings.EqualFold(strings.TrimSpace(transformation), cryptoDomain.DefaultTransformation)
}

// GenerateKey creates a random data key of the algorithm's default size and a random nonce.
func (e *CryptoEngine) GenerateKey(algorithm string) (cryptoDomain.KeyMaterial, error) {
	size, err := keySize(algorithm)
	if err != nil {
		return cryptoDomain.KeyMaterial{}, err
	}

	dataKey := make([]byte, size)
	defer cryptoDomain.Zero(dataKey)
	if _, err := rand.Read(dataKey); err != nil {
		return cryptoDomain.KeyMaterial{}, fmt.Errorf("failed to generate data key: %w", err)
	}

	nonce, err := e.GenerateNonce()
	if err != nil {
		return cryptoDomain.KeyMaterial{}, err
	}

	return cryptoDomain.NewKeyMaterial(dataKey, nonce)
}

// GenerateNonce returns cryptoDomain.NonceSize random bytes.
func (e *CryptoEngine) GenerateNonce() ([]byte, error) {
	nonce := make([]byte, cryptoDomain.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// Encrypt generates a data key with the configured algorithm and encrypts plaintext under it.
func (e *CryptoEngine) Encrypt(plaintext []byte) (cryptoDomain.EncryptedEnvelope, error) {
	key, err := e.GenerateKey(e.cfg.Algorithm)
	if err != nil {
		return cryptoDomain.EncryptedEnvelope{}, err
	}
	return e.EncryptWithKey(plaintext, key)
}

// EncryptWithKey encrypts plaintext under the given key and nonce.
func (e *CryptoEngine) EncryptWithKey(
	plaintext []byte,
	key cryptoDomain.KeyMaterial,
) (cryptoDomain.EncryptedEnvelope, error) {
	if !supportedTransformation(e.cfg.Transformation) {
		return cryptoDomain.EncryptedEnvelope{}, fmt.Errorf(
			"%w: transformation %q",
			cryptoDomain.ErrCryptoFailure,
			e.cfg.Transformation,
		)
	}

	dataKey := key.DataKey()
	defer cryptoDomain.Zero(dataKey)

	aead, err := NewAESGCM(dataKey)
	if err != nil {
		return cryptoDomain.EncryptedEnvelope{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}

	ciphertext, err := aead.Seal(key.Nonce(), plaintext)
	if err != nil {
		return cryptoDomain.EncryptedEnvelope{}, fmt.Errorf("%w: %w", cryptoDomain.ErrCryptoFailure, err)
	}

	return cryptoDomain.EncryptedEnvelope{Key: key, CipherText: ciphertext}, nil
}

// Decrypt authenticates and decrypts an envelope. Every failure, whether a bad key, a
// bad nonce or a tag mismatch, is reported as the same cryptoDomain.ErrCryptoFailure.
func (e *CryptoEngine) Decrypt(envelope cryptoDomain.EncryptedEnvelope) ([]byte, error) {
	if !supportedTransformation(e.cfg.Transformation) {
		return nil, cryptoDomain.ErrCryptoFailure
	}

	dataKey := envelope.Key.DataKey()
	defer cryptoDomain.Zero(dataKey)

	aead, err := NewAESGCM(dataKey)
	if err != nil {
		return nil, cryptoDomain.ErrCryptoFailure
	}

	plaintext, err := aead.Open(envelope.Key.Nonce(), envelope.CipherText)
	if err != nil {
		return nil, cryptoDomain.ErrCryptoFailure
	}
	return plaintext, nil
}

// Hash returns base64url(digest(salt || plaintext)) where salt is base64 decoded first.
// An empty salt hashes the plaintext alone.
func (e *CryptoEngine) Hash(plaintext, salt string) (string, error) {
	saltBytes, err := cryptoDomain.DecodeBase64(salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidSalt, err)
	}

	h, err := newDigest(e.cfg.HashAlgorithm)
	if err != nil {
		return "", err
	}
	h.Write(saltBytes)
	h.Write([]byte(plaintext))

	return cryptoDomain.EncodeBase64(h.Sum(nil)), nil
}

// GenerateSalt returns 16 random bytes, base64url encoded.
func GenerateSalt() (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return cryptoDomain.EncodeBase64(salt), nil
}
