package domain

import (
	"github.com/suryadisoft/cipher/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so that a
// caller can either match the precise failure (errors.Is(err, ErrCryptoFailure)) or
// only its class (errors.Is(err, errors.ErrInvalidInput)).
var (
	// ErrUnsupportedAlgorithm indicates a key generator, cipher transformation or digest
	// name is not recognized. It is a configuration error and fatal to the call.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrCryptoFailure indicates an encryption or decryption operation failed.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext or wrapped key has been tampered with (authentication failure)
	//   - Invalid key or nonce length
	//   - Cipher initialization failure
	//
	// For security reasons the specific cause of a decryption failure is not disclosed,
	// so the error cannot be used as a ciphertext validity oracle.
	ErrCryptoFailure = errors.Wrap(errors.ErrInvalidInput, "crypto failure")

	// ErrMalformedCipherText indicates the text does not have the "{wrappedKey}ciphertext" shape,
	// or one of its segments is not valid base64. An undecodable segment also matches
	// ErrCryptoFailure, since a single tampered character is the usual cause.
	ErrMalformedCipherText = errors.Wrap(errors.ErrInvalidInput, "malformed cipher text")

	// ErrInvalidKeyMaterial indicates a printable or raw key material value could not be parsed.
	ErrInvalidKeyMaterial = errors.Wrap(errors.ErrInvalidInput, "invalid key material")

	// ErrInvalidSalt indicates the hashing salt is not valid base64.
	ErrInvalidSalt = errors.Wrap(errors.ErrInvalidInput, "invalid salt")

	// ErrMasterKeyNotSet indicates the local provider was configured without a master key.
	ErrMasterKeyNotSet = errors.Wrap(errors.ErrInvalidInput, "master key not set")

	// ErrProviderInit indicates the remote key management client or its credentials could
	// not be established. It is not retried.
	ErrProviderInit = errors.Wrap(errors.ErrUnavailable, "provider initialization failed")

	// ErrRemoteProvider indicates a wrap or unwrap RPC against the remote key management
	// service failed. Retry policy belongs to the remote client or the caller.
	ErrRemoteProvider = errors.Wrap(errors.ErrUnavailable, "remote provider failure")
)
