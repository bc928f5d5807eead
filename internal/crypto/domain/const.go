package domain

// NonceSize is the length in bytes of every nonce produced by this library.
//
// AES-GCM is used with a 16-byte nonce (instead of Go's default 12 bytes) so that
// key material stays byte compatible with keys provisioned by earlier deployments.
const NonceSize = 16

// TagSize is the length in bytes of the AES-GCM authentication tag appended to every ciphertext.
const TagSize = 16

// Default algorithm names. They follow the standard names used by key
// management tooling, so configuration files can be shared across runtimes.
const (
	// DefaultAlgorithm is the key generator algorithm used for data keys.
	DefaultAlgorithm = "AES"

	// DefaultTransformation is the only supported cipher configuration:
	// AES in Galois/Counter Mode with a 128-bit tag and no padding.
	DefaultTransformation = "AES/GCM/NoPadding"

	// DefaultHashAlgorithm is the digest used by Hash.
	DefaultHashAlgorithm = "SHA3-256"
)

// ProviderType identifies a master-key backend.
type ProviderType string

const (
	// ProviderLocal holds the master key in process memory.
	ProviderLocal ProviderType = "LOCAL"

	// ProviderGoogleKMS keeps the master key inside a remote key management service and
	// only reaches it through wrap/unwrap RPCs.
	ProviderGoogleKMS ProviderType = "GOOGLE_KMS"
)

// String returns the provider name.
func (p ProviderType) String() string {
	return string(p)
}

// Valid reports whether p names a known provider.
func (p ProviderType) Valid() bool {
	switch p {
	case ProviderLocal, ProviderGoogleKMS:
		return true
	default:
		return false
	}
}
