package service

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

var digests = map[string]func() hash.Hash{
	"SHA3-256":    sha3.New256,
	"SHA3-384":    sha3.New384,
	"SHA3-512":    sha3.New512,
	"SHA-256":     sha256.New,
	"SHA-384":     sha512.New384,
	"SHA-512":     sha512.New,
	"BLAKE2B-256": func() hash.Hash { h, _ := blake2b.New256(nil); return h },
	"BLAKE2B-512": func() hash.Hash { h, _ := blake2b.New512(nil); return h },
}

// newDigest returns a fresh hash for a digest name (case-insensitive).
func newDigest(name string) (hash.Hash, error) {
	newFn, ok := digests[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: digest %q", cryptoDomain.ErrUnsupportedAlgorithm, name)
	}
	return newFn(), nil
}

// SupportedDigests lists the accepted hash algorithm names.
func SupportedDigests() []string {
	return []string{
		"SHA3-256", "SHA3-384", "SHA3-512",
		"SHA-256", "SHA-384", "SHA-512",
		"BLAKE2B-256", "BLAKE2B-512",
	}
}
