// Package domain defines the core data model for envelope encryption.
//
// Plaintext is encrypted under a per-message data key (KeyMaterial). The data key is
// wrapped under a master key and travels next to the ciphertext in a WrappedCipherText,
// rendered on the wire as "{wrappedDataKey}ciphertext".
package domain

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the raw byte form.
const (
	dataKeyField protowire.Number = 1
	nonceField   protowire.Number = 2
)

// KeyMaterial is a symmetric data key paired with the nonce it must be used with.
//
// The pair is immutable: constructors and accessors copy, so no caller can mutate
// key bytes held by a cache entry or a provider.
type KeyMaterial struct {
	dataKey []byte
	nonce   []byte
}

// NewKeyMaterial creates a KeyMaterial from a data key and a NonceSize-byte nonce.
func NewKeyMaterial(dataKey, nonce []byte) (KeyMaterial, error) {
	if len(dataKey) == 0 {
		return KeyMaterial{}, fmt.Errorf("%w: empty data key", ErrInvalidKeyMaterial)
	}
	if len(nonce) != NonceSize {
		return KeyMaterial{}, fmt.Errorf(
			"%w: nonce must be %d bytes, got %d",
			ErrInvalidKeyMaterial,
			NonceSize,
			len(nonce),
		)
	}
	return KeyMaterial{
		dataKey: clone(dataKey),
		nonce:   clone(nonce),
	}, nil
}

// DataKey returns a copy of the raw data key bytes.
func (k KeyMaterial) DataKey() []byte {
	return clone(k.dataKey)
}

// Nonce returns a copy of the nonce bytes.
func (k KeyMaterial) Nonce() []byte {
	return clone(k.nonce)
}

// IsZero reports whether k holds no key.
func (k KeyMaterial) IsZero() bool {
	return len(k.dataKey) == 0
}

// Equal compares two key materials in constant time.
func (k KeyMaterial) Equal(other KeyMaterial) bool {
	return subtle.ConstantTimeCompare(k.dataKey, other.dataKey) == 1 &&
		subtle.ConstantTimeCompare(k.nonce, other.nonce) == 1
}

// String is redacted so key bytes never end up in logs or error messages.
// Use Printable to serialize.
func (k KeyMaterial) String() string {
	return "KeyMaterial{REDACTED}"
}

// Printable returns the transport-safe form "base64url(dataKey):base64url(nonce)".
func (k KeyMaterial) Printable() string {
	return EncodeBase64(k.dataKey) + ":" + EncodeBase64(k.nonce)
}

// ParseKeyMaterial parses the printable form produced by Printable.
func ParseKeyMaterial(s string) (KeyMaterial, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return KeyMaterial{}, fmt.Errorf(
			"%w: expected format 'dataKey:nonce', got %d parts",
			ErrInvalidKeyMaterial,
			len(parts),
		)
	}

	dataKey, err := DecodeBase64(parts[0])
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("%w: data key: %v", ErrInvalidKeyMaterial, err)
	}
	nonce, err := DecodeBase64(parts[1])
	if err != nil {
		Zero(dataKey)
		return KeyMaterial{}, fmt.Errorf("%w: nonce: %v", ErrInvalidKeyMaterial, err)
	}

	km, err := NewKeyMaterial(dataKey, nonce)
	Zero(dataKey)
	return km, err
}

// MarshalBinary returns the raw byte form: a protobuf-encoded message with the data key
// as field 1 and the nonce as field 2. It is used when the key material itself is the
// plaintext of a wrapping step.
func (k KeyMaterial) MarshalBinary() ([]byte, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("%w: empty data key", ErrInvalidKeyMaterial)
	}
	b := make([]byte, 0, len(k.dataKey)+len(k.nonce)+4)
	b = protowire.AppendTag(b, dataKeyField, protowire.BytesType)
	b = protowire.AppendBytes(b, k.dataKey)
	b = protowire.AppendTag(b, nonceField, protowire.BytesType)
	b = protowire.AppendBytes(b, k.nonce)
	return b, nil
}

// UnmarshalKeyMaterial parses the raw byte form produced by MarshalBinary.
// Unknown fields are skipped.
func UnmarshalKeyMaterial(b []byte) (KeyMaterial, error) {
	var dataKey, nonce []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return KeyMaterial{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == dataKeyField && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return KeyMaterial{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, protowire.ParseError(m))
			}
			dataKey, n = v, m
		case num == nonceField && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return KeyMaterial{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, protowire.ParseError(m))
			}
			nonce, n = v, m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return KeyMaterial{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}

	return NewKeyMaterial(dataKey, nonce)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
