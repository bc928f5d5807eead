package domain

import (
	"encoding/base64"
	"strings"
)

// EncodeBase64 encodes b with the URL-safe alphabet and no padding.
//
// The alphabet contains neither '{' nor '}', which keeps the wire format unambiguous.
func EncodeBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64 accepts both the URL-safe and the standard alphabet, with or without
// padding. Trailing bits must be zero, so every accepted string has exactly one
// decoding and a flipped last character never decodes to the same bytes.
func DecodeBase64(s string) ([]byte, error) {
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(s, "="))
	return base64.RawURLEncoding.Strict().DecodeString(normalized)
}
