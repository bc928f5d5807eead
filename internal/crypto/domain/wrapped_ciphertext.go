package domain

import (
	"fmt"
	"strings"
)

// WrappedCipherText is the wire format of an envelope-encrypted message.
//
// Both segments are base64url strings:
//   - WrappedDataKey: the data key encrypted under the master key
//   - CipherText: the message encrypted under the data key
//
// It renders as "{WrappedDataKey}CipherText".
type WrappedCipherText struct {
	WrappedDataKey string
	CipherText     string
}

// ParseWrappedCipherText parses the "{wrappedDataKey}ciphertext" form.
//
// The brace group must open the text and is closed by the first '}'. The wrapped key
// must be non-empty and the ciphertext must not contain another brace. Base64url
// segments never contain braces, so every value produced by String parses back.
//
// Returns ErrMalformedCipherText when the text does not have this shape.
func ParseWrappedCipherText(text string) (WrappedCipherText, error) {
	if !strings.HasPrefix(text, "{") {
		return WrappedCipherText{}, fmt.Errorf("%w: missing '{' prefix", ErrMalformedCipherText)
	}

	end := strings.IndexByte(text, '}')
	if end < 0 {
		return WrappedCipherText{}, fmt.Errorf("%w: missing '}'", ErrMalformedCipherText)
	}

	wrappedDataKey := text[1:end]
	cipherText := text[end+1:]

	if wrappedDataKey == "" {
		return WrappedCipherText{}, fmt.Errorf("%w: empty wrapped data key", ErrMalformedCipherText)
	}
	if strings.ContainsAny(wrappedDataKey, "{") || strings.ContainsAny(cipherText, "{}") {
		return WrappedCipherText{}, fmt.Errorf("%w: unexpected brace", ErrMalformedCipherText)
	}

	return WrappedCipherText{
		WrappedDataKey: wrappedDataKey,
		CipherText:     cipherText,
	}, nil
}

// String renders the canonical "{WrappedDataKey}CipherText" form.
func (w WrappedCipherText) String() string {
	return "{" + w.WrappedDataKey + "}" + w.CipherText
}
