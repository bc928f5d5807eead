package validation

import (
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

// Base64 validates that a string is base64 data in either the URL-safe or the standard
// alphabet, padded or not.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := cryptoDomain.DecodeBase64(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})
