// Package validation provides custom validation rules for configuration values.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	apperrors "github.com/suryadisoft/cipher/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// ProviderType validates a master-key provider name.
var ProviderType = validation.NewStringRuleWithError(
	func(s string) bool {
		return cryptoDomain.ProviderType(s).Valid()
	},
	validation.NewError(
		"validation_provider_type",
		"must be one of "+string(cryptoDomain.ProviderLocal)+", "+string(cryptoDomain.ProviderGoogleKMS),
	),
)

// KeyMaterial validates the printable "dataKey:nonce" form of a key.
var KeyMaterial = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := cryptoDomain.ParseKeyMaterial(s)
		return err == nil
	},
	validation.NewError("validation_key_material", "must be printable key material 'dataKey:nonce'"),
)

// LogLevel validates a slog level name.
var LogLevel = validation.In("debug", "info", "warn", "error").
	Error("must be one of debug, info, warn, error")
