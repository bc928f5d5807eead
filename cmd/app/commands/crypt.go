package commands

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/jellydator/validation"

	"github.com/suryadisoft/cipher"
	appValidation "github.com/suryadisoft/cipher/internal/validation"
)

// RunEncrypt encrypts input, or the whole of the reader when input is empty, and prints
// the "{wrappedDataKey}ciphertext" text.
func RunEncrypt(ctx context.Context, c Cipher, logger *slog.Logger, ioTuple IOTuple, input, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	plaintext, err := readInput(input, ioTuple.Reader)
	if err != nil {
		return err
	}

	text, err := c.Encrypt(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	logger.Debug("plaintext encrypted",
		slog.String("provider", c.ProviderType().String()),
		slog.Int("size", len(plaintext)),
	)

	return writeResult(ioTuple.Writer, format, text, struct {
		CipherText string `json:"ciphertext"`
	}{
		CipherText: text,
	})
}

// RunDecrypt decrypts input, or the whole of the reader when input is empty, and prints
// the plaintext.
func RunDecrypt(ctx context.Context, c Cipher, logger *slog.Logger, ioTuple IOTuple, input, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	text, err := readInput(input, ioTuple.Reader)
	if err != nil {
		return err
	}

	plaintext, err := c.Decrypt(ctx, string(text))
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	logger.Debug("ciphertext decrypted",
		slog.String("provider", c.ProviderType().String()),
		slog.Int("size", len(plaintext)),
	)

	return writeResult(ioTuple.Writer, format, string(plaintext), struct {
		PlainText string `json:"plaintext"`
	}{
		PlainText: string(plaintext),
	})
}

// RunHash prints base64url(digest(salt || input)).
func RunHash(c Cipher, ioTuple IOTuple, input, salt, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if err := validation.Validate(salt, validation.Required, appValidation.Base64); err != nil {
		return fmt.Errorf("%w: %v", cipher.ErrInvalidSalt, err)
	}

	plaintext, err := readInput(input, ioTuple.Reader)
	if err != nil {
		return err
	}

	hash, err := c.Hash(string(plaintext), salt)
	if err != nil {
		return fmt.Errorf("failed to hash: %w", err)
	}

	return writeResult(ioTuple.Writer, format, hash, struct {
		Hash string `json:"hash"`
	}{
		Hash: hash,
	})
}
