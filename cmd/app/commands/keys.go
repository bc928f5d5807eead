package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/suryadisoft/cipher"
)

// RunGenerateKey generates printable key material "base64url(key):base64url(nonce)".
// The output is the value of CIPHER_MASTER_KEY (or the "masterKey" property) for the
// LOCAL provider.
func RunGenerateKey(logger *slog.Logger, writer io.Writer, algorithm, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	key, err := cipher.GenerateNewKey(algorithm)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	logger.Debug("key generated", slog.String("algorithm", algorithm))

	return writeResult(writer, format, key, struct {
		Algorithm string `json:"algorithm"`
		Key       string `json:"key"`
	}{
		Algorithm: algorithm,
		Key:       key,
	})
}

// RunGenerateSalt generates a 16-byte base64url salt for hashing.
func RunGenerateSalt(writer io.Writer, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	salt, err := cipher.GenerateNewSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	return writeResult(writer, format, salt, struct {
		Salt string `json:"salt"`
	}{
		Salt: salt,
	})
}

// RunMasterKeyInfo prints the description of the configured master key.
func RunMasterKeyInfo(c Cipher, writer io.Writer) error {
	info := c.MasterKeyInfo()
	if info == "" {
		return fmt.Errorf("master key info unavailable for provider %s", c.ProviderType())
	}
	_, err := fmt.Fprintln(writer, info)
	return err
}
