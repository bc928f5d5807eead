// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/suryadisoft/cipher"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// Cipher is the part of *cipher.Cipher used by the commands.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext []byte) (string, error)
	Decrypt(ctx context.Context, text string) ([]byte, error)
	Hash(plaintext, salt string) (string, error)
	MasterKeyInfo() string
	ProviderType() cipher.ProviderType
}

// OpenCipher creates a Cipher from a properties file when path is set and from the
// environment otherwise.
func OpenCipher(path string) (*cipher.Cipher, error) {
	if path != "" {
		return cipher.NewFromProperties(path)
	}
	return cipher.FromEnv()
}

// CloseCipher closes c and logs any error.
func CloseCipher(ctx context.Context, c *cipher.Cipher, logger *slog.Logger) {
	if err := c.Close(ctx); err != nil {
		logger.Error("failed to close cipher", slog.Any("error", err))
	}
}

// readInput returns value, or the whole reader with one trailing newline removed when
// value is empty.
func readInput(value string, reader io.Reader) ([]byte, error) {
	if value != "" {
		return []byte(value), nil
	}
	if reader == nil {
		return nil, fmt.Errorf("no input provided")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = []byte(strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r"))
	if len(data) == 0 {
		return nil, fmt.Errorf("no input provided")
	}
	return data, nil
}

// validateFormat accepts "text" and "json".
func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// writeResult prints text as a single line or result as indented JSON.
func writeResult(writer io.Writer, format, text string, result any) error {
	if format == "json" {
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		_, err = fmt.Fprintln(writer, string(jsonBytes))
		return err
	}
	_, err := fmt.Fprintln(writer, text)
	return err
}
