package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper is the part of *secrets.Keeper used to wrap data keys.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperClient is a RemoteClient backed by a gocloud.dev secrets keeper.
//
// A keeper is bound to one key by its URI, so the keyName passed to Encrypt and
// Decrypt is ignored.
type KeeperClient struct {
	keeper Keeper
}

// NewKeeperClient wraps an already opened keeper.
func NewKeeperClient(keeper Keeper) *KeeperClient {
	return &KeeperClient{keeper: keeper}
}

// OpenKeeperClient opens a keeper for keyURI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func OpenKeeperClient(ctx context.Context, keyURI string) (*KeeperClient, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return NewKeeperClient(keeper), nil
}

// KeeperClientFactory returns a ClientFactory that opens keyURI.
func KeeperClientFactory(keyURI string) ClientFactory {
	return func(ctx context.Context) (RemoteClient, error) {
		return OpenKeeperClient(ctx, keyURI)
	}
}

// Encrypt wraps plaintext with the keeper's key.
func (c *KeeperClient) Encrypt(ctx context.Context, _ string, plaintext []byte) ([]byte, error) {
	ciphertext, err := c.keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("keeper encrypt failed: %w", err)
	}
	return ciphertext, nil
}

// Decrypt unwraps ciphertext with the keeper's key.
func (c *KeeperClient) Decrypt(ctx context.Context, _ string, ciphertext []byte) ([]byte, error) {
	plaintext, err := c.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("keeper decrypt failed: %w", err)
	}
	return plaintext, nil
}

// Close closes the keeper.
func (c *KeeperClient) Close() error {
	return c.keeper.Close()
}
