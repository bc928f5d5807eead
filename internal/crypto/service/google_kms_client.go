package service

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/wrapperspb"

	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
)

var errChecksumMismatch = errors.New("checksum mismatch")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// kmsAPI is the subset of the Cloud KMS client used for symmetric wrapping.
type kmsAPI interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest) (*kmspb.DecryptResponse, error)
	Close() error
}

type gcpKMSClient struct {
	*kms.KeyManagementClient
}

func (c gcpKMSClient) Encrypt(ctx context.Context, req *kmspb.EncryptRequest) (*kmspb.EncryptResponse, error) {
	return c.KeyManagementClient.Encrypt(ctx, req)
}

func (c gcpKMSClient) Decrypt(ctx context.Context, req *kmspb.DecryptRequest) (*kmspb.DecryptResponse, error) {
	return c.KeyManagementClient.Decrypt(ctx, req)
}

// GoogleKMSClient is a RemoteClient backed by the Google Cloud KMS Encrypt and Decrypt RPCs.
// Requests and responses carry CRC32C checksums so corruption in transit is detected.
type GoogleKMSClient struct {
	api kmsAPI
}

// NewGoogleKMSClient connects to Cloud KMS. When credentialFile is empty, application
// default credentials are used.
func NewGoogleKMSClient(ctx context.Context, credentialFile string) (*GoogleKMSClient, error) {
	var opts []option.ClientOption
	if credentialFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialFile))
	}

	client, err := kms.NewKeyManagementClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud kms client: %w", err)
	}
	return &GoogleKMSClient{api: gcpKMSClient{client}}, nil
}

// GoogleKMSClientFactory returns a ClientFactory that connects with the identity's
// credential file.
func GoogleKMSClientFactory(identity cryptoDomain.GoogleKMS) ClientFactory {
	return func(ctx context.Context) (RemoteClient, error) {
		return NewGoogleKMSClient(ctx, identity.CredentialFile)
	}
}

// Encrypt wraps plaintext under the CryptoKey resource keyName.
func (c *GoogleKMSClient) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	resp, err := c.api.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:            keyName,
		Plaintext:       plaintext,
		PlaintextCrc32C: wrapperspb.Int64(crc32c(plaintext)),
	})
	if err != nil {
		return nil, fmt.Errorf("cloud kms encrypt failed: %w", err)
	}
	if !resp.GetVerifiedPlaintextCrc32C() {
		return nil, fmt.Errorf("cloud kms encrypt: plaintext %w", errChecksumMismatch)
	}
	if resp.GetCiphertextCrc32C() != nil && resp.GetCiphertextCrc32C().GetValue() != crc32c(resp.GetCiphertext()) {
		return nil, fmt.Errorf("cloud kms encrypt: ciphertext %w", errChecksumMismatch)
	}
	return resp.GetCiphertext(), nil
}

// Decrypt unwraps ciphertext under the CryptoKey resource keyName.
func (c *GoogleKMSClient) Decrypt(ctx context.Context, keyName string, ciphertext []byte) ([]byte, error) {
	resp, err := c.api.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:             keyName,
		Ciphertext:       ciphertext,
		CiphertextCrc32C: wrapperspb.Int64(crc32c(ciphertext)),
	})
	if err != nil {
		return nil, fmt.Errorf("cloud kms decrypt failed: %w", err)
	}
	if resp.GetPlaintextCrc32C() != nil && resp.GetPlaintextCrc32C().GetValue() != crc32c(resp.GetPlaintext()) {
		return nil, fmt.Errorf("cloud kms decrypt: plaintext %w", errChecksumMismatch)
	}
	return resp.GetPlaintext(), nil
}

// Close closes the gRPC connection.
func (c *GoogleKMSClient) Close() error {
	return c.api.Close()
}

func crc32c(data []byte) int64 {
	return int64(crc32.Checksum(data, crc32cTable))
}
