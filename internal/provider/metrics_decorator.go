package provider

import (
	"context"
	"time"

	"github.com/suryadisoft/cipher/internal/cache"
	cryptoDomain "github.com/suryadisoft/cipher/internal/crypto/domain"
	"github.com/suryadisoft/cipher/internal/metrics"
)

// providerWithMetrics decorates Provider with metrics instrumentation.
type providerWithMetrics struct {
	next     Provider
	recorder metrics.Recorder
}

// NewProviderWithMetrics wraps a Provider so every encrypt, decrypt and hash is reported
// to recorder under the wrapped provider's type.
func NewProviderWithMetrics(next Provider, recorder metrics.Recorder) Provider {
	return &providerWithMetrics{
		next:     next,
		recorder: recorder,
	}
}

// Encrypt records metrics for encrypt operations.
func (p *providerWithMetrics) Encrypt(
	ctx context.Context,
	plaintext []byte,
) (cryptoDomain.WrappedCipherText, error) {
	start := time.Now()
	wrapped, err := p.next.Encrypt(ctx, plaintext)
	p.recorder.ObserveOperation(ctx, p.next.Type(), metrics.OperationEncrypt, len(plaintext), time.Since(start), err)
	return wrapped, err
}

// Decrypt records metrics for decrypt operations. The payload size is that of the
// recovered plaintext.
func (p *providerWithMetrics) Decrypt(ctx context.Context, wrapped cryptoDomain.WrappedCipherText) ([]byte, error) {
	start := time.Now()
	plaintext, err := p.next.Decrypt(ctx, wrapped)
	p.recorder.ObserveOperation(ctx, p.next.Type(), metrics.OperationDecrypt, len(plaintext), time.Since(start), err)
	return plaintext, err
}

// Hash records metrics for hash operations.
func (p *providerWithMetrics) Hash(plaintext, salt string) (string, error) {
	start := time.Now()
	digest, err := p.next.Hash(plaintext, salt)
	p.recorder.ObserveOperation(
		context.Background(),
		p.next.Type(),
		metrics.OperationHash,
		len(plaintext),
		time.Since(start),
		err,
	)
	return digest, err
}

func (p *providerWithMetrics) Type() cryptoDomain.ProviderType {
	return p.next.Type()
}

func (p *providerWithMetrics) MasterKeyInfo() string {
	return p.next.MasterKeyInfo()
}

func (p *providerWithMetrics) CacheStats() cache.Stats {
	return p.next.CacheStats()
}

func (p *providerWithMetrics) Close() error {
	return p.next.Close()
}
