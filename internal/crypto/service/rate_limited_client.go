package service

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClient keeps calls to a RemoteClient within a request quota using a token
// bucket. Callers wait for a token; a cancelled context aborts the wait.
type RateLimitedClient struct {
	next    RemoteClient
	limiter *rate.Limiter
}

// NewRateLimitedClient allows requestsPerSec calls per second with the given burst.
func NewRateLimitedClient(next RemoteClient, requestsPerSec float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), burst),
	}
}

// Encrypt waits for a token and forwards the call.
func (c *RateLimitedClient) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.next.Encrypt(ctx, keyName, plaintext)
}

// Decrypt waits for a token and forwards the call.
func (c *RateLimitedClient) Decrypt(ctx context.Context, keyName string, ciphertext []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.next.Decrypt(ctx, keyName, ciphertext)
}

// Close closes the wrapped client.
func (c *RateLimitedClient) Close() error {
	return c.next.Close()
}

// RateLimited wraps a factory so every client it creates is rate limited.
// A non-positive requestsPerSec returns the factory unchanged.
func RateLimited(factory ClientFactory, requestsPerSec float64, burst int) ClientFactory {
	if requestsPerSec <= 0 {
		return factory
	}
	return func(ctx context.Context) (RemoteClient, error) {
		client, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		return NewRateLimitedClient(client, requestsPerSec, burst), nil
	}
}
