package service

import (
	"context"
	"time"
)

// CallObserver is told the outcome of every wrap and unwrap call.
type CallObserver interface {
	ObserveRemoteCall(ctx context.Context, rpc string, elapsed time.Duration, err error)
}

// ObservedClient reports each call of a RemoteClient to a CallObserver.
type ObservedClient struct {
	next     RemoteClient
	observer CallObserver
}

// NewObservedClient wraps next.
func NewObservedClient(next RemoteClient, observer CallObserver) *ObservedClient {
	return &ObservedClient{next: next, observer: observer}
}

// Encrypt forwards the call and reports it as "encrypt".
func (c *ObservedClient) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	start := time.Now()
	ciphertext, err := c.next.Encrypt(ctx, keyName, plaintext)
	c.observer.ObserveRemoteCall(ctx, "encrypt", time.Since(start), err)
	return ciphertext, err
}

// Decrypt forwards the call and reports it as "decrypt".
func (c *ObservedClient) Decrypt(ctx context.Context, keyName string, ciphertext []byte) ([]byte, error) {
	start := time.Now()
	plaintext, err := c.next.Decrypt(ctx, keyName, ciphertext)
	c.observer.ObserveRemoteCall(ctx, "decrypt", time.Since(start), err)
	return plaintext, err
}

// Close closes the wrapped client.
func (c *ObservedClient) Close() error {
	return c.next.Close()
}

// Observed wraps a factory so every client it creates reports to observer.
// A nil observer returns the factory unchanged.
func Observed(factory ClientFactory, observer CallObserver) ClientFactory {
	if observer == nil {
		return factory
	}
	return func(ctx context.Context) (RemoteClient, error) {
		client, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		return NewObservedClient(client, observer), nil
	}
}
