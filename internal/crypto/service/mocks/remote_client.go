// Package mocks provides mock implementations of crypto service interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRemoteClient is a mock implementation of RemoteClient for testing.
type MockRemoteClient struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of RemoteClient.
func (m *MockRemoteClient) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, keyName, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Decrypt mocks the Decrypt method of RemoteClient.
func (m *MockRemoteClient) Decrypt(ctx context.Context, keyName string, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, keyName, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Close mocks the Close method of RemoteClient.
func (m *MockRemoteClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
