package objectstore

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of Client.
type MockClient struct {
	mock.Mock
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) BeginSession(ctx context.Context, key, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockClient) PresignPartURL(ctx context.Context, key, sessionToken string, partNumber int, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, sessionToken, partNumber, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockClient) FinalizeSession(ctx context.Context, key, sessionToken string, parts []CompletedPart) error {
	args := m.Called(ctx, key, sessionToken, parts)
	return args.Error(0)
}

func (m *MockClient) AbortSession(ctx context.Context, key, sessionToken string) error {
	args := m.Called(ctx, key, sessionToken)
	return args.Error(0)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
