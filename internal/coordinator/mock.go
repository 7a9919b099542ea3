package coordinator

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a testify mock of JobDispatcher.
type MockDispatcher struct {
	mock.Mock
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Dispatch(ctx context.Context, params JobParameters) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
