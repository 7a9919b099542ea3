package video

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of Store.
type MockStore struct {
	mock.Mock
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Insert(ctx context.Context, v *Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, id uuid.UUID) (*Video, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*Video), args.Error(1)
}

func (m *MockStore) TransitionStatus(ctx context.Context, id uuid.UUID, next Status) (Status, error) {
	args := m.Called(ctx, id, next)
	return args.Get(0).(Status), args.Error(1)
}

func (m *MockStore) ListByStatus(ctx context.Context, status Status) ([]Video, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]Video), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
