package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockUserService is a testify mock of service.UserService.
type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

func (m *MockUserService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*service.AuthTokens, error) {
	args := m.Called(ctx, email, password)
	if tokens, ok := args.Get(0).(*service.AuthTokens); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Refresh(ctx context.Context, refreshToken string) (*service.AuthTokens, error) {
	args := m.Called(ctx, refreshToken)
	if tokens, ok := args.Get(0).(*service.AuthTokens); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}
