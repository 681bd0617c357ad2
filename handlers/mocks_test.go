package handlers

import (
	"context"

	"github.com/fittrack/fittrack/types"
	"github.com/stretchr/testify/mock"
)

// MockAuthService implements AuthService for handler tests.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) State() types.AuthState {
	return m.Called().Get(0).(types.AuthState)
}

func (m *MockAuthService) SignIn(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Session), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockHealthChecker implements HealthChecker for handler tests.
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	return m.Called(ctx).Get(0).(types.HealthCheck)
}
