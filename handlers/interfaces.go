package handlers

import (
	"context"

	"github.com/fittrack/fittrack/types"
)

// AuthService is the part of the auth store the HTTP surface drives.
type AuthService interface {
	State() types.AuthState
	SignIn(ctx context.Context, email string) error
	SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error)
	SignOut(ctx context.Context) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) types.HealthCheck
}
