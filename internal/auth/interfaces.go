// Package auth keeps a local, observable copy of the signed-in user's
// session and profile consistent with the auth provider.
package auth

import (
	"context"

	"github.com/fittrack/fittrack/types"
)

// Provider is the hosted auth service as seen by the Store.
type Provider interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*types.Session, error)
	// OnAuthStateChange registers listener for every session change and
	// returns a function that removes it.
	OnAuthStateChange(listener func(types.AuthStateChange)) (unsubscribe func())
	// SignInWithOtp requests a one-time link/code that lands on redirectTo.
	SignInWithOtp(ctx context.Context, email, redirectTo string) error
	SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error)
	SignOut(ctx context.Context) error
}

// ProfileFetcher looks up a row of the profiles table by user id.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
}

// Recorder receives store activity for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordPublish(state types.AuthState)
	RecordProfileFetchFailure()
	RecordAuthEvent(event types.AuthChangeEvent)
}

type noopRecorder struct{}

func (noopRecorder) RecordPublish(types.AuthState)         {}
func (noopRecorder) RecordProfileFetchFailure()            {}
func (noopRecorder) RecordAuthEvent(types.AuthChangeEvent) {}
