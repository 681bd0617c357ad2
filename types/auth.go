package types

import "time"

// AuthUser is the identity-provider user attached to a session. It is owned
// by the auth service and never modified locally.
type AuthUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email,omitempty"`
	Phone        string                 `json:"phone,omitempty"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Session is the opaque proof of authentication issued by the auth service.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         AuthUser `json:"user"`
}

// Clone returns a deep copy, including the user metadata tree.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User.UserMetadata != nil {
		c.User.UserMetadata = cloneMap(s.User.UserMetadata)
	}
	return &c
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Expired reports whether the access token is past its expiry at now.
// A session without an expiry never expires locally.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != 0 && now.Unix() >= s.ExpiresAt
}

// Lifetime is the time left before expiry, or zero when unknown or past.
func (s *Session) Lifetime(now time.Time) time.Duration {
	if s.ExpiresAt == 0 {
		return 0
	}
	d := time.Unix(s.ExpiresAt, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// AuthState is the value published to UI subscribers. The four fields are
// always replaced together.
type AuthState struct {
	User    *AuthUser `json:"user"`
	Profile *Profile  `json:"profile"`
	Session *Session  `json:"session"`
	Loading bool      `json:"loading"`
}

// SignedOutState is the resolved state with no session.
func SignedOutState() AuthState {
	return AuthState{}
}

// LoadingState is the state before the first resolution.
func LoadingState() AuthState {
	return AuthState{Loading: true}
}

// SignedIn reports whether the state carries a session.
func (s AuthState) SignedIn() bool {
	return s.Session != nil
}

// AuthChangeEvent names a provider-driven session change.
type AuthChangeEvent string

const (
	AuthEventInitialSession AuthChangeEvent = "INITIAL_SESSION"
	AuthEventSignedIn       AuthChangeEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthChangeEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthChangeEvent = "USER_UPDATED"
)

// AuthStateChange is delivered to OnAuthStateChange listeners. Session is
// nil for sign-out.
type AuthStateChange struct {
	Event   AuthChangeEvent
	Session *Session
}
