package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/internal/store"
	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/types"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	gotypes "github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// goTrueAuth is the part of the GoTrue client the provider drives.
type goTrueAuth interface {
	SignInWithEmailPassword(email, password string) (*gotypes.TokenResponse, error)
	RefreshToken(refreshToken string) (*gotypes.TokenResponse, error)
	Logout(accessToken string) error
	// InstallSession makes row queries run as the session's user.
	InstallSession(session gotypes.Session)
}

// supabaseAuth adapts a supabase client to goTrueAuth.
type supabaseAuth struct {
	client *supabase.Client
}

func (a supabaseAuth) SignInWithEmailPassword(email, password string) (*gotypes.TokenResponse, error) {
	return a.client.Auth.SignInWithEmailPassword(email, password)
}

func (a supabaseAuth) RefreshToken(refreshToken string) (*gotypes.TokenResponse, error) {
	return a.client.Auth.RefreshToken(refreshToken)
}

func (a supabaseAuth) Logout(accessToken string) error {
	var auth gotrue.Client = a.client.Auth
	return auth.WithToken(accessToken).Logout()
}

func (a supabaseAuth) InstallSession(session gotypes.Session) {
	a.client.UpdateAuthSession(session)
}

// AuthProviderConfig holds the project settings used for raw auth calls.
type AuthProviderConfig struct {
	URL     string
	AnonKey string
}

// AuthProvider implements the session provider on top of Supabase Auth.
// The current session lives in a SessionStore so it survives restarts.
type AuthProvider struct {
	auth       goTrueAuth
	sessions   store.SessionStore
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        *zap.SugaredLogger
	now        func() time.Time

	mu           sync.Mutex
	listeners    []authListener
	nextListener int
}

type authListener struct {
	id int
	fn func(types.AuthStateChange)
}

// NewAuthProvider creates a provider backed by client.
func NewAuthProvider(client *supabase.Client, sessions store.SessionStore, cfg AuthProviderConfig) *AuthProvider {
	return newAuthProvider(supabaseAuth{client: client}, sessions, cfg)
}

func newAuthProvider(auth goTrueAuth, sessions store.SessionStore, cfg AuthProviderConfig) *AuthProvider {
	return &AuthProvider{
		auth:     auth,
		sessions: sessions,
		baseURL:  cfg.URL,
		anonKey:  cfg.AnonKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logger.GetLogger().Named("auth_provider"),
		now: time.Now,
	}
}

// OnAuthStateChange registers listener for session changes. Listeners run
// in registration order on the goroutine that caused the change.
func (p *AuthProvider) OnAuthStateChange(listener func(types.AuthStateChange)) func() {
	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners = append(p.listeners, authListener{id: id, fn: listener})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, l := range p.listeners {
				if l.id == id {
					p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (p *AuthProvider) emit(event types.AuthChangeEvent, session *types.Session) {
	p.mu.Lock()
	listeners := make([]authListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	p.log.Debugw("Emitting auth event", "event", event, "listeners", len(listeners))
	change := types.AuthStateChange{Event: event, Session: session}
	for _, l := range listeners {
		l.fn(change)
	}
}

// GetSession returns the persisted session, refreshing it once if the
// access token has expired. A session that cannot be refreshed is dropped.
func (p *AuthProvider) GetSession(ctx context.Context) (*types.Session, error) {
	session, err := p.sessions.Load(ctx)
	if errors.Is(err, store.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !session.Expired(p.now()) {
		p.install(session)
		return session, nil
	}

	if session.RefreshToken == "" {
		p.log.Infow("Persisted session expired without refresh token, discarding", "userID", session.User.ID)
		p.clear(ctx)
		return nil, nil
	}

	refreshed, err := p.refresh(ctx, session.RefreshToken)
	if err != nil {
		p.log.Warnw("Failed to refresh expired session, discarding", "userID", session.User.ID, "error", err)
		p.clear(ctx)
		return nil, nil
	}
	return refreshed, nil
}

// RefreshSession exchanges the persisted refresh token for a new session.
func (p *AuthProvider) RefreshSession(ctx context.Context) (*types.Session, error) {
	session, err := p.sessions.Load(ctx)
	if errors.Is(err, store.ErrNoSession) {
		return nil, apperrors.AuthenticationFailed("No session to refresh")
	}
	if err != nil {
		return nil, err
	}
	if session.RefreshToken == "" {
		return nil, apperrors.AuthenticationFailed("Session has no refresh token")
	}
	return p.refresh(ctx, session.RefreshToken)
}

func (p *AuthProvider) refresh(ctx context.Context, refreshToken string) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, providerError(err, "Failed to refresh session")
	}
	session := fromGoTrueSession(resp.Session)
	if err := p.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ServerError, "Failed to persist session")
	}
	p.install(session)
	p.emit(types.AuthEventTokenRefreshed, session)
	return session, nil
}

// SignInWithOtp asks Supabase Auth to email a sign-in link that returns to
// redirectTo. Unknown addresses get an account created.
func (p *AuthProvider) SignInWithOtp(ctx context.Context, email, redirectTo string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"email":       email,
		"create_user": true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	endpoint := fmt.Sprintf("%s/auth/v1/otp", p.baseURL)
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+p.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ProviderError, "Failed to reach auth service")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAuthError(resp)
	}
	p.log.Infow("Sign-in link requested", "email", logger.MaskEmail(email))
	return nil
}

// SignInWithPassword signs in with email and password, persists the new
// session and emits SIGNED_IN.
func (p *AuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, providerError(err, "Invalid login credentials")
	}
	session := fromGoTrueSession(resp.Session)
	if err := p.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ServerError, "Failed to persist session")
	}
	p.install(session)
	p.emit(types.AuthEventSignedIn, session)
	return session, nil
}

// SignOut revokes the current session, clears it and emits SIGNED_OUT.
// With no session it only clears and emits.
func (p *AuthProvider) SignOut(ctx context.Context) error {
	session, err := p.sessions.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrNoSession) {
		return apperrors.Wrap(err, apperrors.ServerError, "Failed to load session")
	}
	if session != nil && session.AccessToken != "" {
		if err := p.auth.Logout(session.AccessToken); err != nil {
			return providerError(err, "Failed to sign out")
		}
	}
	if err := p.sessions.Clear(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ServerError, "Failed to clear session")
	}
	p.install(nil)
	p.emit(types.AuthEventSignedOut, nil)
	return nil
}

func (p *AuthProvider) clear(ctx context.Context) {
	if err := p.sessions.Clear(ctx); err != nil {
		p.log.Warnw("Failed to clear persisted session", "error", err)
	}
	p.install(nil)
}

// install hands the session to the data client; nil reverts it to the anon
// key.
func (p *AuthProvider) install(session *types.Session) {
	if session == nil {
		p.auth.InstallSession(gotypes.Session{AccessToken: p.anonKey})
		return
	}
	p.auth.InstallSession(toGoTrueSession(session))
}

func fromGoTrueSession(s gotypes.Session) *types.Session {
	return &types.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		User: types.AuthUser{
			ID:           s.User.ID.String(),
			Email:        s.User.Email,
			Phone:        s.User.Phone,
			Role:         s.User.Role,
			UserMetadata: s.User.UserMetadata,
			CreatedAt:    s.User.CreatedAt,
		},
	}
}

func toGoTrueSession(s *types.Session) gotypes.Session {
	out := gotypes.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
	}
	if id, err := uuid.Parse(s.User.ID); err == nil {
		out.User.ID = id
	}
	out.User.Email = s.User.Email
	out.User.Phone = s.User.Phone
	out.User.Role = s.User.Role
	out.User.UserMetadata = s.User.UserMetadata
	out.User.CreatedAt = s.User.CreatedAt
	return out
}

// authErrorBody covers the error shapes Supabase Auth responds with.
type authErrorBody struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func (b authErrorBody) message() string {
	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

func decodeAuthError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed authErrorBody
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.message()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return apperrors.NewProviderError(resp.StatusCode, parsed.ErrorCode, msg)
}

var statusPattern = regexp.MustCompile(`(?s)status code (\d{3}): (.*)$`)

// providerError turns a GoTrue client error into an AppError, keeping the
// upstream status and message when the error carries them.
func providerError(err error, fallback string) error {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return apperrors.Wrap(err, apperrors.ProviderError, fallback)
	}
	status, _ := strconv.Atoi(m[1])

	var parsed authErrorBody
	msg := fallback
	if json.Unmarshal([]byte(m[2]), &parsed) == nil && parsed.message() != "" {
		msg = parsed.message()
	}
	appErr := apperrors.NewProviderError(status, parsed.ErrorCode, msg)
	appErr.Raw = err
	return appErr
}
