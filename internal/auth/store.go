package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	apperrors "github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/types"
	"go.uber.org/zap"
)

// ErrStoreClosed is returned by Initialize after Close.
var ErrStoreClosed = errors.New("auth store closed")

// Store is the reactive auth state container. It starts in the loading
// state, resolves once on Initialize and then follows every provider
// session change. Construct one per process and inject it where the UI
// layer needs it.
type Store struct {
	provider   Provider
	profiles   ProfileFetcher
	log        *zap.SugaredLogger
	recorder   Recorder
	redirectTo string

	cell   *cell
	events *eventQueue

	ctx    context.Context
	cancel context.CancelFunc

	// gateMu orders publishes against SignOut. epoch advances on every
	// successful sign-out; results resolved under an older epoch are stale.
	gateMu sync.Mutex
	epoch  uint64

	mu                  sync.Mutex
	initialized         bool
	closed              bool
	unsubscribeProvider func()
	wg                  sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger replaces the default named logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRedirectURL sets the origin passwordless sign-in links return to.
func WithRedirectURL(u string) Option {
	return func(s *Store) { s.redirectTo = u }
}

// NewStore creates a Store in the loading state.
func NewStore(provider Provider, profiles ProfileFetcher, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		provider: provider,
		profiles: profiles,
		log:      logger.GetLogger().Named("auth_store"),
		recorder: noopRecorder{},
		cell:     newCell(types.LoadingState()),
		events:   newEventQueue(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe calls fn with the current state immediately and again after
// every change. The returned function unsubscribes; calling it more than
// once is harmless. fn runs synchronously on the publishing goroutine and
// must not call Subscribe, SignOut or Initialize. Reading State is fine.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	return s.cell.subscribe(fn)
}

// State returns the current snapshot.
func (s *Store) State() types.AuthState {
	return s.cell.get()
}

// Initialize resolves the current session (and its profile) and publishes
// the result with Loading false, then starts following provider session
// changes for the lifetime of the store. Calling it again is a no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	// Listen before reading the session so a change racing the initial
	// lookup is queued rather than lost.
	s.unsubscribeProvider = s.provider.OnAuthStateChange(s.enqueue)
	ready := make(chan struct{})
	s.wg.Add(1)
	go s.consume(ready)
	s.mu.Unlock()

	epoch := s.currentEpoch()
	session, err := s.provider.GetSession(ctx)
	if err != nil {
		s.log.Warnw("Failed to get current session, continuing signed out", "error", err)
		session = nil
	}
	s.publishIfCurrent(epoch, s.resolve(ctx, session))
	close(ready)
	return nil
}

// consume drains provider events one at a time once the initial state is
// published: each event's profile fetch completes and publishes before the
// next event is looked at.
func (s *Store) consume(ready <-chan struct{}) {
	defer s.wg.Done()
	select {
	case <-ready:
	case <-s.ctx.Done():
		return
	}
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.events.signal:
		}

		for {
			ev, ok := s.events.pop()
			if !ok {
				break
			}
			if s.ctx.Err() != nil {
				return
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Store) enqueue(change types.AuthStateChange) {
	s.events.push(queuedEvent{change: change, epoch: s.currentEpoch()})
}

func (s *Store) handleEvent(ev queuedEvent) {
	s.recorder.RecordAuthEvent(ev.change.Event)
	s.log.Debugw("Auth state change", "event", ev.change.Event, "hasSession", ev.change.Session != nil)
	if !s.publishIfCurrent(ev.epoch, s.resolve(s.ctx, ev.change.Session)) {
		s.log.Debugw("Dropped auth state change superseded by sign-out", "event", ev.change.Event)
	}
}

func (s *Store) currentEpoch() uint64 {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	return s.epoch
}

// publishIfCurrent publishes state unless a sign-out completed after epoch
// was taken.
func (s *Store) publishIfCurrent(epoch uint64, state types.AuthState) bool {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.publish(state)
	return true
}

// resolve builds the complete state for session, fetching the profile
// first so the two are published together.
func (s *Store) resolve(ctx context.Context, session *types.Session) types.AuthState {
	if session == nil || session.User.ID == "" {
		return types.SignedOutState()
	}
	profile := s.FetchProfile(ctx, session.User.ID)
	user := session.User
	return types.AuthState{
		User:    &user,
		Profile: profile,
		Session: session,
		Loading: false,
	}
}

func (s *Store) publish(state types.AuthState) {
	s.cell.set(state)
	s.recorder.RecordPublish(state)
}

// FetchProfile returns the profile row for userID, or nil if the lookup
// fails. Failures are logged, never returned.
func (s *Store) FetchProfile(ctx context.Context, userID string) *types.Profile {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		s.log.Errorw("Error fetching profile", "userID", userID, "error", err)
		s.recorder.RecordProfileFetchFailure()
		return nil
	}
	return profile
}

// SignIn requests a passwordless sign-in link for email that redirects to
// the configured site origin. The provider's error is returned as is.
func (s *Store) SignIn(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.ValidationFailed("Email is required", "")
	}
	err := s.provider.SignInWithOtp(ctx, email, s.redirectTo)
	if err != nil {
		s.log.Warnw("Passwordless sign-in request failed", "email", logger.MaskEmail(email), "error", err)
	}
	return err
}

// SignInWithPassword signs in with credentials. State follows through the
// provider's SIGNED_IN event.
func (s *Store) SignInWithPassword(ctx context.Context, email, password string) (*types.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.ValidationFailed("Email and password are required", "")
	}
	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.log.Warnw("Password sign-in failed", "email", logger.MaskEmail(email), "error", err)
		return nil, err
	}
	return session, nil
}

// SignOut ends the session. On success the signed-out state is published
// and any change that arrived before it is discarded unpublished; on
// failure the state is left untouched and the error returned.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.log.Warnw("Sign-out failed", "error", err)
		return err
	}
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	s.epoch++
	s.publish(types.SignedOutState())
	return nil
}

// Close stops following provider changes. Pending events are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribeProvider
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.cancel()
	s.wg.Wait()
}
