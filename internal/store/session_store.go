package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fittrack/fittrack/types"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the key sessions are stored under unless configured
// otherwise. It matches the browser client's local storage key.
const DefaultKey = "sb-auth-token"

// SessionGrace keeps a persisted session around past access-token expiry so
// its refresh token can still be used.
const SessionGrace = 7 * 24 * time.Hour

// SessionStore persists the current auth session between calls.
type SessionStore interface {
	Load(ctx context.Context) (*types.Session, error)
	Save(ctx context.Context, session *types.Session) error
	Clear(ctx context.Context) error
}

// MemorySessionStore keeps the session in process memory. Sessions are
// deep-copied on the way in and out.
type MemorySessionStore struct {
	mu      sync.RWMutex
	session *types.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load(ctx context.Context) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, ErrNoSession
	}
	return m.session.Clone(), nil
}

func (m *MemorySessionStore) Save(ctx context.Context, session *types.Session) error {
	if session == nil {
		return m.Clear(ctx)
	}
	copied := session.Clone()
	m.mu.Lock()
	m.session = copied
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

// RedisSessionStore keeps the session as a JSON value under a single key.
type RedisSessionStore struct {
	redis *redis.Client
	key   string
	now   func() time.Time
}

func NewRedisSessionStore(client *redis.Client, key string) *RedisSessionStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisSessionStore{
		redis: client,
		key:   key,
		now:   time.Now,
	}
}

// Key returns the Redis key the session is stored under.
func (r *RedisSessionStore) Key() string {
	return r.key
}

func (r *RedisSessionStore) Load(ctx context.Context) (*types.Session, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session types.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, session *types.Session) error {
	if session == nil {
		return r.Clear(ctx)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.redis.Set(ctx, r.key, string(data), r.ttl(session)).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ttl is zero (no expiry) for sessions without an expiry time.
func (r *RedisSessionStore) ttl(session *types.Session) time.Duration {
	if session.ExpiresAt == 0 {
		return 0
	}
	return session.Lifetime(r.now()) + SessionGrace
}
