package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fittrack/fittrack/types"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(expiresAt int64) *types.Session {
	return &types.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    expiresAt,
		User:         types.AuthUser{ID: "7c1e3a5e-0b9f-4d0a-8a47-1f0f3c2b9d11", Email: "alba@example.com"},
	}
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	session := sampleSession(0)
	require.NoError(t, s.Save(ctx, session))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	// Returned values are copies.
	loaded.AccessToken = "changed"
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", again.AccessToken)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(ctx, session))
	require.NoError(t, s.Save(ctx, nil))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemorySessionStore_CopiesMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	session := sampleSession(0)
	session.User.UserMetadata = map[string]interface{}{
		"full_name": "Alba",
		"prefs":     map[string]interface{}{"units": "metric"},
		"tags":      []interface{}{"runner"},
	}
	require.NoError(t, s.Save(ctx, session))

	session.User.UserMetadata["full_name"] = "changed by caller"

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	loaded.User.UserMetadata["full_name"] = "changed by reader"
	loaded.User.UserMetadata["prefs"].(map[string]interface{})["units"] = "imperial"
	loaded.User.UserMetadata["tags"].([]interface{})[0] = "cyclist"

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alba", again.User.UserMetadata["full_name"])
	assert.Equal(t, map[string]interface{}{"units": "metric"}, again.User.UserMetadata["prefs"])
	assert.Equal(t, []interface{}{"runner"}, again.User.UserMetadata["tags"])
}

func TestNewRedisSessionStore_DefaultKey(t *testing.T) {
	client, _ := redismock.NewClientMock()
	assert.Equal(t, DefaultKey, NewRedisSessionStore(client, "").Key())
	assert.Equal(t, "custom", NewRedisSessionStore(client, "custom").Key())
}

func TestRedisSessionStore_Load(t *testing.T) {
	session := sampleSession(1700003600)
	encoded, err := json.Marshal(session)
	require.NoError(t, err)

	tests := []struct {
		name        string
		setupMock   func(redismock.ClientMock)
		want        *types.Session
		wantErrIs   error
		wantErrText string
	}{
		{
			name: "stored session",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(DefaultKey).SetVal(string(encoded))
			},
			want: session,
		},
		{
			name: "nothing stored",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(DefaultKey).RedisNil()
			},
			wantErrIs: ErrNoSession,
		},
		{
			name: "redis failure",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(DefaultKey).SetErr(errors.New("connection refused"))
			},
			wantErrText: "failed to load session",
		},
		{
			name: "corrupt value",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectGet(DefaultKey).SetVal("{not json")
			},
			wantErrText: "failed to decode session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setupMock(mock)
			s := NewRedisSessionStore(client, "")

			got, err := s.Load(context.Background())

			switch {
			case tt.wantErrIs != nil:
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, got)
			case tt.wantErrText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrText)
				assert.NotErrorIs(t, err, ErrNoSession)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisSessionStore_Save(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("expiring session gets lifetime plus grace", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		s := NewRedisSessionStore(client, "")
		s.now = func() time.Time { return now }

		session := sampleSession(now.Add(time.Hour).Unix())
		encoded, err := json.Marshal(session)
		require.NoError(t, err)
		mock.ExpectSet(DefaultKey, string(encoded), time.Hour+SessionGrace).SetVal("OK")

		require.NoError(t, s.Save(context.Background(), session))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("session without expiry is kept", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		s := NewRedisSessionStore(client, "")

		session := sampleSession(0)
		encoded, err := json.Marshal(session)
		require.NoError(t, err)
		mock.ExpectSet(DefaultKey, string(encoded), 0).SetVal("OK")

		require.NoError(t, s.Save(context.Background(), session))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil session clears", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		s := NewRedisSessionStore(client, "")
		mock.ExpectDel(DefaultKey).SetVal(1)

		require.NoError(t, s.Save(context.Background(), nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		s := NewRedisSessionStore(client, "")

		session := sampleSession(0)
		encoded, err := json.Marshal(session)
		require.NoError(t, err)
		mock.ExpectSet(DefaultKey, string(encoded), 0).SetErr(errors.New("READONLY"))

		err = s.Save(context.Background(), session)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save session")
	})
}

func TestRedisSessionStore_Clear(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisSessionStore(client, "session:test")

	mock.ExpectDel("session:test").SetVal(0)
	require.NoError(t, s.Clear(context.Background()))

	mock.ExpectDel("session:test").SetErr(errors.New("connection reset"))
	assert.Error(t, s.Clear(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	s := NewRedisSessionStore(client, "")
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	session := sampleSession(1700003600)
	require.NoError(t, s.Save(ctx, session))
	assert.Equal(t, time.Hour+SessionGrace, mr.TTL(DefaultKey))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	mr.FastForward(time.Hour + SessionGrace)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(ctx, sampleSession(0)))
	assert.Zero(t, mr.TTL(DefaultKey))
	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists(DefaultKey))
}
