package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitService_CheckLimit(t *testing.T) {
	const key = "fittrack:ratelimit:auth:10.0.0.1"

	tests := []struct {
		name        string
		setupMock   func(redismock.ClientMock)
		wantAllowed bool
		wantTTL     time.Duration
		wantErr     bool
	}{
		{
			name: "under limit",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(key).SetVal(1)
				mock.ExpectExpireNX(key, time.Minute).SetVal(true)
			},
			wantAllowed: true,
		},
		{
			name: "at limit",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(key).SetVal(3)
				mock.ExpectExpireNX(key, time.Minute).SetVal(true)
			},
			wantAllowed: true,
		},
		{
			name: "over limit",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(key).SetVal(4)
				mock.ExpectExpireNX(key, time.Minute).SetVal(true)
				mock.ExpectTTL(key).SetVal(42 * time.Second)
			},
			wantAllowed: false,
			wantTTL:     42 * time.Second,
		},
		{
			name: "over limit without ttl",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(key).SetVal(9)
				mock.ExpectExpireNX(key, time.Minute).SetVal(true)
				mock.ExpectTTL(key).SetVal(-1)
			},
			wantAllowed: false,
			wantTTL:     time.Minute,
		},
		{
			name: "redis failure",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tt.setupMock(mock)

			svc := NewRateLimitService(client)
			allowed, ttl, err := svc.CheckLimit(context.Background(), "auth:10.0.0.1", 3, time.Minute)

			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, allowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, allowed)
			assert.Equal(t, tt.wantTTL, ttl)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRateLimitService_AgainstRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewRateLimitService(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := svc.CheckLimit(ctx, "auth:10.0.0.9", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, ttl, err := svc.CheckLimit(ctx, "auth:10.0.0.9", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute)
	allowed, _, err = svc.CheckLimit(ctx, "auth:10.0.0.9", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitService_WindowDoesNotSlide(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewRateLimitService(client)
	ctx := context.Background()
	const key = "fittrack:ratelimit:auth:10.0.0.7"

	allowed, _, err := svc.CheckLimit(ctx, "auth:10.0.0.7", 10, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	mr.FastForward(50 * time.Second)
	allowed, _, err = svc.CheckLimit(ctx, "auth:10.0.0.7", 10, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
	assert.Equal(t, 10*time.Second, mr.TTL(key))

	// One request every 50s stays well under 10 per minute.
	for i := 0; i < 30; i++ {
		mr.FastForward(50 * time.Second)
		allowed, _, err := svc.CheckLimit(ctx, "auth:10.0.0.7", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d denied", i+3)
	}
}
