package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitService counts requests per key in fixed Redis windows.
type RateLimitService struct {
	redis     redis.Cmdable
	keyPrefix string
}

func NewRateLimitService(redisClient redis.Cmdable) *RateLimitService {
	return &RateLimitService{
		redis:     redisClient,
		keyPrefix: "fittrack:ratelimit:",
	}
}

// CheckLimit counts one request against key. When the count passes limit
// it reports false along with the time left in the window.
func (s *RateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	rKey := s.keyPrefix + key

	pipe := s.redis.Pipeline()
	incr := pipe.Incr(ctx, rKey)
	pipe.ExpireNX(ctx, rKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if incr.Val() <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := s.redis.TTL(ctx, rKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		ttl = window
	}
	return false, ttl, nil
}
