package middleware

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/logger"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts a request against key and reports whether it may
// proceed and, if not, how long until the window resets.
type RateLimiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// AuthRateLimiter throttles sign-in endpoints per client IP. The IP comes
// from gin's ClientIP, so forwarding headers count only when the engine
// trusts the peer that sent them. Limiter failures let the request through.
func AuthRateLimiter(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	log := logger.GetLogger().Named("rate_limit")
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := fmt.Sprintf("auth:%s", ip)

		allowed, ttl, err := limiter.CheckLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warnw("Rate limit check failed, allowing request", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))

		if !allowed {
			if ttl <= 0 {
				ttl = window
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			_ = c.Error(apperrors.RateLimitExceeded("Too many requests. Please try again later.", int(ttl.Seconds())))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))
		c.Next()
	}
}
