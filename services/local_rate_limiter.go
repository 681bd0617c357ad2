package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalRateLimiter is the in-process counterpart of RateLimitService for a
// single instance without Redis. Each key gets a token bucket that refills
// limit tokens per window.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	idleTTL  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLocalRateLimiter starts a limiter that forgets keys idle for longer
// than idleTTL.
func NewLocalRateLimiter(idleTTL time.Duration) *LocalRateLimiter {
	l := &LocalRateLimiter{
		limiters: make(map[string]*keyLimiter),
		idleTTL:  idleTTL,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// CheckLimit takes one token for key. When none is left it reports false
// and how long until the next token.
func (l *LocalRateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	now := l.now()

	l.mu.Lock()
	kl, ok := l.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		l.limiters[key] = kl
	}
	kl.lastAccess = now
	l.mu.Unlock()

	r := kl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, window, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// Stop ends the cleanup goroutine.
func (l *LocalRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *LocalRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *LocalRateLimiter) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, kl := range l.limiters {
		if now.Sub(kl.lastAccess) > l.idleTTL {
			delete(l.limiters, key)
		}
	}
}
