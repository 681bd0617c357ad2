package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthService reports on the session store and the Supabase Auth API.
type HealthService struct {
	redisClient *redis.Client
	authURL     string
	anonKey     string
	httpClient  *http.Client
	version     string
	startTime   time.Time
	signedIn    func() bool
	log         *zap.SugaredLogger
}

// NewHealthService creates a health service. redisClient may be nil when
// sessions are kept in memory.
func NewHealthService(redisClient *redis.Client, supabaseURL, anonKey, version string) *HealthService {
	return &HealthService{
		redisClient: redisClient,
		authURL:     supabaseURL,
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		version:   version,
		startTime: time.Now(),
		log:       logger.GetLogger(),
	}
}

// SetSignedInGetter lets the report include whether a user is signed in.
func (h *HealthService) SetSignedInGetter(getter func() bool) {
	h.signedIn = getter
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	if h.redisClient != nil {
		redisStatus := h.checkRedis(ctx)
		components["redis"] = redisStatus
		overallStatus = worst(overallStatus, redisStatus.Status)
	}

	authStatus := h.checkAuth(ctx)
	components["auth"] = authStatus
	overallStatus = worst(overallStatus, authStatus.Status)

	check := types.HealthCheck{
		Status:     overallStatus,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.signedIn != nil {
		check.SignedIn = h.signedIn()
	}
	return check
}

func worst(current, next types.HealthStatus) types.HealthStatus {
	switch {
	case current == types.HealthStatusDown || next == types.HealthStatusDown:
		return types.HealthStatusDown
	case current == types.HealthStatusDegraded || next == types.HealthStatusDegraded:
		return types.HealthStatusDegraded
	default:
		return types.HealthStatusUp
	}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}

	return types.HealthComponent{
		Status: types.HealthStatusUp,
	}
}

// checkAuth calls the GoTrue health endpoint. An unreachable auth service
// degrades rather than downs the instance since persisted sessions still
// load.
func (h *HealthService) checkAuth(ctx context.Context) types.HealthComponent {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/auth/v1/health", h.authURL), nil)
	if err != nil {
		return types.HealthComponent{Status: types.HealthStatusDown, Details: "Invalid auth URL"}
	}
	req.Header.Set("apikey", h.anonKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.log.Warnw("Auth health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDegraded,
			Details: "Auth service unreachable",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.log.Warnw("Auth health check returned unexpected status", "status", resp.StatusCode)
		return types.HealthComponent{
			Status:  types.HealthStatusDegraded,
			Details: fmt.Sprintf("Auth service returned status %d", resp.StatusCode),
		}
	}

	return types.HealthComponent{
		Status: types.HealthStatusUp,
	}
}
