package router

import (
	"net/http"
	"time"

	"github.com/fittrack/fittrack/config"
	apperrors "github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/handlers"
	"github.com/fittrack/fittrack/internal/metrics"
	"github.com/fittrack/fittrack/internal/websocket"
	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config        *config.Config
	AuthHandler   *handlers.AuthHandler
	LookupHandler *handlers.LookupHandler
	HealthHandler *handlers.HealthHandler
	StateStream   *websocket.Handler
	// HTTPRecorder is optional; nil disables request metrics.
	HTTPRecorder middleware.HTTPRecorder
	// Gatherer backs /metrics; nil falls back to the default registry.
	Gatherer prometheus.Gatherer
	// RateLimiter throttles sign-in requests; nil disables throttling.
	RateLimiter middleware.RateLimiter
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		logger.GetLogger().Warnw("Invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Global Middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger(deps.HTTPRecorder))
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Health and Metrics Routes
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	v1 := r.Group("/v1")
	{
		authRoutes := v1.Group("/auth")
		authRoutes.GET("/state", deps.AuthHandler.GetStateHandler)

		signIn := authRoutes.Group("")
		if deps.RateLimiter != nil && deps.Config.Server.AuthRateLimit > 0 {
			signIn.Use(middleware.AuthRateLimiter(deps.RateLimiter, deps.Config.Server.AuthRateLimit, time.Minute))
		}
		signIn.POST("/otp", deps.AuthHandler.SignInWithOtpHandler)
		signIn.POST("/password", deps.AuthHandler.SignInWithPasswordHandler)

		authRoutes.POST("/signout", deps.AuthHandler.SignOutHandler)
		authRoutes.GET("/ws", deps.StateStream.HandleWebSocket)

		v1.GET("/lookups/:table", deps.LookupHandler.GetLookupHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{
			Type:    string(apperrors.NotFoundError),
			Message: "Route not found",
			Code:    "404",
		})
	})

	return r
}
