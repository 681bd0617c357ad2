package handlers

import (
	"net/http"

	"github.com/fittrack/fittrack/types"
	"github.com/gin-gonic/gin"
)

// HealthHandler serves the probes. The instance is ready once the auth
// state has resolved and no component is down.
type HealthHandler struct {
	healthService HealthChecker
	auth          AuthService
}

func NewHealthHandler(healthService HealthChecker, auth AuthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		auth:          auth,
	}
}

// LivenessCheck answers as long as the process serves requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// ReadinessCheck fails while the initial auth state is loading or any
// component is down.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.auth.State().Loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  types.HealthStatusDown,
			"details": "Auth state not resolved",
		})
		return
	}

	health := h.healthService.CheckHealth(c.Request.Context())
	if health.Status == types.HealthStatusDown {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}

// DetailedHealth reports every component regardless of status.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthService.CheckHealth(c.Request.Context()))
}
