package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fittrack/fittrack/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHealthHandler_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name         string
		state        types.AuthState
		health       *types.HealthCheck
		expectedCode int
	}{
		{
			name:         "still loading",
			state:        types.LoadingState(),
			expectedCode: http.StatusServiceUnavailable,
		},
		{
			name:         "resolved and healthy",
			state:        types.SignedOutState(),
			health:       &types.HealthCheck{Status: types.HealthStatusUp},
			expectedCode: http.StatusOK,
		},
		{
			name:         "resolved but degraded",
			state:        types.SignedOutState(),
			health:       &types.HealthCheck{Status: types.HealthStatusDegraded},
			expectedCode: http.StatusOK,
		},
		{
			name:         "component down",
			state:        types.SignedOutState(),
			health:       &types.HealthCheck{Status: types.HealthStatusDown},
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			auth := &MockAuthService{}
			auth.On("State").Return(tt.state)
			checker := &MockHealthChecker{}
			if tt.health != nil {
				checker.On("CheckHealth", mock.Anything).Return(*tt.health).Once()
			}

			r := gin.New()
			h := NewHealthHandler(checker, auth)
			r.GET("/health/readiness", h.ReadinessCheck)
			r.GET("/health/liveness", h.LivenessCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
			assert.Equal(t, tt.expectedCode, w.Code)

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))
			assert.Equal(t, http.StatusOK, w.Code)

			checker.AssertExpectations(t)
		})
	}
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := &MockHealthChecker{}
	checker.On("CheckHealth", mock.Anything).Return(types.HealthCheck{
		Status: types.HealthStatusDown,
		Components: map[string]types.HealthComponent{
			"redis": {Status: types.HealthStatusDown, Details: "Redis connection failed"},
		},
	})

	r := gin.New()
	r.GET("/health", NewHealthHandler(checker, &MockAuthService{}).DetailedHealth)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Redis connection failed")
}
