package middleware

import (
	"time"

	"github.com/fittrack/fittrack/logger"
	"github.com/gin-gonic/gin"
)

// HTTPRecorder receives one observation per finished request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// RequestLogger logs every finished request and, when rec is non-nil,
// records it. Routes are labelled by their pattern so path parameters do
// not explode metric cardinality.
func RequestLogger(rec HTTPRecorder) gin.HandlerFunc {
	log := logger.GetLogger().Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if rec != nil {
			rec.RecordHTTPRequest(c.Request.Method, route, status, duration)
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", duration,
			"request_id", c.GetString(RequestIDKey),
		}
		switch {
		case status >= 500:
			log.Errorw("Request failed", fields...)
		case status >= 400:
			log.Warnw("Request rejected", fields...)
		default:
			log.Debugw("Request completed", fields...)
		}
	}
}
