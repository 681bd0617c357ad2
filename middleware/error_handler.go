package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fittrack/fittrack/errors"
	"github.com/fittrack/fittrack/logger"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Code      string `json:"code,omitempty"`       // HTTP status code as string
	ErrorCode string `json:"error_code,omitempty"` // provider error code, e.g. over_email_send_rate_limit
}

// ErrorHandler renders the last error attached to the context as an
// ErrorResponse.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		last := c.Errors.Last()
		err := last.Err

		if appError, ok := errors.As(err); ok {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, fmt.Sprintf("%s error", appError.Type))

			response := ErrorResponse{
				Type:      string(appError.Type),
				Message:   appError.Message,
				Code:      strconv.Itoa(statusCode),
				ErrorCode: appError.Code,
			}
			// Only include details for validation and not-found errors or in debug mode
			if appError.Detail != "" && (gin.IsDebugging() ||
				appError.Type == errors.ValidationError ||
				appError.Type == errors.NotFoundError) {
				response.Details = appError.Detail
			}

			c.JSON(statusCode, response)
			return
		}

		if last.Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Request binding error")

			response := ErrorResponse{
				Type:    string(errors.ValidationError),
				Message: "Failed to bind request",
				Code:    "400",
			}
			if gin.IsDebugging() {
				response.Details = err.Error()
			}
			c.JSON(http.StatusBadRequest, response)
			return
		}

		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unexpected server error")

		response := ErrorResponse{
			Type:    string(errors.ServerError),
			Message: "Internal Server Error",
			Code:    "500",
		}
		if gin.IsDebugging() {
			response.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, response)
	}
}
