// Package util holds gin response and request helpers shared by handlers.
package util

import (
	"net/http"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithError maps any error onto an APIError response. Errors that
// are not APIErrors become INTERNAL_ERROR and their text is only logged.
func RespondWithError(c *gin.Context, err error) {
	apiErr, ok := apierrors.As(err)
	if !ok {
		logger.L().Error("Unhandled error",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err))
		apiErr = apierrors.InternalError("an unexpected error occurred")
	}
	RespondWithAPIError(c, apiErr)
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *apierrors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.String("field", apiErr.Field),
		zap.String("path", c.FullPath()),
	}
	if apiErr.Status >= http.StatusInternalServerError {
		logger.L().Error("API error", append(fields, zap.String("details", apiErr.Details))...)
		metrics.Get().ErrorsTotal.WithLabelValues("http", string(apiErr.Code)).Inc()
	} else {
		logger.L().Debug("API error", fields...)
	}

	response := ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
	}
	// dependency details can carry driver text; keep them server-side
	if apiErr.Status < http.StatusInternalServerError {
		response.Details = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, response)
}

// RespondBadRequest sends a 400 for malformed bodies and parameters
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, apierrors.BadRequest(message))
}

// RespondUnauthorized sends a 401
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "authentication required"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, apierrors.Unauthorized(msg))
}

// RespondForbidden sends a 403
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, apierrors.Forbidden(msg))
}
