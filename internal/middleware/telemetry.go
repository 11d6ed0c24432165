package middleware

import (
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware wraps otelgin and tags spans with the caller's tenant
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := c.GetString(util.RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if p := util.Principal(c); p != nil {
			span.SetAttributes(
				attribute.String("user.id", p.UserID),
				attribute.String("user.role", string(p.Role)),
			)
			if p.DonorID != "" {
				span.SetAttributes(attribute.String("donor.id", p.DonorID))
			}
		}
		for _, ginErr := range c.Errors {
			span.RecordError(ginErr.Err)
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}
