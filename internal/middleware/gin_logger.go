package middleware

import (
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinLoggerMiddleware replaces gin.Logger with structured request logs
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			logger.WithIP(c.ClientIP()),
			logger.WithStatus(status),
			zap.Int("response_size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if id := c.GetString(util.RequestIDKey); id != "" {
			fields = append(fields, logger.WithRequestID(id))
		}
		if p := util.Principal(c); p != nil {
			fields = append(fields, logger.WithUserID(p.UserID))
		}

		switch {
		case status >= 500:
			logger.L().Error("HTTP request", fields...)
		case status >= 400:
			logger.L().Warn("HTTP request", fields...)
		default:
			logger.L().Info("HTTP request", fields...)
		}
	}
}
