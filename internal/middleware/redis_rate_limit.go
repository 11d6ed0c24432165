package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WindowCounter counts hits per fixed window. cache.RedisClient implements
// it across instances and cache.MemoryStore for a single node.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitConfig configures RateLimitMiddleware
type RateLimitConfig struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// RateLimitMiddleware allows MaxRequests per Window per client IP for the
// routes it is attached to. A counter failure lets the request through:
// the public engagement endpoints must stay available when redis is not.
func RateLimitMiddleware(counter WindowCounter, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Window < time.Second {
		cfg.Window = time.Minute
	}
	return func(c *gin.Context) {
		if counter == nil || cfg.MaxRequests <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		bucket := time.Now().Unix() / int64(cfg.Window.Seconds())
		key := fmt.Sprintf("rate_limit:%s:%s:%d", cfg.Name, ip, bucket)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		n, err := counter.IncrWindow(ctx, key, cfg.Window)
		cancel()
		if err != nil {
			logger.L().Warn("Rate limit counter unavailable, allowing request", logger.WithIP(ip), zap.Error(err))
			c.Next()
			return
		}

		remaining := cfg.MaxRequests - int(n)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if n > int64(cfg.MaxRequests) {
			metrics.Get().RateLimitExceededTotal.WithLabelValues(c.FullPath()).Inc()
			logger.L().Warn("Rate limit exceeded", logger.WithIP(ip), zap.String("limiter", cfg.Name), zap.Int64("count", n))
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			util.RespondWithAPIError(c, apierrors.RateLimited(""))
			return
		}
		c.Next()
	}
}
