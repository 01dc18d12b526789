// Package middleware provides the HTTP middleware chain.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus-assist-api/pkg/errors"
)

// RateLimitConfig holds the per-caller request budget.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
	KeyPrefix         string
}

// RateLimiter is the limiter dependency, satisfied by the Redis
// sliding-window implementation.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit limits requests per caller. Callers are keyed by session id
// when the client sends one, otherwise by client IP. A failing limiter
// lets requests through.
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 20
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}

	return func(c *gin.Context) {
		identity := c.GetHeader("X-Session-ID")
		if identity == "" {
			identity = c.ClientIP()
		}
		if identity == "" {
			identity = "anonymous"
		}

		key := cfg.KeyPrefix + ":" + identity + ":" + c.Request.URL.Path

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":     errors.CodeTooManyRequests,
				"message":  "rate limit exceeded",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}
