package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/pkg/ratelimit"
)

// RateLimit enforces a per-client request limit keyed by client IP.
// Limiter errors fail open: a broken Redis must not take the API down.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			logger.Warnw("rate limiter error, allowing request", "error", err.Error(), "client_ip", clientIP)
			c.Next()
			return
		}
		if !allowed {
			logger.Warnw("rate limit exceeded", "client_ip", clientIP)
			metrics.Get().RecordRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
