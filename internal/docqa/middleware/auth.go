// Package middleware provides gin middleware for the document QA API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/metrics"
)

// BearerAuth rejects requests whose Authorization header does not
// carry the configured bearer token. The comparison is constant time.
// An empty configured token rejects everything, since an unconfigured
// service must not serve authenticated endpoints.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			abortUnauthorized(c, "Bearer token is not configured.")
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header.")
			return
		}

		got := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abortUnauthorized(c, "Invalid Bearer token.")
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	logger.Warnw("bearer token verification failed", "reason", msg, "client_ip", c.ClientIP())
	metrics.Get().RecordAuthFailure()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
	})
}
