// Package router registers the document QA routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/handler"
	"github.com/kart-io/docqa/internal/docqa/middleware"
	"github.com/kart-io/docqa/pkg/ratelimit"
)

// Register wires all routes onto the engine. The health endpoint is
// open; everything under /hackrx requires the bearer token, and the
// run endpoint is additionally rate limited per client IP.
func Register(engine *gin.Engine, h *handler.QAHandler, limiter ratelimit.Limiter, token string) {
	engine.GET("/health", h.Health)

	auth := middleware.BearerAuth(token)

	hackrx := engine.Group("/hackrx")
	{
		hackrx.POST("/run", middleware.RateLimit(limiter), auth, h.Run)
		hackrx.GET("/stats", auth, h.Stats)
		hackrx.POST("/cache/clear", auth, h.ClearCache)
	}

	logger.Info("HTTP routes registered")
}
