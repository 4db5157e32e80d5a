// Package handler provides HTTP handlers for the document QA API.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/docqa/metrics"
)

// QAHandler handles document question answering requests.
type QAHandler struct {
	service       *biz.QAService
	serviceName   string
	version       string
	apiConfigured bool
	startTime     time.Time
}

// NewQAHandler creates a QAHandler. apiConfigured reports whether a
// chat provider API key is present, which health checks surface.
func NewQAHandler(service *biz.QAService, serviceName, version string, apiConfigured bool) *QAHandler {
	return &QAHandler{
		service:       service,
		serviceName:   serviceName,
		version:       version,
		apiConfigured: apiConfigured,
		startTime:     time.Now(),
	}
}

// RunRequest is the body of the main processing endpoint.
type RunRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

// Run answers all questions against the referenced document. Answers
// come back in question order; per-question failures are reported as
// answer strings, so only document-level failures produce a 500.
func (h *QAHandler) Run(c *gin.Context) {
	start := time.Now()

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if req.Documents == "" {
		h.badRequest(c, "Missing 'documents' parameter. Please provide a URL to the document.")
		return
	}
	if len(req.Questions) == 0 {
		h.badRequest(c, "Questions must be a non-empty list.")
		return
	}
	if !strings.HasPrefix(req.Documents, "http://") && !strings.HasPrefix(req.Documents, "https://") {
		h.badRequest(c, "Documents parameter must be a valid URL.")
		return
	}

	logger.Infow("processing request",
		"questions", len(req.Questions),
		"document", truncateURL(req.Documents),
	)

	answers, err := h.service.Answer(c.Request.Context(), req.Documents, req.Questions)
	if err != nil {
		logger.Errorw("request failed",
			"error", err.Error(),
			"duration", time.Since(start).String(),
		)
		metrics.Get().RecordRequest(false)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	metrics.Get().RecordRequest(true)
	logger.Infow("request completed",
		"questions", len(req.Questions),
		"duration", time.Since(start).String(),
	)
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

// Health reports service liveness. The service is degraded, not dead,
// without a chat API key, so that case still returns a body describing
// the problem with a 503.
func (h *QAHandler) Health(c *gin.Context) {
	if !h.apiConfigured {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "chat provider API key is not configured",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        h.serviceName,
		"version":        h.version,
		"api_configured": h.apiConfigured,
		"cache_size":     h.service.CacheStats()["size"],
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// Stats returns service counters and cache occupancy.
func (h *QAHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache":   h.service.CacheStats(),
		"metrics": metrics.Get().Stats(),
	})
}

// ClearCache drops the document and answer caches.
func (h *QAHandler) ClearCache(c *gin.Context) {
	stats := h.service.CacheStats()
	if err := h.service.ClearCaches(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "cache cleared",
		"cleared":    stats["size"],
		"cache_size": 0,
	})
}

func (h *QAHandler) badRequest(c *gin.Context, msg string) {
	metrics.Get().RecordRequest(false)
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

func truncateURL(u string) string {
	if len(u) > 60 {
		return u[:60] + "..."
	}
	return u
}
