// Package metrics collects business counters for the document QA service.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ServiceMetrics tracks request and pipeline counters.
type ServiceMetrics struct {
	requestsTotal  uint64
	requestsFailed uint64
	rateLimited    uint64
	authFailures   uint64

	questionsTotal  uint64
	questionsFailed uint64
	answerCacheHits uint64

	documentsBuilt    uint64
	documentBuildErrs uint64
	chunksIndexed     uint64
	buildNanos        uint64

	llmCallsTotal  uint64
	llmCallsErrors uint64

	startTime time.Time
}

var (
	global *ServiceMetrics
	once   sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *ServiceMetrics {
	once.Do(func() {
		global = &ServiceMetrics{startTime: time.Now()}
	})
	return global
}

// RecordRequest counts one API request.
func (m *ServiceMetrics) RecordRequest(ok bool) {
	atomic.AddUint64(&m.requestsTotal, 1)
	if !ok {
		atomic.AddUint64(&m.requestsFailed, 1)
	}
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *ServiceMetrics) RecordRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// RecordAuthFailure counts a rejected bearer token.
func (m *ServiceMetrics) RecordAuthFailure() {
	atomic.AddUint64(&m.authFailures, 1)
}

// RecordQuestion counts one processed question.
func (m *ServiceMetrics) RecordQuestion(ok bool) {
	atomic.AddUint64(&m.questionsTotal, 1)
	if !ok {
		atomic.AddUint64(&m.questionsFailed, 1)
	}
}

// RecordAnswerCacheHit counts a question served from the answer cache.
func (m *ServiceMetrics) RecordAnswerCacheHit() {
	atomic.AddUint64(&m.answerCacheHits, 1)
}

// RecordDocumentBuild counts one document pipeline run and accumulates
// the time it took, successful or not.
func (m *ServiceMetrics) RecordDocumentBuild(chunks int, elapsed time.Duration, err error) {
	atomic.AddUint64(&m.buildNanos, uint64(elapsed.Nanoseconds()))
	if err != nil {
		atomic.AddUint64(&m.documentBuildErrs, 1)
		return
	}
	atomic.AddUint64(&m.documentsBuilt, 1)
	atomic.AddUint64(&m.chunksIndexed, uint64(chunks))
}

// RecordLLMCall counts one chat completion call.
func (m *ServiceMetrics) RecordLLMCall(err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
	}
}

// Stats returns a snapshot of all counters.
func (m *ServiceMetrics) Stats() map[string]any {
	return map[string]any{
		"requests": map[string]any{
			"total":        atomic.LoadUint64(&m.requestsTotal),
			"failed":       atomic.LoadUint64(&m.requestsFailed),
			"rate_limited": atomic.LoadUint64(&m.rateLimited),
			"auth_failed":  atomic.LoadUint64(&m.authFailures),
		},
		"questions": map[string]any{
			"total":      atomic.LoadUint64(&m.questionsTotal),
			"failed":     atomic.LoadUint64(&m.questionsFailed),
			"cache_hits": atomic.LoadUint64(&m.answerCacheHits),
		},
		"documents": map[string]any{
			"built":          atomic.LoadUint64(&m.documentsBuilt),
			"build_errors":   atomic.LoadUint64(&m.documentBuildErrs),
			"chunks_indexed": atomic.LoadUint64(&m.chunksIndexed),
			"build_millis":   atomic.LoadUint64(&m.buildNanos) / uint64(time.Millisecond),
		},
		"llm": map[string]any{
			"calls":  atomic.LoadUint64(&m.llmCallsTotal),
			"errors": atomic.LoadUint64(&m.llmCallsErrors),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}
