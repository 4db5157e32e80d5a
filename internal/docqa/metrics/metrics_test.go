package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDocumentBuildAccumulatesDuration(t *testing.T) {
	m := &ServiceMetrics{startTime: time.Now()}

	m.RecordDocumentBuild(12, 150*time.Millisecond, nil)
	m.RecordDocumentBuild(0, 50*time.Millisecond, errors.New("download failed"))

	stats := m.Stats()
	docs, ok := stats["documents"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, uint64(1), docs["built"])
	assert.Equal(t, uint64(1), docs["build_errors"])
	assert.Equal(t, uint64(12), docs["chunks_indexed"])
	assert.Equal(t, uint64(200), docs["build_millis"])
}

func TestRecordAnswerCacheHit(t *testing.T) {
	m := &ServiceMetrics{startTime: time.Now()}

	m.RecordAnswerCacheHit()
	m.RecordAnswerCacheHit()
	m.RecordQuestion(true)

	stats := m.Stats()
	questions, ok := stats["questions"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, uint64(2), questions["cache_hits"])
	assert.Equal(t, uint64(1), questions["total"])
	assert.Equal(t, uint64(0), questions["failed"])
}
