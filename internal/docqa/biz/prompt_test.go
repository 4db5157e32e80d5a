package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))

	// 37 chars, 7 words: 37/3.8 + 7*0.1 = 10.4 -> 10.
	assert.Equal(t, 10, EstimateTokens("the grace period is thirty days total"))
}

func TestEstimateTokens_GrowsWithLength(t *testing.T) {
	short := EstimateTokens("short text")
	long := EstimateTokens(strings.Repeat("short text ", 100))
	assert.Greater(t, long, short)
}

func TestPromptBuilder_FullPrompt(t *testing.T) {
	b := NewPromptBuilder(0)

	chunks := []string{"Grace period is 30 days.", "Waiting period is 36 months."}
	prompt := b.Build("What is the grace period?", chunks)

	assert.Contains(t, prompt, "1. Grace period is 30 days.")
	assert.Contains(t, prompt, "2. Waiting period is 36 months.")
	assert.Contains(t, prompt, "Question: What is the grace period?")
	assert.Contains(t, prompt, "insurance policy analyst")
}

func TestPromptBuilder_FallbackWhenOverBudget(t *testing.T) {
	// A tiny budget forces the fallback for any realistic prompt.
	b := NewPromptBuilder(50)

	chunks := []string{
		strings.Repeat("first chunk text ", 30),
		strings.Repeat("second chunk text ", 30),
	}
	prompt := b.Build("What is covered?", chunks)

	assert.Contains(t, prompt, "Question: What is covered?")
	assert.NotContains(t, prompt, "second chunk text", "fallback must use only the first chunk")
	assert.Contains(t, prompt, "justification")
}

func TestPromptBuilder_FallbackIsShorter(t *testing.T) {
	b := NewPromptBuilder(50)

	chunks := []string{
		strings.Repeat("alpha beta gamma ", 40),
		strings.Repeat("delta epsilon zeta ", 40),
	}
	question := "What are the plan limits?"

	full := NewPromptBuilder(0).Build(question, chunks)
	fallback := b.Build(question, chunks)

	require.Less(t, len(fallback), len(full))
}

func TestPromptBuilder_FallbackTruncatesFirstChunk(t *testing.T) {
	b := NewPromptBuilder(50)

	long := strings.Repeat("x", 1000)
	prompt := b.Build("q?", []string{long, "other"})

	assert.Contains(t, prompt, strings.Repeat("x", 300)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 301))
}

func TestPromptBuilder_NoChunks(t *testing.T) {
	b := NewPromptBuilder(50)

	// Without chunks there is nothing to fall back to.
	prompt := b.Build("What is covered?", nil)
	assert.Contains(t, prompt, "insurance policy analyst")
}
