package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/pkg/textutil"
)

const (
	// DefaultTokenBudget is the estimated-token ceiling for a prompt.
	DefaultTokenBudget = 8000
	// fallbackChunkLimit caps the single chunk kept when a prompt
	// exceeds the token budget.
	fallbackChunkLimit = 300
)

const analystPrompt = `You are an expert insurance policy analyst. Provide concise yet comprehensive answers with maximum numerical precision.

CRITICAL REQUIREMENTS:
- For yes/no questions: Start with 'Yes,' or 'No,' then provide essential explanation
- Include ALL key numbers: exact days, months, years, percentages, amounts
- State important plan variations (Plan A vs Plan B vs Plan C) with key differences only
- Include essential age limits, waiting periods, and main coverage conditions
- Quote main benefit amounts, caps, and limits with numbers
- Mention only critical exceptions and key conditions
- Keep responses concise-medium length (50 words max) but include all essential details

ANSWER FORMAT:
- Yes/No questions: 'Yes, [key explanation with specifics]' or 'No, [key explanation with specifics]'
- Other questions: Direct answer with essential numerical details
- Focus on: main timeframes, key percentages, important plan differences, primary limits
- Include only the most relevant conditions and exceptions
- Avoid excessive bullet points and sub-details

IMPORTANT:
- Do NOT include phrases like 'according to the document', 'as per the policy', or any reference to the source. Only give the direct answer.

Document Context:
%s

Question: %s

Concise answer with essential details and maximum numerical accuracy:`

const fallbackPrompt = `Answer this insurance policy question directly and naturally.

Question: %s

Policy information: %s

Provide a direct, factual answer. Include specific details when mentioned.

Format: {"justification": "Your direct answer presenting the policy information as facts"}`

// PromptBuilder assembles LLM prompts from retrieved chunks, keeping
// them under an estimated token budget.
type PromptBuilder struct {
	tokenBudget int
}

// NewPromptBuilder creates a PromptBuilder. A non-positive budget
// falls back to the default.
func NewPromptBuilder(tokenBudget int) *PromptBuilder {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &PromptBuilder{tokenBudget: tokenBudget}
}

// EstimateTokens approximates the token count of text. Characters
// dominate the estimate; a small per-word adjustment accounts for
// boundary tokens.
func EstimateTokens(text string) int {
	chars := len(text)
	words := len(strings.Fields(text))
	return int(float64(chars)/3.8 + float64(words)*0.1)
}

// Build returns the prompt for a question over the retrieved chunks.
// If the full prompt exceeds the token budget, it falls back once to a
// minimal prompt over the first chunk only; the fallback is always
// shorter than the full prompt it replaces.
func (b *PromptBuilder) Build(question string, chunks []string) string {
	var ctxBuilder strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&ctxBuilder, "%d. %s\n", i+1, chunk)
	}

	prompt := fmt.Sprintf(analystPrompt, strings.TrimRight(ctxBuilder.String(), "\n"), question)

	estimated := EstimateTokens(prompt)
	logger.Infow("built prompt", "estimated_tokens", estimated, "chunks", len(chunks))
	if estimated <= b.tokenBudget || len(chunks) == 0 {
		return prompt
	}

	logger.Warnw("prompt over token budget, falling back to first chunk", "estimated_tokens", estimated, "budget", b.tokenBudget)
	first := textutil.TruncateRunes(chunks[0], fallbackChunkLimit, "...")
	return fmt.Sprintf(fallbackPrompt, question, first)
}
