package biz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/pkg/llm"
	jsonutil "github.com/kart-io/docqa/pkg/utils/json"
)

// SystemPrompt steers the model toward terse JSON answers.
const SystemPrompt = "You are an insurance expert. Provide direct, factual answers. Return JSON format only."

// Answer is a parsed model response. Exactly one of Structured or Raw
// is meaningful: Structured holds a decoded JSON object, Raw holds the
// response text when it was not a JSON object.
type Answer struct {
	Structured map[string]interface{}
	Raw        string
}

// Text flattens an Answer into a plain answer string. Structured
// answers prefer the justification field, then answer; otherwise all
// string values are joined in key order.
func (a *Answer) Text() string {
	if a.Structured == nil {
		return a.Raw
	}
	if v, ok := a.Structured["justification"].(string); ok && v != "" {
		return v
	}
	if v, ok := a.Structured["answer"].(string); ok && v != "" {
		return v
	}
	keys := make([]string, 0, len(a.Structured))
	for k := range a.Structured {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		if v, ok := a.Structured[k].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return a.Raw
}

// Generator produces answers by sending prompts to a chat provider and
// parsing the response.
type Generator struct {
	chat llm.ChatProvider
}

// NewGenerator creates a Generator backed by the given chat provider.
func NewGenerator(chat llm.ChatProvider) *Generator {
	return &Generator{chat: chat}
}

// Generate sends the prompt and parses the response. A response that
// is not a JSON object after fence stripping is kept verbatim as a raw
// answer rather than treated as an error.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Answer, error) {
	text, err := g.chat.Generate(ctx, prompt, SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	cleaned := stripCodeFence(text)
	obj, err := jsonutil.UnmarshalObject([]byte(cleaned))
	if err != nil {
		logger.Infow("model response is not a JSON object, keeping raw text", "length", len(cleaned))
		return &Answer{Raw: strings.TrimSpace(cleaned)}, nil
	}
	return &Answer{Structured: obj, Raw: strings.TrimSpace(cleaned)}, nil
}

// stripCodeFence extracts the content of the first markdown code fence
// if one is present, preferring a ```json fence over a bare one.
func stripCodeFence(text string) string {
	if start := strings.Index(text, "```json"); start >= 0 {
		rest := text[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	} else if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return text
}
