package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/llm"
)

const testAPIKey = "test-key"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbedModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		config    map[string]any
		wantError bool
	}{
		{
			name:   "minimal config",
			config: map[string]any{"api_key": testAPIKey},
		},
		{
			name: "full config",
			config: map[string]any{
				"api_key":      testAPIKey,
				"base_url":     "https://openrouter.ai/api/v1",
				"embed_model":  "text-embedding-3-large",
				"chat_model":   "gpt-4o",
				"organization": "org-123",
				"timeout":      30 * time.Second,
				"max_retries":  1,
			},
		},
		{
			name:      "missing api_key",
			config:    map[string]any{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ProviderName, provider.Name())
		})
	}
}

func TestNewProviderStopSequences(t *testing.T) {
	// Config files decode string lists as []interface{}.
	provider, err := NewProvider(map[string]any{
		"api_key": testAPIKey,
		"stop":    []interface{}{"END", "STOP"},
	})
	require.NoError(t, err)

	p := provider.(*Provider)
	assert.Equal(t, []string{"END", "STOP"}, p.config.Stop)
}

func newTestProvider(baseURL string) *Provider {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.APIKey = testAPIKey
	cfg.MaxRetries = 0
	return NewProviderWithConfig(cfg)
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Len(t, req.Input, 2)

		// Responses may arrive out of order; the provider sorts by index.
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "embedding": [0.4, 0.5, 0.6], "index": 1},
				{"object": "embedding", "embedding": [0.1, 0.2, 0.3], "index": 0}
			],
			"model": "text-embedding-3-small"
		}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	embeddings, err := provider.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embeddings[0])
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, embeddings[1])
}

func TestEmbedEmptyInput(t *testing.T) {
	provider := newTestProvider("http://unused")
	embeddings, err := provider.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedSingle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "embedding": [0.1, 0.2], "index": 0}],
			"model": "text-embedding-3-small"
		}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	embedding, err := provider.EmbedSingle(context.Background(), "policy text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, embedding)
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_, _ = w.Write([]byte(`{
			"id": "test-id",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "thirty days"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	out, err := provider.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an insurance expert."},
		{Role: llm.RoleUser, Content: "What is the grace period?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "thirty days", out)
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	_, err := provider.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerateBuildsMessages(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	out, err := provider.Generate(context.Background(), "the prompt", "the system prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "the system prompt", got.Messages[0].Content)
	assert.Equal(t, "the prompt", got.Messages[1].Content)

	// Without a system prompt only the user message goes out.
	_, err = provider.Generate(context.Background(), "solo prompt", "")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "solo prompt", got.Messages[0].Content)
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	_, err := provider.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}, {"id": "text-embedding-3-small"}]}`))
	}))
	defer srv.Close()

	provider := newTestProvider(srv.URL)
	models, err := provider.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o-mini", "text-embedding-3-small"}, models)
}
