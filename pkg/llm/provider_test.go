package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider implements Provider for registry tests.
type mockProvider struct {
	name string
}

func (m *mockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (m *mockProvider) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (m *mockProvider) Chat(_ context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return "reply to " + messages[len(messages)-1].Content, nil
}

func (m *mockProvider) Generate(_ context.Context, prompt string, _ string) (string, error) {
	return "reply to " + prompt, nil
}

func (m *mockProvider) Name() string { return m.name }

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("mock-full", func(_ map[string]any) (Provider, error) {
		return &mockProvider{name: "mock-full"}, nil
	})

	p, err := NewProvider("mock-full", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock-full", p.Name())
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("no-such-provider", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewEmbeddingProvider(t *testing.T) {
	RegisterEmbeddingProvider("mock-embed", func(_ map[string]any) (EmbeddingProvider, error) {
		return &mockProvider{name: "mock-embed"}, nil
	})

	p, err := NewEmbeddingProvider("mock-embed", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock-embed", p.Name())

	// A full provider also satisfies lookups by kind.
	RegisterProvider("mock-both", func(_ map[string]any) (Provider, error) {
		return &mockProvider{name: "mock-both"}, nil
	})
	p, err = NewEmbeddingProvider("mock-both", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock-both", p.Name())

	_, err = NewEmbeddingProvider("no-such-provider", nil)
	assert.Error(t, err)
}

func TestNewChatProvider(t *testing.T) {
	RegisterChatProvider("mock-chat", func(_ map[string]any) (ChatProvider, error) {
		return &mockProvider{name: "mock-chat"}, nil
	})

	p, err := NewChatProvider("mock-chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock-chat", p.Name())

	_, err = NewChatProvider("no-such-provider", nil)
	assert.Error(t, err)
}

func TestListProviders(t *testing.T) {
	RegisterProvider("mock-list", func(_ map[string]any) (Provider, error) {
		return &mockProvider{name: "mock-list"}, nil
	})

	names := ListProviders()
	assert.Contains(t, names, "mock-list")

	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}
	for n, c := range counts {
		assert.Equal(t, 1, c, "provider %s listed more than once", n)
	}
}

func TestMessageRoles(t *testing.T) {
	assert.Equal(t, Role("system"), RoleSystem)
	assert.Equal(t, Role("user"), RoleUser)
	assert.Equal(t, Role("assistant"), RoleAssistant)
}

func TestMockProviderRoundTrip(t *testing.T) {
	p := &mockProvider{name: "mock"}
	ctx := context.Background()

	vectors, err := p.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	single, err := p.EmbedSingle(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, single, 3)

	out, err := p.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "reply to hi", out)

	out, err = p.Generate(ctx, "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "reply to hi", out)
}
