package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequiresKeyForHostedProviders(t *testing.T) {
	o := NewChatOptions()
	o.APIKey = ""

	errs := o.Validate()
	assert.NotEmpty(t, errs)

	o.APIKey = "sk-test"
	assert.Empty(t, o.Validate())
}

func TestOllamaNeedsNoAPIKey(t *testing.T) {
	o := NewChatOptions()
	o.Provider = "ollama"
	o.BaseURL = "http://localhost:11434"
	o.APIKey = ""

	assert.False(t, o.RequiresAPIKey())
	assert.Empty(t, o.Validate())
}
