package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider("")
	assert.Error(t, err)

	p, err := NewAnthropicProvider("sk-test")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "")
	assert.Error(t, err)

	p, err := NewOpenAIProvider("sk-test", "https://gateway.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestResponse_TokensUsed(t *testing.T) {
	r := Response{PromptTokens: 120, CompletionTokens: 80}
	assert.Equal(t, 200, r.TokensUsed())
}
