package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/ports"
)

func TestOpenAIProviderNormalizesUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "{\"is_valid\": true}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
		}`))
	}))
	defer server.Close()

	provider := newOpenAIProvider("test-key", "gpt-4", server.URL, server.Client())
	completion, err := provider.GenerateCompletion(context.Background(), ports.CompletionRequest{
		Prompt:       "validate this",
		SystemPrompt: "you are a validator",
		Temperature:  0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"is_valid": true}`, completion.Content)
	assert.Equal(t, domain.TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}, completion.Usage)
	assert.Equal(t, domain.ProviderOpenAI, completion.Provider)
	assert.NotEmpty(t, completion.ID)
}

func TestAnthropicProviderNormalizesUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "{\"a\":1}"}],
			"usage": {"input_tokens": 200, "output_tokens": 50}
		}`))
	}))
	defer server.Close()

	provider := newAnthropicProvider("test-key", "claude-3-sonnet-20240229", server.URL, server.Client())
	completion, err := provider.GenerateCompletion(context.Background(), ports.CompletionRequest{Prompt: "extract"})
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, completion.Content)
	assert.Equal(t, 250, completion.Usage.TotalTokens)
	assert.Equal(t, domain.ProviderAnthropic, completion.Provider)
}

func TestOpenAIProviderSurfacesVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer server.Close()

	provider := newOpenAIProvider("test-key", "", server.URL, server.Client())
	_, err := provider.GenerateCompletion(context.Background(), ports.CompletionRequest{Prompt: "x"})
	require.Error(t, err)

	var provErr *domain.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Contains(t, provErr.Error(), "rate limit exceeded")
}

func TestAnthropicProviderSurfacesNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force a connection failure

	provider := newAnthropicProvider("test-key", "", server.URL, http.DefaultClient)
	_, err := provider.GenerateCompletion(context.Background(), ports.CompletionRequest{Prompt: "x"})

	var provErr *domain.ProviderError
	require.True(t, errors.As(err, &provErr))
}

func TestFactorySelectsProvider(t *testing.T) {
	factory := NewFactory()

	openai, err := factory.ForConfig(domain.Config{AIProvider: "openai", OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOpenAI, openai.Name())

	anthropic, err := factory.ForConfig(domain.Config{AIProvider: "anthropic", AnthropicAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderAnthropic, anthropic.Name())
}

func TestFactoryMissingKey(t *testing.T) {
	factory := NewFactory()
	_, err := factory.ForConfig(domain.Config{AIProvider: "anthropic"})
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestFactoryUnsupportedProvider(t *testing.T) {
	factory := NewFactory()
	_, err := factory.ForConfig(domain.Config{AIProvider: "cohere", OpenAIAPIKey: "k"})

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "cohere")
}
