package ai

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/ports"
)

const httpClientTimeout = 120 * time.Second

// Factory builds the provider selected by configuration. It holds a single
// HTTP client shared across providers. Vendor identity is decided here and
// nowhere else.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a provider factory with a configured HTTP client.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}
}

// ForConfig returns the provider named by cfg.AIProvider. A missing API key
// for the selected provider is a ConfigurationError at construction time.
func (f *Factory) ForConfig(cfg domain.Config) (ports.Provider, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case domain.ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, &domain.ConfigurationError{Reason: "OpenAI API key not configured"}
		}
		return newOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model, "", f.httpClient), nil
	case domain.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, &domain.ConfigurationError{Reason: "Anthropic API key not configured"}
		}
		return newAnthropicProvider(cfg.AnthropicAPIKey, cfg.Model, "", f.httpClient), nil
	default:
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("unsupported AI provider: %s", cfg.AIProvider)}
	}
}

func valueOrDefault(value string, def string) string {
	if value == "" {
		return def
	}
	return value
}

func valueOrDefaultInt(value int, def int) int {
	if value == 0 {
		return def
	}
	return value
}

var _ ports.ProviderFactory = (*Factory)(nil)
