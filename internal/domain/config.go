// Package domain defines core business entities and value objects for the
// planning backend. The domain layer is independent of infrastructure
// concerns and represents pure data structures and business rules.
package domain

// Provider identifiers accepted by the gateway factory.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds env-sourced application settings. Loaded once at startup by
// the config loader; engines receive it through the composition root.
type Config struct {
	// Provider selection and credentials.
	AIProvider      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Generation defaults.
	Model       string
	Temperature float64
	MaxTokens   int

	// ContextWindow is the token capacity assumed for the selected backend.
	ContextWindow int

	// Prompt template storage.
	PromptsDir    string
	PromptVersion string

	// Persistence and HTTP surface.
	DBPath string
	Addr   string

	Debug bool
}

// APIKey returns the credential for the selected provider.
func (c Config) APIKey() string {
	switch c.AIProvider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}
