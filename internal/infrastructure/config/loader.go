// Package config loads application settings from the environment. A .env
// file in the working directory is folded in first so local development does
// not need exported variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/planflow/planflow/internal/domain"
)

// Environment variable names.
const (
	EnvProvider      = "PLANFLOW_AI_PROVIDER"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvModel         = "PLANFLOW_MODEL"
	EnvTemperature   = "PLANFLOW_TEMPERATURE"
	EnvMaxTokens     = "PLANFLOW_MAX_TOKENS"
	EnvContextWindow = "PLANFLOW_CONTEXT_WINDOW"
	EnvPromptsDir    = "PLANFLOW_PROMPTS_DIR"
	EnvPromptVersion = "PLANFLOW_PROMPT_VERSION"
	EnvDBPath        = "PLANFLOW_DB_PATH"
	EnvAddr          = "PLANFLOW_ADDR"
	EnvDebug         = "PLANFLOW_DEBUG"
)

// Defaults applied when a variable is unset.
const (
	defaultProvider      = domain.ProviderOpenAI
	defaultTemperature   = 0.1
	defaultMaxTokens     = 4000
	defaultPromptsDir    = "prompts"
	defaultPromptVersion = "v1.0"
	defaultDBPath        = "planflow.db"
	defaultAddr          = ":8000"

	openAIContextWindow    = 128000
	anthropicContextWindow = 200000
)

// Loader reads Config from process environment variables.
type Loader struct {
	// DotenvPath points at an optional .env file; empty means "./.env".
	DotenvPath string
}

// Load assembles the configuration. A missing .env file is not an error.
func (l *Loader) Load() (domain.Config, error) {
	path := l.DotenvPath
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return domain.Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg := domain.Config{
		AIProvider:      envOr(EnvProvider, defaultProvider),
		OpenAIAPIKey:    os.Getenv(EnvOpenAIKey),
		AnthropicAPIKey: os.Getenv(EnvAnthropicKey),
		Model:           os.Getenv(EnvModel),
		PromptsDir:      envOr(EnvPromptsDir, defaultPromptsDir),
		PromptVersion:   envOr(EnvPromptVersion, defaultPromptVersion),
		DBPath:          envOr(EnvDBPath, defaultDBPath),
		Addr:            envOr(EnvAddr, defaultAddr),
	}

	var err error
	if cfg.Temperature, err = envFloat(EnvTemperature, defaultTemperature); err != nil {
		return domain.Config{}, err
	}
	if cfg.MaxTokens, err = envInt(EnvMaxTokens, defaultMaxTokens); err != nil {
		return domain.Config{}, err
	}
	if cfg.ContextWindow, err = envInt(EnvContextWindow, contextWindowFor(cfg.AIProvider)); err != nil {
		return domain.Config{}, err
	}
	cfg.Debug = envBool(EnvDebug)

	return cfg, nil
}

func contextWindowFor(provider string) int {
	if provider == domain.ProviderAnthropic {
		return anthropicContextWindow
	}
	return openAIContextWindow
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ConfigurationError{Reason: fmt.Sprintf("%s must be an integer, got %q", key, raw)}
	}
	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.ConfigurationError{Reason: fmt.Sprintf("%s must be a number, got %q", key, raw)}
	}
	return v, nil
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
