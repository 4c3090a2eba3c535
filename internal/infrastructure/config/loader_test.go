package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planflow/planflow/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvProvider, EnvOpenAIKey, EnvAnthropicKey, EnvModel, EnvTemperature,
		EnvMaxTokens, EnvContextWindow, EnvPromptsDir, EnvPromptVersion,
		EnvDBPath, EnvAddr, EnvDebug,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	loader := &Loader{DotenvPath: filepath.Join(t.TempDir(), "absent.env")}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOpenAI, cfg.AIProvider)
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.Equal(t, 4000, cfg.MaxTokens)
	assert.Equal(t, 128000, cfg.ContextWindow)
	assert.Equal(t, "prompts", cfg.PromptsDir)
	assert.Equal(t, "v1.0", cfg.PromptVersion)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProvider, "anthropic")
	t.Setenv(EnvAnthropicKey, "sk-ant-test")
	t.Setenv(EnvModel, "claude-3-sonnet-20240229")
	t.Setenv(EnvTemperature, "0.3")
	t.Setenv(EnvMaxTokens, "1500")
	t.Setenv(EnvDebug, "true")
	loader := &Loader{DotenvPath: filepath.Join(t.TempDir(), "absent.env")}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.AIProvider)
	assert.Equal(t, "sk-ant-test", cfg.APIKey())
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 1500, cfg.MaxTokens)
	assert.Equal(t, 200000, cfg.ContextWindow)
	assert.True(t, cfg.Debug)
}

func TestLoadDotenvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-from-file\nPLANFLOW_ADDR=:9000\n"), 0o600))
	loader := &Loader{DotenvPath: path}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.OpenAIAPIKey)
	assert.Equal(t, ":9000", cfg.Addr)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxTokens, "lots")
	loader := &Loader{DotenvPath: filepath.Join(t.TempDir(), "absent.env")}

	_, err := loader.Load()
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
