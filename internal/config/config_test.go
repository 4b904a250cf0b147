package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsToAnthropicWithBuiltinModel(t *testing.T) {
	c := Config{}
	c.LLM.AnthropicAPIKey = "sk-test"

	resolved, err := Resolve(c)
	require.NoError(t, err)
	require.Equal(t, "anthropic", resolved.LLMProvider)
	require.Equal(t, "claude-sonnet-4-5", resolved.LLMModel)
	require.Equal(t, defaultMaxIterations, resolved.MaxIterations)
	require.Equal(t, defaultMaxSchemaRepairAttempts, resolved.MaxSchemaRepairAttempts)
	require.Equal(t, defaultMaxTaskValidationAttempts, resolved.MaxTaskValidationAttempts)
}

func TestResolveRejectsAnthropicWithoutAPIKey(t *testing.T) {
	_, err := Resolve(Config{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "anthropicApiKey is required")
}

func TestResolveOpenAIProviderUsesOwnFields(t *testing.T) {
	c := Config{}
	c.LLM.Provider = "openai"
	c.LLM.OpenAIAPIKey = "sk-oai"

	resolved, err := Resolve(c)
	require.NoError(t, err)
	require.Equal(t, "openai", resolved.LLMProvider)
	require.Equal(t, "gpt-4.1", resolved.LLMModel)
	require.Equal(t, "sk-oai", resolved.LLMAPIKey)
}

func TestResolveOpenAIRejectsWithoutAPIKey(t *testing.T) {
	c := Config{}
	c.LLM.Provider = "openai"
	_, err := Resolve(c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "openaiApiKey is required")
}

func TestResolveRejectsUnknownProvider(t *testing.T) {
	c := Config{}
	c.LLM.Provider = "ollama"
	_, err := Resolve(c)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown llm.provider "ollama"`)
}

func TestResolveHonorsExplicitRunOverrides(t *testing.T) {
	c := Config{}
	c.LLM.AnthropicAPIKey = "sk-test"
	c.Run.MaxIterations = 5
	c.Run.MaxSchemaRepairAttempts = 1
	c.Run.MaxTaskValidationAttempts = 1

	resolved, err := Resolve(c)
	require.NoError(t, err)
	require.Equal(t, 5, resolved.MaxIterations)
	require.Equal(t, 1, resolved.MaxSchemaRepairAttempts)
	require.Equal(t, 1, resolved.MaxTaskValidationAttempts)
}

func TestLoadFromBytesExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("WEBAGENT_TEST_KEY", "sk-from-env")

	c, err := LoadFromBytes([]byte("llm:\n  provider: anthropic\n  anthropicApiKey: ${WEBAGENT_TEST_KEY}\n"))
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", c.LLM.AnthropicAPIKey)
}

func TestLoadFromBytesRejectsMalformedYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("llm: [this is not a mapping"))
	require.Error(t, err)
}

func TestLoadMissingFileReturnsWrappedError(t *testing.T) {
	_, err := Load("/nonexistent/webagent.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")
}

func TestNewLLMCapabilityPicksProviderImplementation(t *testing.T) {
	anthropic := &ResolvedConfig{LLMProvider: "anthropic", LLMAPIKey: "k", LLMModel: "m"}
	require.NotNil(t, anthropic.NewLLMCapability())

	openai := &ResolvedConfig{LLMProvider: "openai", LLMAPIKey: "k", LLMModel: "m"}
	require.NotNil(t, openai.NewLLMCapability())
}
