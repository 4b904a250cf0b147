// Package config is the webagent configuration layer: YAML on disk plus
// environment-variable expansion, following the teacher's Config →
// ResolveConfig → ResolvedConfig split (internal/browser/config.go here,
// internal/config/config.go in the teacher) rather than a flat struct with
// defaults baked into zero values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nebolabs/webagent/internal/browser"
	"github.com/nebolabs/webagent/internal/httpapi"
	"github.com/nebolabs/webagent/internal/llm"
	"github.com/nebolabs/webagent/internal/runstore"
)

// Config is the raw, user-facing webagent configuration (YAML-decodable).
type Config struct {
	Browser browser.Config `yaml:"browser"`

	LLM struct {
		Provider        string `yaml:"provider"` // "anthropic" | "openai"
		AnthropicAPIKey string `yaml:"anthropicApiKey,omitempty"`
		AnthropicModel  string `yaml:"anthropicModel,omitempty"`
		OpenAIAPIKey    string `yaml:"openaiApiKey,omitempty"`
		OpenAIModel     string `yaml:"openaiModel,omitempty"`
	} `yaml:"llm"`

	Run struct {
		MaxIterations             int `yaml:"maxIterations,omitempty"`
		MaxSchemaRepairAttempts   int `yaml:"maxSchemaRepairAttempts,omitempty"`
		MaxTaskValidationAttempts int `yaml:"maxTaskValidationAttempts,omitempty"`
	} `yaml:"run"`

	Store runstore.Config `yaml:"store"`
	HTTP  httpapi.Config  `yaml:"http"`
}

// ResolvedConfig is Config with defaults applied and provider selection
// resolved into concrete capability constructors' inputs.
type ResolvedConfig struct {
	Browser *browser.ResolvedConfig

	LLMProvider string
	LLMAPIKey   string
	LLMModel    string

	MaxIterations             int
	MaxSchemaRepairAttempts   int
	MaxTaskValidationAttempts int

	Store runstore.Config
	HTTP  httpapi.Config
}

const (
	defaultMaxIterations             = 50
	defaultMaxSchemaRepairAttempts   = 2
	defaultMaxTaskValidationAttempts = 3
)

// Load reads and parses the YAML file at path, expanding ${VAR} references
// against the process environment first, mirroring the teacher's
// LoadFromBytes(os.ExpandEnv(...)) pattern.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses raw YAML bytes into a Config after environment
// expansion.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Resolve applies defaults and picks the configured LLM provider's
// API key/model pair, returning an error if the selected provider is
// missing required fields.
func Resolve(c Config) (*ResolvedConfig, error) {
	r := &ResolvedConfig{
		Browser:                   browser.ResolveConfig(c.Browser),
		LLMProvider:               c.LLM.Provider,
		MaxIterations:             c.Run.MaxIterations,
		MaxSchemaRepairAttempts:   c.Run.MaxSchemaRepairAttempts,
		MaxTaskValidationAttempts: c.Run.MaxTaskValidationAttempts,
		Store:                     c.Store,
		HTTP:                      c.HTTP,
	}

	if r.MaxIterations == 0 {
		r.MaxIterations = defaultMaxIterations
	}
	if r.MaxSchemaRepairAttempts == 0 {
		r.MaxSchemaRepairAttempts = defaultMaxSchemaRepairAttempts
	}
	if r.MaxTaskValidationAttempts == 0 {
		r.MaxTaskValidationAttempts = defaultMaxTaskValidationAttempts
	}

	switch r.LLMProvider {
	case "", "anthropic":
		r.LLMProvider = "anthropic"
		r.LLMAPIKey = c.LLM.AnthropicAPIKey
		r.LLMModel = c.LLM.AnthropicModel
		if r.LLMModel == "" {
			r.LLMModel = "claude-sonnet-4-5"
		}
		if r.LLMAPIKey == "" {
			return nil, fmt.Errorf("llm.anthropicApiKey is required when llm.provider is %q", r.LLMProvider)
		}
	case "openai":
		r.LLMAPIKey = c.LLM.OpenAIAPIKey
		r.LLMModel = c.LLM.OpenAIModel
		if r.LLMModel == "" {
			r.LLMModel = "gpt-4.1"
		}
		if r.LLMAPIKey == "" {
			return nil, fmt.Errorf("llm.openaiApiKey is required when llm.provider is %q", r.LLMProvider)
		}
	default:
		return nil, fmt.Errorf("unknown llm.provider %q", r.LLMProvider)
	}

	return r, nil
}

// NewLLMCapability constructs the configured llm.Capability implementation.
func (r *ResolvedConfig) NewLLMCapability() llm.Capability {
	switch r.LLMProvider {
	case "openai":
		return llm.NewOpenAIProvider(r.LLMAPIKey, r.LLMModel)
	default:
		return llm.NewAnthropicProvider(r.LLMAPIKey, r.LLMModel)
	}
}
