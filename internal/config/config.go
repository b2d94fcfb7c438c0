package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yaml"

	// MinMaxTokens and MaxMaxTokens bound the token budget accepted by setup and Validate
	MinMaxTokens = 1
	MaxMaxTokens = 4096

	DefaultOllamaModel   = "qwen2.5-coder"
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1/"
)

// ModelKind identifies which backend model the user selected
type ModelKind string

const (
	ModelGPT4o     ModelKind = "gpt-4o"
	ModelGPT4oMini ModelKind = "gpt-4o-mini"
	ModelOllama    ModelKind = "ollama"
)

var (
	ErrUnknownModel     = errors.New("unknown model")
	ErrInvalidMaxTokens = fmt.Errorf("max_tokens must be between %d and %d", MinMaxTokens, MaxMaxTokens)
)

// Config represents the application configuration
type Config struct {
	Model       ModelKind `yaml:"model"`
	OllamaModel string    `yaml:"ollama_model,omitempty"`
	MaxTokens   int       `yaml:"max_tokens"`

	// Endpoint overrides, mostly useful for proxies and tests
	OllamaURL     string `yaml:"ollama_url,omitempty"`
	OpenAIBaseURL string `yaml:"openai_base_url,omitempty"`
}

// ModelSelection is the backend/model pair derived from a Config
type ModelSelection struct {
	Kind ModelKind
	Name string
}

// Selection returns the immutable model selection for this config
func (c *Config) Selection() ModelSelection {
	return ModelSelection{Kind: c.Model, Name: c.ModelName()}
}

// NewHosted returns a config for one of the hosted OpenAI models
func NewHosted(model ModelKind, maxTokens int) *Config {
	return &Config{Model: model, MaxTokens: maxTokens}
}

// NewLocal returns a config for a local Ollama model
func NewLocal(name string, maxTokens int) *Config {
	if name == "" {
		name = DefaultOllamaModel
	}
	return &Config{Model: ModelOllama, OllamaModel: name, MaxTokens: maxTokens}
}

// IsLocal reports whether the selected model is served by Ollama
func (c *Config) IsLocal() bool {
	return c.Model == ModelOllama
}

// ModelName returns the model identifier sent to the backend
func (c *Config) ModelName() string {
	if c.IsLocal() {
		if c.OllamaModel == "" {
			return DefaultOllamaModel
		}
		return c.OllamaModel
	}
	return string(c.Model)
}

// OllamaEndpoint returns the Ollama base URL with the default applied
func (c *Config) OllamaEndpoint() string {
	if c.OllamaURL == "" {
		return DefaultOllamaURL
	}
	return c.OllamaURL
}

// OpenAIEndpoint returns the OpenAI base URL with the default applied
func (c *Config) OpenAIEndpoint() string {
	if c.OpenAIBaseURL == "" {
		return DefaultOpenAIBaseURL
	}
	return c.OpenAIBaseURL
}

// Validate checks the model selection and token budget
func (c *Config) Validate() error {
	switch c.Model {
	case ModelGPT4o, ModelGPT4oMini, ModelOllama:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModel, c.Model)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w (got %d)", ErrInvalidMaxTokens, c.MaxTokens)
	}
	return nil
}

// Load reads the configuration at path.
// A missing file returns (nil, nil); a file that cannot be parsed is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the configuration to path, creating its directory if needed
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists at path
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
