// Package config loads commander's settings: a YAML file under the
// state directory's config/ subdirectory, with environment overrides
// for secrets and the model selection.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/commander/internal/supervisor"
)

// Well-known environment variables.
const (
	// EnvAPIKey carries the model endpoint's bearer token.
	EnvAPIKey = "OPENAI_API_KEY"
	// EnvModel overrides the default completion model.
	EnvModel = "COMMANDER_MODEL"
)

// LLMConfig configures the model RPC client.
type LLMConfig struct {
	// APIKey is normally supplied via OPENAI_API_KEY, not the file.
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
	// EmbeddingModel names the embeddings model for memory search.
	EmbeddingModel string `yaml:"embedding_model,omitempty"`
}

// PollerConfig configures the adaptive poller's bounds.
type PollerConfig struct {
	BaseInterval time.Duration `yaml:"base_interval,omitempty"`
	MaxInterval  time.Duration `yaml:"max_interval,omitempty"`
}

// ContextConfig configures per-agent context windows.
type ContextConfig struct {
	MaxRecent   int `yaml:"max_recent,omitempty"`
	TokenBudget int `yaml:"token_budget,omitempty"`
	MaxTokens   int `yaml:"max_tokens,omitempty"`
}

// MemoryConfig selects and configures the vector-memory backend.
type MemoryConfig struct {
	// Backend is "inmemory" or "sqlite".
	Backend string `yaml:"backend,omitempty"`
	// Path is the sqlite database file, relative to the db/
	// directory when not absolute.
	Path string `yaml:"path,omitempty"`
}

// Config is the root configuration.
type Config struct {
	// StateDir overrides the default ~/.ai-commander root.
	StateDir string `yaml:"state_dir,omitempty"`

	LLM     LLMConfig     `yaml:"llm"`
	Poller  PollerConfig  `yaml:"poller"`
	Context ContextConfig `yaml:"context"`
	Memory  MemoryConfig  `yaml:"memory"`
	// Adapters maps adapter names to launch descriptions.
	Adapters map[string]supervisor.Adapter `yaml:"adapters,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		Poller: PollerConfig{
			BaseInterval: 2 * time.Second,
			MaxInterval:  30 * time.Second,
		},
		Context: ContextConfig{
			MaxRecent:   5,
			TokenBudget: 8000,
			MaxTokens:   128000,
		},
		Memory: MemoryConfig{
			Backend: "inmemory",
			Path:    "memories.db",
		},
		Adapters: map[string]supervisor.Adapter{
			"claude": {Name: "claude", Command: []string{"claude"}},
			"shell":  {Name: "shell", Command: nil},
		},
	}
}

// Load reads the configuration file at path, applies defaults for
// anything unset, and then environment overrides. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.applyDefaults()
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromStateDir loads config/config.yaml under the state root.
func LoadFromStateDir(stateDir string) (*Config, error) {
	cfg, err := Load(filepath.Join(stateDir, "config", "config.yaml"))
	if err != nil {
		return nil, err
	}
	if cfg.StateDir == "" {
		cfg.StateDir = stateDir
	}
	return cfg, nil
}

// applyDefaults restores zero-valued fields that the file left out.
func (c *Config) applyDefaults() {
	def := Default()
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = def.LLM.EmbeddingModel
	}
	if c.Poller.BaseInterval == 0 {
		c.Poller.BaseInterval = def.Poller.BaseInterval
	}
	if c.Poller.MaxInterval == 0 {
		c.Poller.MaxInterval = def.Poller.MaxInterval
	}
	if c.Context.MaxRecent == 0 {
		c.Context.MaxRecent = def.Context.MaxRecent
	}
	if c.Context.TokenBudget == 0 {
		c.Context.TokenBudget = def.Context.TokenBudget
	}
	if c.Context.MaxTokens == 0 {
		c.Context.MaxTokens = def.Context.MaxTokens
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = def.Memory.Backend
	}
	if c.Memory.Path == "" {
		c.Memory.Path = def.Memory.Path
	}
	if c.Adapters == nil {
		c.Adapters = def.Adapters
	}
}

// applyEnv layers environment overrides on top of file values.
func (c *Config) applyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv(EnvModel); model != "" {
		c.LLM.Model = model
	}
}

// HasAPIKey reports whether a model API key is configured.
func (c *Config) HasAPIKey() bool { return c.LLM.APIKey != "" }
