package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2*time.Second, cfg.Poller.BaseInterval)
	assert.Equal(t, "inmemory", cfg.Memory.Backend)
	assert.Contains(t, cfg.Adapters, "claude")
}

func TestLoadFilePartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model: gpt-4o
poller:
  base_interval: 5s
memory:
  backend: sqlite
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.Poller.BaseInterval)
	assert.Equal(t, "sqlite", cfg.Memory.Backend)

	// Unset fields fall back to defaults.
	assert.Equal(t, 30*time.Second, cfg.Poller.MaxInterval)
	assert.Equal(t, 5, cfg.Context.MaxRecent)
	assert.Equal(t, "memories.db", cfg.Memory.Path)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-test-123")
	t.Setenv(EnvModel, "gpt-4-turbo")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4-turbo", cfg.LLM.Model)
	assert.True(t, cfg.HasAPIKey())
}

func TestLoadFromStateDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config", "config.yaml"),
		[]byte("llm:\n  model: custom\n"), 0o644))

	cfg, err := LoadFromStateDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.LLM.Model)
	assert.Equal(t, dir, cfg.StateDir)
}

func TestAdapterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
adapters:
  aider:
    name: aider
    command: ["aider", "--yes"]
    model: gpt-4o
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	adapter, ok := cfg.Adapters["aider"]
	require.True(t, ok)
	assert.Equal(t, []string{"aider", "--yes"}, adapter.Command)
	assert.Equal(t, "gpt-4o", adapter.Model)
}
