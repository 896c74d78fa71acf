package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Retrieve.TopK)
	assert.Equal(t, 10, cfg.Retrieve.MaxTopK)
	assert.Equal(t, 3000, cfg.Generate.TokenBudget)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig().Retrieve.TopK, cfg.Retrieve.TopK)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tariffrag.yaml")

	content := `
retrieve:
  top_k: 5
  max_top_k: 8
generate:
  token_budget: 1500
  debug_context_path: ctx.txt
llm:
  provider: azure
  deployment: gpt-4o
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retrieve.TopK)
	assert.Equal(t, 8, cfg.Retrieve.MaxTopK)
	assert.Equal(t, 1500, cfg.Generate.TokenBudget)
	assert.Equal(t, "ctx.txt", cfg.Generate.DebugContextPath)
	assert.Equal(t, "azure", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Deployment)
	// Untouched fields keep defaults.
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tariffrag.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("retrieve: ["), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Retrieve.TopK, cfg.Retrieve.TopK)

	content := "retrieve:\n  top_k: 7\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "tariffrag.yaml"), []byte(content), 0644))

	cfg, err = LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retrieve.TopK)
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.yaml")

	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 9
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Retrieve.TopK)
}

func TestCorpusDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("x", ".tariffrag", "corpus.db"), CorpusDBPath("x"))
}
