package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the tariff QA tool.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Generate  GenerateConfig  `yaml:"generate"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig holds ingestion configuration.
type CorpusConfig struct {
	DocsDir  string   `yaml:"docs_dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int     `yaml:"top_k"`
	MaxTopK         int     `yaml:"max_top_k"` // Hard cap on context size per query
	MinScore        float64 `yaml:"min_score"` // Drop chunks below this similarity (0 = disabled)
	CacheSize       int     `yaml:"cache_size"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// GenerateConfig holds answer-generation configuration.
type GenerateConfig struct {
	TokenBudget      int    `yaml:"token_budget"`
	DebugContextPath string `yaml:"debug_context_path"` // Assembled context dump; empty disables
}

// LLMConfig holds chat-completion provider configuration.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // "openai", "azure", "ollama"
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Deployment string `yaml:"deployment"`  // Azure deployment name
	APIVersion string `yaml:"api_version"` // Azure API version
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
	Dimension  int    `yaml:"dimension"`
	BatchSize  int    `yaml:"batch_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DocsDir:  "docs",
			Includes: []string{"**/*.md", "**/*.markdown", "**/*.txt"},
			Excludes: []string{"**/.tariffrag/**", "**/.git/**"},
		},
		Retrieve: RetrieveConfig{
			TopK:            3,
			MaxTopK:         10,
			MinScore:        0,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Generate: GenerateConfig{
			TokenBudget:      3000,
			DebugContextPath: "",
		},
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			BaseURL:    "https://api.openai.com/v1",
			APIKeyEnv:  "OPENAI_API_KEY",
			APIVersion: "2024-06-01",
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			BaseURL:    "https://api.openai.com/v1",
			APIKeyEnv:  "OPENAI_API_KEY",
			APIVersion: "2024-06-01",
			Dimension:  1536,
			BatchSize:  100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadEnv loads a .env file from the working directory if one exists, so
// API keys can live outside the YAML config. Missing files are fine.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// tariffrag.yaml, then .tariffrag/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "tariffrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".tariffrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CorpusDBPath returns the path to the corpus database.
func CorpusDBPath(dir string) string {
	return filepath.Join(dir, ".tariffrag", "corpus.db")
}

// EnsureDataDir ensures the .tariffrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".tariffrag"), 0755)
}
