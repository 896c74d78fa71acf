package cli

import (
	"fmt"

	"tariffrag/config"
	"tariffrag/internal/adapter/embedding"
	"tariffrag/internal/adapter/llm"
	"tariffrag/internal/domain"
	"tariffrag/internal/port"
)

// setupLLM builds the chat-completion client for the configured provider.
func setupLLM(cfg *config.Config) (port.TextCompletion, error) {
	c := cfg.LLM
	var (
		client *llm.ChatClient
		err    error
	)
	switch c.Provider {
	case "openai":
		client, err = llm.NewOpenAIClient(c.APIKeyEnv, c.Model, c.BaseURL)
	case "azure":
		client, err = llm.NewAzureClient(c.APIKeyEnv, c.BaseURL, c.Deployment, c.APIVersion)
	case "ollama":
		client, err = llm.NewOllamaClient(c.Model, c.BaseURL)
	default:
		err = fmt.Errorf("unknown provider %q", c.Provider)
	}
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "llm", Err: err}
	}
	return client, nil
}

// setupEmbedder builds the embedding client for the configured provider.
func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	c := cfg.Embedding
	var (
		client *embedding.Client
		err    error
	)
	switch c.Provider {
	case "openai":
		client, err = embedding.NewOpenAIEmbedder(c.APIKeyEnv, c.Model, c.BaseURL, c.Dimension, c.BatchSize)
	case "azure":
		client, err = embedding.NewAzureEmbedder(c.APIKeyEnv, c.BaseURL, c.Deployment, c.APIVersion, c.Dimension, c.BatchSize)
	case "ollama":
		client, err = embedding.NewOllamaEmbedder(c.Model, c.BaseURL, c.Dimension, c.BatchSize)
	default:
		err = fmt.Errorf("unknown provider %q", c.Provider)
	}
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "embedding", Err: err}
	}
	return client, nil
}
