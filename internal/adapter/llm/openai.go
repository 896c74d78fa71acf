package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ChatClient talks to an OpenAI-compatible chat-completions endpoint,
// including Azure OpenAI deployments and local Ollama servers.
type ChatClient struct {
	apiKey     string
	model      string
	baseURL    string
	azure      bool
	apiVersion string
	client     *http.Client
}

type chatRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAIClient creates a client for api.openai.com or any
// OpenAI-compatible base URL.
func NewOpenAIClient(apiKeyEnv, model, baseURL string) (*ChatClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &ChatClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// NewAzureClient creates a client for an Azure OpenAI deployment. The
// deployment name replaces the model in the URL; the model field is kept
// for reporting only.
func NewAzureClient(apiKeyEnv, endpoint, deployment, apiVersion string) (*ChatClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}

	return &ChatClient{
		apiKey:     apiKey,
		model:      deployment,
		baseURL:    fmt.Sprintf("%s/openai/deployments/%s", endpoint, deployment),
		azure:      true,
		apiVersion: apiVersion,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(model, baseURL string) (*ChatClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}

	return &ChatClient{
		apiKey:  "ollama",
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Complete sends one system-prompted completion request.
func (c *ChatClient) Complete(systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if !c.azure {
		reqBody.Model = c.model
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	if c.azure {
		url += "?api-version=" + c.apiVersion
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.azure {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return "", fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (c *ChatClient) ModelName() string {
	return c.model
}
