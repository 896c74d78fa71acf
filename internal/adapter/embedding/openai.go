package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client talks to an OpenAI-compatible embeddings endpoint, including
// Azure OpenAI deployments.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	azure      bool
	apiVersion string
	dimension  int
	batchSize  int
	client     *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, dimension, batchSize int) (*Client, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return newClient(apiKey, model, baseURL, false, "", dimension, batchSize), nil
}

func NewAzureEmbedder(apiKeyEnv, endpoint, deployment, apiVersion string, dimension, batchSize int) (*Client, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}

	baseURL := fmt.Sprintf("%s/openai/deployments/%s", endpoint, deployment)
	return newClient(apiKey, deployment, baseURL, true, apiVersion, dimension, batchSize), nil
}

func NewOllamaEmbedder(model, baseURL string, dimension, batchSize int) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return newClient("ollama", model, baseURL, false, "", dimension, batchSize), nil
}

func newClient(apiKey, model, baseURL string, azure bool, apiVersion string, dimension, batchSize int) *Client {
	if dimension <= 0 {
		dimension = 1536
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		azure:      azure,
		apiVersion: apiVersion,
		dimension:  dimension,
		batchSize:  batchSize,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (e *Client) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var allEmbeddings [][]float32
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(texts[i:end])
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *Client) embedBatch(texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{Input: texts}
	if !e.azure {
		reqBody.Model = e.model
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := e.baseURL + "/embeddings"
	if e.azure {
		url += "?api-version=" + e.apiVersion
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if e.azure {
		req.Header.Set("api-key", e.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}

	return embeddings, nil
}

func (e *Client) Dimension() int {
	return e.dimension
}

func (e *Client) ModelName() string {
	return e.model
}
