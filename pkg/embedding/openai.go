package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"contact-autoclose/pkg/constants"
)

// OpenAIProvider calls the OpenAI embeddings endpoint.
type OpenAIProvider struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
}

func NewOpenAIProvider(apiKey, model, endpoint string) *OpenAIProvider {
	if model == "" {
		model = constants.DefaultEmbeddingModel
	}
	if endpoint == "" {
		endpoint = constants.DefaultEmbeddingEndpoint
	}
	return &OpenAIProvider{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", ErrUnavailable)
	}

	jsonData, err := json.Marshal(embeddingRequest{Model: p.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: api error (status %d): %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var apiResp embeddingResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("%w: api returned error: %s", ErrUnavailable, apiResp.Error.Message)
	}

	if len(apiResp.Data) == 0 || len(apiResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", ErrUnavailable)
	}

	return apiResp.Data[0].Embedding, nil
}
