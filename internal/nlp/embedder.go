package nlp

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type EmbedClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewEmbedClient(endpoint, apiKey string, timeout time.Duration) *EmbedClient {
	return &EmbedClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := postJSON(ctx, c.http, c.endpoint, c.apiKey, embedRequest{Input: text}, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty vector")
	}
	return resp.Embedding, nil
}
