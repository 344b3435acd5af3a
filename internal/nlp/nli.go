// Package nlp holds the clients for the hosted language-inference
// collaborators: an NLI classifier and a sentence embedder. Both speak plain
// JSON over HTTP; the engine treats them as black boxes.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dnvaishnavi/automated-multimodal-grader/internal/grading"
)

type NLIClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewNLIClient(endpoint, apiKey string, timeout time.Duration) *NLIClient {
	return &NLIClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type nliRequest struct {
	Premise    string `json:"premise"`
	Hypothesis string `json:"hypothesis"`
}

func (c *NLIClient) Classify(ctx context.Context, premise, hypothesis string) (grading.NLIScores, error) {
	var scores grading.NLIScores
	err := postJSON(ctx, c.http, c.endpoint, c.apiKey, nliRequest{Premise: premise, Hypothesis: hypothesis}, &scores)
	if err != nil {
		return grading.NLIScores{}, fmt.Errorf("nli classify: %w", err)
	}
	return scores, nil
}

func postJSON(ctx context.Context, hc *http.Client, endpoint, apiKey string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
