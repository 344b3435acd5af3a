// Package arbiter calls the external chat model that refines ambiguous
// heuristic scores. Any OpenAI-compatible endpoint works; the default
// deployment points at OpenRouter.
package arbiter

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("arbiter API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Review sends the grading prompt and returns the model's raw text. The
// caller owns fence stripping and JSON parsing.
func (c *Client) Review(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a fair academic evaluator."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("arbiter: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("arbiter: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
