// Package symbolic is the client for the computer-algebra collaborator. The
// service accepts an expression and returns its simplified form, or null when
// the expression does not parse.
package symbolic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrUnparseable = errors.New("expression not parseable")

type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

type simplifyRequest struct {
	Expr string `json:"expr"`
}

type simplifyResponse struct {
	Result *string `json:"result"`
}

func (c *Client) Simplify(ctx context.Context, expr string) (string, error) {
	body, err := json.Marshal(simplifyRequest{Expr: expr})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("simplify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("simplify: status %d", resp.StatusCode)
	}
	var out simplifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("simplify: %w", err)
	}
	if out.Result == nil {
		return "", ErrUnparseable
	}
	return *out.Result, nil
}
