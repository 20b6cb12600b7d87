package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storefront/backend/internal/domain/checkout"
)

// maxResponseSize is the maximum allowed response size from the gateway (10MB)
const maxResponseSize = 10 * 1024 * 1024

// client is the shared HTTP plumbing for the gateway adapters
type client struct {
	config     *Config
	httpClient *http.Client
}

func newClient(config *Config) (*client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// errorResponse is the gateway's error envelope
type errorResponse struct {
	Error string `json:"error"`
}

// post sends a JSON request and returns the response body.
// A non-2xx status with a parseable error envelope becomes a
// *checkout.GatewayError carrying the gateway's message; transport
// failures and unparseable responses are returned as plain errors.
func (c *client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorResponse
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != "" {
			return nil, &checkout.GatewayError{Message: envelope.Error}
		}
		return nil, fmt.Errorf("gateway: HTTP %d", resp.StatusCode)
	}

	return respBody, nil
}
