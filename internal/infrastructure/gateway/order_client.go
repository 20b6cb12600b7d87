package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/storefront/backend/internal/domain/checkout"
)

// OrderClient submits orders to the commerce gateway
type OrderClient struct {
	*client
}

// NewOrderClient creates an order client with the given configuration
func NewOrderClient(config *Config) (*OrderClient, error) {
	c, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return &OrderClient{client: c}, nil
}

type orderCreateResponse struct {
	OrderNumber string `json:"orderNumber"`
}

// Create submits the serialized checkout aggregate and returns the
// order number assigned by the gateway
func (c *OrderClient) Create(ctx context.Context, req checkout.OrderRequest) (string, error) {
	respBody, err := c.post(ctx, "/api/v1/orders", req)
	if err != nil {
		return "", err
	}

	var resp orderCreateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("gateway: failed to parse order response: %w", err)
	}
	if resp.OrderNumber == "" {
		return "", fmt.Errorf("gateway: order response missing order number")
	}

	return resp.OrderNumber, nil
}

// Ensure OrderClient implements the domain port
var _ checkout.OrderGateway = (*OrderClient)(nil)
