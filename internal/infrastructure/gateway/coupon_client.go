package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/checkout"
)

// CouponClient validates coupon codes against the commerce gateway
type CouponClient struct {
	*client
}

// NewCouponClient creates a coupon client with the given configuration
func NewCouponClient(config *Config) (*CouponClient, error) {
	c, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return &CouponClient{client: c}, nil
}

type couponValidateRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// couponValidateResponse wraps the coupon payload in the gateway's
// success envelope
type couponValidateResponse struct {
	Coupon *couponPayload `json:"coupon"`
}

type couponPayload struct {
	Code               string          `json:"code"`
	DiscountType       string          `json:"discountType"`
	DiscountValue      decimal.Decimal `json:"discountValue"`
	CalculatedDiscount decimal.Decimal `json:"calculatedDiscount"`
}

// Validate asks the gateway to validate a coupon code against the
// given subtotal and returns the computed discount
func (c *CouponClient) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
	respBody, err := c.post(ctx, "/api/v1/coupons/validate", couponValidateRequest{
		Code:     code,
		Subtotal: subtotal,
	})
	if err != nil {
		return nil, err
	}

	var resp couponValidateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse coupon response: %w", err)
	}
	if resp.Coupon == nil || resp.Coupon.Code == "" {
		return nil, fmt.Errorf("gateway: coupon response missing coupon object")
	}

	return &checkout.AppliedCoupon{
		Code:               resp.Coupon.Code,
		DiscountType:       resp.Coupon.DiscountType,
		DiscountValue:      resp.Coupon.DiscountValue,
		CalculatedDiscount: resp.Coupon.CalculatedDiscount,
	}, nil
}

// Ensure CouponClient implements the domain port
var _ checkout.CouponGateway = (*CouponClient)(nil)
