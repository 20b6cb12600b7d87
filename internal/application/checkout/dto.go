package checkout

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// TotalsResponse renders the derived totals as money values
type TotalsResponse struct {
	Subtotal    valueobject.Money `json:"subtotal"`
	Shipping    valueobject.Money `json:"shipping"`
	Discount    valueobject.Money `json:"discount"`
	TaxIncluded valueobject.Money `json:"tax_included"`
	GrandTotal  valueobject.Money `json:"grand_total"`
}

// CouponResponse is the applied-coupon portion of the state response
type CouponResponse struct {
	Code               string            `json:"code"`
	DiscountType       string            `json:"discount_type"`
	CalculatedDiscount valueobject.Money `json:"calculated_discount"`
}

// StateResponse is the outward view of a checkout aggregate
// Card details are never echoed back
type StateResponse struct {
	SessionID            uuid.UUID           `json:"session_id"`
	CurrentStep          int                 `json:"current_step"`
	AuthState            string              `json:"auth_state"`
	AddressState         string              `json:"address_state"`
	BillingAddress       *checkout.Address   `json:"billing_address"`
	ShippingAddress      *checkout.Address   `json:"shipping_address"`
	UseDifferentShipping bool                `json:"use_different_shipping"`
	InvoiceType          string              `json:"invoice_type"`
	ShippingMethod       string              `json:"shipping_method"`
	PaymentMethod        string              `json:"payment_method"`
	CouponStatus         string              `json:"coupon_status"`
	Coupon               *CouponResponse     `json:"coupon"`
	CouponError          string              `json:"coupon_error,omitempty"`
	Contracts            checkout.Contracts  `json:"contracts"`
	CreateAccount        bool                `json:"create_account"`
	Items                []checkout.LineItem `json:"items"`
	Totals               TotalsResponse      `json:"totals"`
	IsSubmitting         bool                `json:"is_submitting"`
	Errors               map[string]string   `json:"errors"`
}

// CouponResult is the settled outcome of a coupon application attempt
// Superseded marks a response that arrived after a newer request was
// issued; its outcome was discarded
type CouponResult struct {
	Applied    bool          `json:"applied"`
	Superseded bool          `json:"superseded,omitempty"`
	Error      string        `json:"error,omitempty"`
	State      StateResponse `json:"state"`
}

// SubmitResult is the settled outcome of an order submission attempt
type SubmitResult struct {
	Success     bool          `json:"success"`
	OrderNumber string        `json:"order_number,omitempty"`
	Error       string        `json:"error,omitempty"`
	State       StateResponse `json:"state"`
}

// toStateResponse snapshots an aggregate into its outward view
// Must be called with the session lock held
func toStateResponse(sess *Session, s *checkout.State) StateResponse {
	items := make([]checkout.LineItem, len(s.Items))
	copy(items, s.Items)

	errs := make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		errs[k] = v
	}

	var coupon *CouponResponse
	if s.AppliedCoupon != nil {
		coupon = &CouponResponse{
			Code:               s.AppliedCoupon.Code,
			DiscountType:       s.AppliedCoupon.DiscountType,
			CalculatedDiscount: valueobject.NewMoneyTRY(s.AppliedCoupon.CalculatedDiscount),
		}
	}

	return StateResponse{
		SessionID:            sess.ID,
		CurrentStep:          int(s.CurrentStep),
		AuthState:            string(s.AuthState),
		AddressState:         string(s.AddressState),
		BillingAddress:       s.BillingAddress,
		ShippingAddress:      s.ShippingAddress,
		UseDifferentShipping: s.UseDifferentShipping,
		InvoiceType:          string(s.InvoiceType),
		ShippingMethod:       string(s.ShippingMethod),
		PaymentMethod:        string(s.PaymentMethod),
		CouponStatus:         string(s.CouponStatus),
		Coupon:               coupon,
		CouponError:          s.CouponError,
		Contracts:            s.Contracts,
		CreateAccount:        s.CreateAccount,
		Items:                items,
		Totals: TotalsResponse{
			Subtotal:    valueobject.NewMoneyTRY(s.Totals.Subtotal),
			Shipping:    valueobject.NewMoneyTRY(s.Totals.Shipping),
			Discount:    valueobject.NewMoneyTRY(s.Totals.Discount),
			TaxIncluded: valueobject.NewMoneyTRY(s.Totals.TaxIncluded),
			GrandTotal:  valueobject.NewMoneyTRY(s.Totals.GrandTotal),
		},
		IsSubmitting: s.IsSubmitting,
		Errors:       errs,
	}
}
