package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Step represents a step in the checkout flow
type Step int

const (
	StepAddress Step = 1 // address capture and order review
	StepPayment Step = 2 // payment details and contract acceptance
)

// IsValid checks if the step is a valid checkout step
func (s Step) IsValid() bool {
	return s == StepAddress || s == StepPayment
}

// AuthState mirrors the external authentication signal
type AuthState string

const (
	AuthGuest    AuthState = "GUEST"
	AuthLoggedIn AuthState = "LOGGED_IN"
)

// IsValid checks if the auth state is valid
func (a AuthState) IsValid() bool {
	return a == AuthGuest || a == AuthLoggedIn
}

// AddressState tracks the provenance of the active billing address
type AddressState string

const (
	AddressGuestEntered     AddressState = "GUEST_ENTERED"
	AddressExistingSelected AddressState = "EXISTING_SELECTED"
	AddressNewEntered       AddressState = "NEW_ENTERED"
)

// InvoiceType distinguishes personal and corporate invoices
type InvoiceType string

const (
	InvoicePerson  InvoiceType = "PERSON"
	InvoiceCompany InvoiceType = "COMPANY"
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	return t == InvoicePerson || t == InvoiceCompany
}

// ShippingMethod represents the selected shipping option
type ShippingMethod string

const (
	ShippingFree     ShippingMethod = "FREE"
	ShippingStandard ShippingMethod = "STANDARD"
)

// IsValid checks if the shipping method is valid
func (m ShippingMethod) IsValid() bool {
	return m == ShippingFree || m == ShippingStandard
}

// PaymentMethod represents the selected payment option
type PaymentMethod string

const (
	PaymentCard         PaymentMethod = "CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentCard || m == PaymentBankTransfer
}

// RequiresCard returns true if the method needs card details
func (m PaymentMethod) RequiresCard() bool {
	return m == PaymentCard
}

// CouponStatus represents the coupon application state machine
type CouponStatus string

const (
	CouponNone     CouponStatus = "NONE"
	CouponStatusApplying CouponStatus = "APPLYING"
	CouponStatusApplied  CouponStatus = "APPLIED"
	CouponInvalid  CouponStatus = "INVALID"
)

// IsValid checks if the status is a valid CouponStatus
func (c CouponStatus) IsValid() bool {
	switch c {
	case CouponNone, CouponStatusApplying, CouponStatusApplied, CouponInvalid:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (c CouponStatus) CanTransitionTo(target CouponStatus) bool {
	switch c {
	case CouponNone:
		return target == CouponStatusApplying
	case CouponStatusApplying:
		// Applying -> applying: a newer request supersedes the in-flight one
		return target == CouponStatusApplying || target == CouponStatusApplied || target == CouponInvalid
	case CouponStatusApplied:
		return target == CouponNone || target == CouponStatusApplying
	case CouponInvalid:
		return target == CouponStatusApplying || target == CouponNone
	}
	return false
}

// String returns the string representation of CouponStatus
func (c CouponStatus) String() string {
	return string(c)
}

// ContractKind identifies a contract-acceptance flag
type ContractKind string

const (
	ContractTerms         ContractKind = "TERMS"
	ContractDistanceSales ContractKind = "DISTANCE_SALES"
)

// IsValid checks if the contract kind is valid
func (k ContractKind) IsValid() bool {
	return k == ContractTerms || k == ContractDistanceSales
}

// Address holds a billing or shipping address
// TaxNumber and TaxOffice are only meaningful for corporate invoices
type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	City        string `json:"city"`
	District    string `json:"district"`
	AddressLine string `json:"address_line"`
	TaxNumber   string `json:"tax_number,omitempty"`
	TaxOffice   string `json:"tax_office,omitempty"`
}

// CardData holds card payment details, populated only for card payments
type CardData struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// LineItem is one cart entry mirrored into the checkout aggregate
// Items are unique by ID; insertion order is preserved but not significant
type LineItem struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Title         string          `json:"title"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Quantity      int             `json:"quantity"`
	VariantID     *uuid.UUID      `json:"variant_id,omitempty"`
}

// AppliedCoupon holds a coupon validated by the coupon gateway
// CalculatedDiscount is the gateway's figure and is trusted verbatim;
// discount rules (min spend, category eligibility) live gateway-side
type AppliedCoupon struct {
	Code               string          `json:"code"`
	DiscountType       string          `json:"discount_type"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	CalculatedDiscount decimal.Decimal `json:"calculated_discount"`
}

// Contracts holds the contract-acceptance flags, both required for submission
type Contracts struct {
	TermsAccepted         bool `json:"terms_accepted"`
	DistanceSalesAccepted bool `json:"distance_sales_accepted"`
}

// Totals is the derived monetary aggregate
// Never authored directly; only recomputed by recalculateTotals
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Shipping    decimal.Decimal `json:"shipping"`
	Discount    decimal.Decimal `json:"discount"`
	TaxIncluded decimal.Decimal `json:"tax_included"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// Pricing holds the fixed pricing rules the derivation engine applies
type Pricing struct {
	FreeShippingMin      decimal.Decimal
	StandardShippingCost decimal.Decimal
	TaxRate              decimal.Decimal
}

// DefaultPricing returns the storefront's standard pricing rules
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingMin:      decimal.NewFromInt(2000),
		StandardShippingCost: decimal.NewFromInt(100),
		TaxRate:              decimal.NewFromFloat(0.18),
	}
}

// State is the checkout aggregate for one in-progress checkout session
// It is mutated exclusively through Apply; created at flow start and
// reset on completion or explicit abandonment
type State struct {
	CurrentStep          Step              `json:"current_step"`
	AuthState            AuthState         `json:"auth_state"`
	AddressState         AddressState      `json:"address_state"`
	BillingAddress       *Address          `json:"billing_address"`
	ShippingAddress      *Address          `json:"shipping_address"`
	UseDifferentShipping bool              `json:"use_different_shipping"`
	InvoiceType          InvoiceType       `json:"invoice_type"`
	ShippingMethod       ShippingMethod    `json:"shipping_method"`
	CouponStatus         CouponStatus      `json:"coupon_status"`
	AppliedCoupon        *AppliedCoupon    `json:"applied_coupon"`
	CouponError          string            `json:"coupon_error,omitempty"`
	PaymentMethod        PaymentMethod     `json:"payment_method"`
	CardData             *CardData         `json:"card_data,omitempty"`
	Contracts            Contracts         `json:"contracts"`
	CreateAccount        bool              `json:"create_account"`
	Items                []LineItem        `json:"items"`
	Totals               Totals            `json:"totals"`
	IsSubmitting         bool              `json:"is_submitting"`
	Errors               map[string]string `json:"errors"`

	pricing Pricing
}

// NewState creates a fresh checkout aggregate for a guest session
func NewState(pricing Pricing) *State {
	s := &State{
		CurrentStep:    StepAddress,
		AuthState:      AuthGuest,
		AddressState:   AddressGuestEntered,
		InvoiceType:    InvoicePerson,
		ShippingMethod: ShippingStandard,
		CouponStatus:   CouponNone,
		PaymentMethod:  PaymentCard,
		Items:          make([]LineItem, 0),
		Errors:         make(map[string]string),
		pricing:        pricing,
	}
	s.recalculateTotals()
	return s
}

// Pricing returns the pricing rules this aggregate derives totals with
func (s *State) Pricing() Pricing {
	return s.pricing
}

// ResolvedShippingAddress returns the effective shipping address:
// the separate shipping address when enabled, else the billing address
func (s *State) ResolvedShippingAddress() *Address {
	if s.UseDifferentShipping && s.ShippingAddress != nil {
		return s.ShippingAddress
	}
	return s.BillingAddress
}

// CouponCode returns the applied coupon code, or "" when none is applied
func (s *State) CouponCode() string {
	if s.AppliedCoupon == nil {
		return ""
	}
	return s.AppliedCoupon.Code
}

// HasItems returns true if any cart lines are mirrored into the aggregate
func (s *State) HasItems() bool {
	return len(s.Items) > 0
}

// addressStateFor maps an auth state to its post-reset address state
func addressStateFor(auth AuthState) AddressState {
	if auth == AuthLoggedIn {
		return AddressExistingSelected
	}
	return AddressGuestEntered
}
