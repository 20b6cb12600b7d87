package checkout

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// Command is a named checkout transition
// Every mutation of the aggregate goes through State.Apply with one of
// the concrete command types below; there is no other write path
type Command interface {
	Name() string
}

// SetItems mirrors the cart collaborator's line items into the aggregate
type SetItems struct {
	Items []LineItem
}

// SetBillingAddress replaces the billing address
// No validation happens here; validation is an explicit separate step
type SetBillingAddress struct {
	Address Address
}

// SetShippingAddress replaces the separate shipping address
type SetShippingAddress struct {
	Address Address
}

// SetUseDifferentShipping toggles the separate shipping address
// Toggling off discards any previously entered shipping address
type SetUseDifferentShipping struct {
	Enabled bool
}

// SetInvoiceType switches between personal and corporate invoices
type SetInvoiceType struct {
	Type InvoiceType
}

// SetShippingMethod selects a shipping option; the derivation engine
// overrides the choice whenever the subtotal threshold dictates
type SetShippingMethod struct {
	Method ShippingMethod
}

// SetAuthState applies the external authentication signal
// The address state is always remapped, even over user-entered data
type SetAuthState struct {
	State AuthState
}

// SetPaymentMethod selects the payment option; card details are kept
// only while a card-based method is selected
type SetPaymentMethod struct {
	Method PaymentMethod
}

// SetCardData replaces the card details
type SetCardData struct {
	Card CardData
}

// SetContractAccepted records one contract-acceptance flag
type SetContractAccepted struct {
	Contract ContractKind
	Accepted bool
}

// SetCreateAccount toggles the optional account-creation request
type SetCreateAccount struct {
	Enabled bool
}

// GoToStep navigates the flow; forward transitions require the current
// step to validate, backward transitions are always allowed
type GoToStep struct {
	Step Step
}

// CouponApplying marks a coupon validation round-trip as in flight
type CouponApplying struct {
	Code string
}

// CouponApplied stores a gateway-validated coupon
type CouponApplied struct {
	Coupon AppliedCoupon
}

// CouponFailed records a rejected or failed coupon validation
type CouponFailed struct {
	Message string
}

// RemoveCoupon discards the applied coupon
type RemoveCoupon struct{}

// Reset restores a fresh aggregate, keeping the auth signal
type Reset struct{}

func (SetItems) Name() string                { return "set_items" }
func (SetBillingAddress) Name() string       { return "set_billing_address" }
func (SetShippingAddress) Name() string      { return "set_shipping_address" }
func (SetUseDifferentShipping) Name() string { return "set_use_different_shipping" }
func (SetInvoiceType) Name() string          { return "set_invoice_type" }
func (SetShippingMethod) Name() string       { return "set_shipping_method" }
func (SetAuthState) Name() string            { return "set_auth_state" }
func (SetPaymentMethod) Name() string        { return "set_payment_method" }
func (SetCardData) Name() string             { return "set_card_data" }
func (SetContractAccepted) Name() string     { return "set_contract_accepted" }
func (SetCreateAccount) Name() string        { return "set_create_account" }
func (GoToStep) Name() string                { return "go_to_step" }
func (CouponApplying) Name() string          { return "coupon_applying" }
func (CouponApplied) Name() string           { return "coupon_applied" }
func (CouponFailed) Name() string            { return "coupon_failed" }
func (RemoveCoupon) Name() string            { return "remove_coupon" }
func (Reset) Name() string                   { return "reset" }

// Apply dispatches a command against the aggregate
// Each transition is atomic: it either fully applies (ending with a
// totals recompute when state-affecting) or leaves the state untouched
func (s *State) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case SetItems:
		return s.applySetItems(c)
	case SetBillingAddress:
		return s.applySetBillingAddress(c)
	case SetShippingAddress:
		return s.applySetShippingAddress(c)
	case SetUseDifferentShipping:
		return s.applySetUseDifferentShipping(c)
	case SetInvoiceType:
		return s.applySetInvoiceType(c)
	case SetShippingMethod:
		return s.applySetShippingMethod(c)
	case SetAuthState:
		return s.applySetAuthState(c)
	case SetPaymentMethod:
		return s.applySetPaymentMethod(c)
	case SetCardData:
		s.CardData = &c.Card
		return nil
	case SetContractAccepted:
		return s.applySetContractAccepted(c)
	case SetCreateAccount:
		s.CreateAccount = c.Enabled
		return nil
	case GoToStep:
		return s.applyGoToStep(c)
	case CouponApplying:
		return s.applyCouponApplying(c)
	case CouponApplied:
		return s.applyCouponApplied(c)
	case CouponFailed:
		return s.applyCouponFailed(c)
	case RemoveCoupon:
		return s.applyRemoveCoupon()
	case Reset:
		s.applyReset()
		return nil
	default:
		return shared.NewDomainError("UNKNOWN_COMMAND", fmt.Sprintf("Unknown checkout command %T", cmd))
	}
}

// ValidateLineItems checks a line item payload without touching any
// state, so callers can reject it before side effects
func ValidateLineItems(items []LineItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Line item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Line item price cannot be negative")
		}
		key := item.ID.String()
		if _, dup := seen[key]; dup {
			return shared.NewDomainError("DUPLICATE_ITEM", "Line items must be unique by ID")
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (s *State) applySetItems(c SetItems) error {
	if err := ValidateLineItems(c.Items); err != nil {
		return err
	}
	s.Items = make([]LineItem, len(c.Items))
	copy(s.Items, c.Items)
	s.recalculateTotals()
	return nil
}

func (s *State) applySetBillingAddress(c SetBillingAddress) error {
	addr := c.Address
	s.BillingAddress = &addr
	if s.AuthState == AuthLoggedIn {
		s.AddressState = AddressNewEntered
	} else {
		s.AddressState = AddressGuestEntered
	}
	return nil
}

func (s *State) applySetShippingAddress(c SetShippingAddress) error {
	if !s.UseDifferentShipping {
		return shared.NewDomainError("SHIPPING_ADDRESS_DISABLED", "Separate shipping address is not enabled")
	}
	addr := c.Address
	s.ShippingAddress = &addr
	return nil
}

func (s *State) applySetUseDifferentShipping(c SetUseDifferentShipping) error {
	s.UseDifferentShipping = c.Enabled
	if !c.Enabled {
		// No partial state retained; re-enabling starts from a blank form
		s.ShippingAddress = nil
	}
	return nil
}

func (s *State) applySetInvoiceType(c SetInvoiceType) error {
	if !c.Type.IsValid() {
		return shared.NewDomainError("INVALID_INVOICE_TYPE", fmt.Sprintf("Unknown invoice type %q", c.Type))
	}
	s.InvoiceType = c.Type
	return nil
}

func (s *State) applySetShippingMethod(c SetShippingMethod) error {
	if !c.Method.IsValid() {
		return shared.NewDomainError("INVALID_SHIPPING_METHOD", fmt.Sprintf("Unknown shipping method %q", c.Method))
	}
	s.ShippingMethod = c.Method
	s.recalculateTotals()
	return nil
}

func (s *State) applySetAuthState(c SetAuthState) error {
	if !c.State.IsValid() {
		return shared.NewDomainError("INVALID_AUTH_STATE", fmt.Sprintf("Unknown auth state %q", c.State))
	}
	s.AuthState = c.State
	s.AddressState = addressStateFor(c.State)
	return nil
}

func (s *State) applySetPaymentMethod(c SetPaymentMethod) error {
	if !c.Method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", c.Method))
	}
	s.PaymentMethod = c.Method
	if !c.Method.RequiresCard() {
		s.CardData = nil
	}
	return nil
}

func (s *State) applySetContractAccepted(c SetContractAccepted) error {
	switch c.Contract {
	case ContractTerms:
		s.Contracts.TermsAccepted = c.Accepted
	case ContractDistanceSales:
		s.Contracts.DistanceSalesAccepted = c.Accepted
	default:
		return shared.NewDomainError("INVALID_CONTRACT", fmt.Sprintf("Unknown contract kind %q", c.Contract))
	}
	return nil
}

func (s *State) applyGoToStep(c GoToStep) error {
	if !c.Step.IsValid() {
		return shared.NewDomainError("INVALID_STEP", fmt.Sprintf("Unknown checkout step %d", c.Step))
	}
	if c.Step <= s.CurrentStep {
		s.CurrentStep = c.Step
		return nil
	}
	if !CanProceedToPayment(s) {
		return shared.NewDomainError("STEP_BLOCKED", "Address step must validate before proceeding to payment")
	}
	s.CurrentStep = c.Step
	return nil
}

func (s *State) applyCouponApplying(c CouponApplying) error {
	if c.Code == "" {
		return shared.NewDomainError("INVALID_COUPON_CODE", "Coupon code cannot be empty")
	}
	if !s.CouponStatus.CanTransitionTo(CouponStatusApplying) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply coupon in %s status", s.CouponStatus))
	}
	s.CouponStatus = CouponStatusApplying
	s.CouponError = ""
	return nil
}

func (s *State) applyCouponApplied(c CouponApplied) error {
	if !s.CouponStatus.CanTransitionTo(CouponStatusApplied) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot accept coupon result in %s status", s.CouponStatus))
	}
	coupon := c.Coupon
	s.CouponStatus = CouponStatusApplied
	s.AppliedCoupon = &coupon
	s.CouponError = ""
	s.recalculateTotals()
	return nil
}

func (s *State) applyCouponFailed(c CouponFailed) error {
	if !s.CouponStatus.CanTransitionTo(CouponInvalid) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject coupon in %s status", s.CouponStatus))
	}
	s.CouponStatus = CouponInvalid
	s.AppliedCoupon = nil
	s.CouponError = c.Message
	s.recalculateTotals()
	return nil
}

func (s *State) applyRemoveCoupon() error {
	if s.CouponStatus != CouponStatusApplied && s.CouponStatus != CouponInvalid {
		return shared.NewDomainError("INVALID_STATE", "No coupon to remove")
	}
	s.CouponStatus = CouponNone
	s.AppliedCoupon = nil
	s.CouponError = ""
	s.recalculateTotals()
	return nil
}

func (s *State) applyReset() {
	auth := s.AuthState
	fresh := NewState(s.pricing)
	fresh.AuthState = auth
	fresh.AddressState = addressStateFor(auth)
	*s = *fresh
}
