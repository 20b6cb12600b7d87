package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appcheckout "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CheckoutHandler exposes the checkout flow over HTTP
// Every endpoint is scoped by the X-Session-ID and X-Cart-ID headers
type CheckoutHandler struct {
	BaseHandler
	service *appcheckout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(service *appcheckout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/checkout")
	{
		group.GET("/state", h.State)
		group.POST("/auth", h.ApplyAuthSignal)
		group.PUT("/billing-address", h.SetBillingAddress)
		group.PUT("/shipping-address", h.SetShippingAddress)
		group.PUT("/invoice-type", h.SetInvoiceType)
		group.PUT("/shipping-method", h.SetShippingMethod)
		group.PUT("/payment-method", h.SetPaymentMethod)
		group.PUT("/card", h.SetCard)
		group.PUT("/contracts", h.SetContract)
		group.PUT("/create-account", h.SetCreateAccount)
		group.POST("/step", h.GoToStep)
		group.POST("/coupon", h.ApplyCoupon)
		group.DELETE("/coupon", h.RemoveCoupon)
		group.POST("/submit", h.Submit)
		group.POST("/reset", h.Reset)
		group.DELETE("/session", h.Abandon)
	}
}

// sessionScope extracts the session and cart IDs; a missing or
// malformed header aborts the request with 400
func (h *CheckoutHandler) sessionScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	sessionID, err := getSessionID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	cartID, err := getCartID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return sessionID, cartID, true
}

// dispatch applies a command and renders the refreshed state
func (h *CheckoutHandler) dispatch(c *gin.Context, cmd checkout.Command) {
	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	state, err := h.service.Dispatch(c.Request.Context(), sessionID, cartID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// State returns the current checkout state, mirroring the latest cart
func (h *CheckoutHandler) State(c *gin.Context) {
	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	state, err := h.service.State(c.Request.Context(), sessionID, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// ApplyAuthSignal applies the resolved authentication signal to the
// session. The storefront calls this when the login state changes.
func (h *CheckoutHandler) ApplyAuthSignal(c *gin.Context) {
	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	signal := middleware.GetAuthSignal(c)
	state, err := h.service.SetAuthSignal(c.Request.Context(), sessionID, cartID, signal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// addressRequest carries address fields; values are accepted as-is and
// validated by the flow's own validation step, not at binding time
type addressRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	City        string `json:"city"`
	District    string `json:"district"`
	AddressLine string `json:"address_line"`
	TaxNumber   string `json:"tax_number"`
	TaxOffice   string `json:"tax_office"`
}

func (r addressRequest) toDomain() checkout.Address {
	return checkout.Address{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		Email:       r.Email,
		City:        r.City,
		District:    r.District,
		AddressLine: r.AddressLine,
		TaxNumber:   r.TaxNumber,
		TaxOffice:   r.TaxOffice,
	}
}

// SetBillingAddress replaces the billing address
func (h *CheckoutHandler) SetBillingAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetBillingAddress{Address: req.toDomain()})
}

// shippingAddressRequest toggles the separate shipping address and,
// when enabled, carries its fields
type shippingAddressRequest struct {
	Enabled bool            `json:"enabled"`
	Address *addressRequest `json:"address"`
}

// SetShippingAddress toggles and replaces the separate shipping address
func (h *CheckoutHandler) SetShippingAddress(c *gin.Context) {
	var req shippingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	state, err := h.service.Dispatch(ctx, sessionID, cartID, checkout.SetUseDifferentShipping{Enabled: req.Enabled})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Enabled && req.Address != nil {
		state, err = h.service.Dispatch(ctx, sessionID, cartID, checkout.SetShippingAddress{Address: req.Address.toDomain()})
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	h.Success(c, state)
}

type invoiceTypeRequest struct {
	Type string `json:"type" binding:"required,oneof=PERSON COMPANY"`
}

// SetInvoiceType switches between personal and corporate invoices
func (h *CheckoutHandler) SetInvoiceType(c *gin.Context) {
	var req invoiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetInvoiceType{Type: checkout.InvoiceType(req.Type)})
}

type shippingMethodRequest struct {
	Method string `json:"method" binding:"required,oneof=FREE STANDARD"`
}

// SetShippingMethod selects a shipping option; totals derivation may
// override the choice based on the subtotal threshold
func (h *CheckoutHandler) SetShippingMethod(c *gin.Context) {
	var req shippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetShippingMethod{Method: checkout.ShippingMethod(req.Method)})
}

type paymentMethodRequest struct {
	Method string `json:"method" binding:"required,oneof=CARD BANK_TRANSFER"`
}

// SetPaymentMethod selects the payment option
func (h *CheckoutHandler) SetPaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetPaymentMethod{Method: checkout.PaymentMethod(req.Method)})
}

type cardRequest struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// SetCard replaces the card details; they are validated by the flow's
// validation step and never echoed back
func (h *CheckoutHandler) SetCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetCardData{Card: checkout.CardData{
		HolderName:  req.HolderName,
		Number:      req.Number,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		CVV:         req.CVV,
	}})
}

type contractRequest struct {
	Contract string `json:"contract" binding:"required,oneof=TERMS DISTANCE_SALES"`
	Accepted bool   `json:"accepted"`
}

// SetContract records one contract-acceptance flag
func (h *CheckoutHandler) SetContract(c *gin.Context) {
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetContractAccepted{
		Contract: checkout.ContractKind(req.Contract),
		Accepted: req.Accepted,
	})
}

type createAccountRequest struct {
	Enabled bool `json:"enabled"`
}

// SetCreateAccount toggles the optional account-creation request
func (h *CheckoutHandler) SetCreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.SetCreateAccount{Enabled: req.Enabled})
}

type stepRequest struct {
	Step int `json:"step" binding:"required,oneof=1 2"`
}

// GoToStep navigates the flow; forward transitions require the
// current step to validate
func (h *CheckoutHandler) GoToStep(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, checkout.GoToStep{Step: checkout.Step(req.Step)})
}

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon validates a coupon against the gateway and applies it
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	result, err := h.service.ApplyCoupon(c.Request.Context(), sessionID, cartID, req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveCoupon removes the applied coupon
func (h *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	state, err := h.service.RemoveCoupon(c.Request.Context(), sessionID, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Submit submits the order; the outcome carries either the created
// order number or the rejection message alongside the refreshed state
func (h *CheckoutHandler) Submit(c *gin.Context) {
	sessionID, cartID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	result, err := h.service.SubmitOrder(c.Request.Context(), sessionID, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reset restores a fresh checkout state, keeping the auth signal
func (h *CheckoutHandler) Reset(c *gin.Context) {
	h.dispatch(c, checkout.Reset{})
}

// Abandon drops the checkout session entirely
func (h *CheckoutHandler) Abandon(c *gin.Context) {
	sessionID, err := getSessionID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.service.Abandon(c.Request.Context(), sessionID)
	h.NoContent(c)
}
