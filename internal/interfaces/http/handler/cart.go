package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appcheckout "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler exposes cart mutations that write through to the cart
// collaborator and re-mirror the checkout state
type CartHandler struct {
	BaseHandler
	service *appcheckout.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *appcheckout.Service) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/cart")
	{
		group.PUT("/items", h.ReplaceItems)
		group.POST("/sync", h.Sync)
	}
}

type lineItemRequest struct {
	ID            uuid.UUID       `json:"id" binding:"required"`
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	VariantID     *uuid.UUID      `json:"variant_id"`
	Title         string          `json:"title" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Quantity      int             `json:"quantity" binding:"required,min=1"`
}

type replaceItemsRequest struct {
	Items []lineItemRequest `json:"items" binding:"dive"`
}

// ReplaceItems replaces the cart's line items
func (h *CartHandler) ReplaceItems(c *gin.Context) {
	var req replaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sessionID, err := getSessionID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cartID, err := getCartID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]checkout.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		original := item.OriginalPrice
		if original.IsZero() {
			original = item.UnitPrice
		}
		items = append(items, checkout.LineItem{
			ID:            item.ID,
			ProductID:     item.ProductID,
			VariantID:     item.VariantID,
			Title:         item.Title,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: original,
			Quantity:      item.Quantity,
		})
	}

	state, err := h.service.ReplaceCartItems(c.Request.Context(), sessionID, cartID, items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Sync re-mirrors the externally-owned cart into the checkout state
func (h *CartHandler) Sync(c *gin.Context) {
	sessionID, err := getSessionID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	cartID, err := getCartID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	state, err := h.service.SyncCart(c.Request.Context(), sessionID, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}
