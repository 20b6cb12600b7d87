package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayError carries a user-facing rejection message returned by an
// external gateway; transport failures are plain errors and collapse to
// a generic message at the application layer
type GatewayError struct {
	Message string
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return e.Message
}

// CouponGateway validates coupon codes against a subtotal
// The gateway owns all discount business rules; implementations return
// the coupon with its computed discount, or an error carrying the
// gateway's rejection message
type CouponGateway interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*AppliedCoupon, error)
}

// OrderGateway persists a submitted order
// Returns the created order number, or an error for any rejection;
// transport failures and application rejections are not distinguished
type OrderGateway interface {
	Create(ctx context.Context, req OrderRequest) (string, error)
}

// CartStore is the externally-owned cart collaborator
// The checkout core mirrors Items into the aggregate and calls Clear
// exactly once after a confirmed order; it never partially mutates
// the cart
type CartStore interface {
	Items(ctx context.Context, cartID uuid.UUID) ([]LineItem, error)
	SetItems(ctx context.Context, cartID uuid.UUID, items []LineItem) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// UserInfo is the user portion of the external authentication signal
type UserInfo struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
	Role  string    `json:"role"`
}

// AuthSignal is the authentication signal consumed by the checkout core
type AuthSignal struct {
	IsAuthenticated bool      `json:"is_authenticated"`
	User            *UserInfo `json:"user,omitempty"`
}

// State maps the signal to the aggregate's auth state
func (a AuthSignal) State() AuthState {
	if a.IsAuthenticated {
		return AuthLoggedIn
	}
	return AuthGuest
}

// OrderItem is one line of the order-creation payload
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// OrderRequest is the full serialized checkout aggregate sent to the
// order gateway; the shipping address falls back to billing when no
// separate one is in use
type OrderRequest struct {
	Items           []OrderItem    `json:"items"`
	BillingAddress  Address        `json:"billing_address"`
	ShippingAddress Address        `json:"shipping_address"`
	InvoiceType     InvoiceType    `json:"invoice_type"`
	ShippingMethod  ShippingMethod `json:"shipping_method"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	Card            *CardData      `json:"card,omitempty"`
	CouponCode      string         `json:"coupon_code,omitempty"`
	Totals          Totals         `json:"totals"`
	CreateAccount   bool           `json:"create_account"`
}

// BuildOrderRequest serializes the aggregate into an order-creation
// payload snapshot
func BuildOrderRequest(s *State) OrderRequest {
	items := make([]OrderItem, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	var billing, shipping Address
	if s.BillingAddress != nil {
		billing = *s.BillingAddress
	}
	if resolved := s.ResolvedShippingAddress(); resolved != nil {
		shipping = *resolved
	}

	return OrderRequest{
		Items:           items,
		BillingAddress:  billing,
		ShippingAddress: shipping,
		InvoiceType:     s.InvoiceType,
		ShippingMethod:  s.ShippingMethod,
		PaymentMethod:   s.PaymentMethod,
		Card:            s.CardData,
		CouponCode:      s.CouponCode(),
		Totals:          s.Totals,
		CreateAccount:   s.CreateAccount,
	}
}
