package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// genericGatewayMessage is shown for transport-level failures; the
// recovery action (retry) is the same as for application rejections,
// so no further distinction is surfaced
const genericGatewayMessage = "An error occurred, please try again"

// Service orchestrates the checkout flow for all active sessions
// Synchronous transitions go straight to the aggregate; the two async
// operations (coupon application, order submission) release the session
// lock for their gateway round-trip and reconcile afterwards
type Service struct {
	sessions *SessionManager
	coupons  checkout.CouponGateway
	orders   checkout.OrderGateway
	carts    checkout.CartStore
	logger   *zap.Logger
}

// NewService creates a checkout service
func NewService(sessions *SessionManager, coupons checkout.CouponGateway, orders checkout.OrderGateway, carts checkout.CartStore, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		coupons:  coupons,
		orders:   orders,
		carts:    carts,
		logger:   logger,
	}
}

// log returns the request-scoped logger when the transport attached
// one to the context, falling back to the service logger
func (s *Service) log(ctx context.Context) *zap.Logger {
	if _, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); ok {
		return logger.FromContext(ctx)
	}
	return s.logger
}

// State returns the current aggregate view, mirroring the cart
// collaborator's line items in first
func (s *Service) State(ctx context.Context, sessionID, cartID uuid.UUID) (*StateResponse, error) {
	sess := s.sessions.GetOrCreate(sessionID, cartID)
	if err := s.syncCart(ctx, sess); err != nil {
		return nil, err
	}

	state := sess.lock()
	defer sess.unlock()
	resp := toStateResponse(sess, state)
	return &resp, nil
}

// Dispatch applies a synchronous transition to the session's aggregate
func (s *Service) Dispatch(ctx context.Context, sessionID, cartID uuid.UUID, cmd checkout.Command) (*StateResponse, error) {
	sess := s.sessions.GetOrCreate(sessionID, cartID)

	state := sess.lock()
	defer sess.unlock()
	if err := state.Apply(cmd); err != nil {
		return nil, err
	}
	resp := toStateResponse(sess, state)
	return &resp, nil
}

// SyncCart re-mirrors the cart collaborator's items into the aggregate
// Called whenever the cart contents change
func (s *Service) SyncCart(ctx context.Context, sessionID, cartID uuid.UUID) (*StateResponse, error) {
	sess := s.sessions.GetOrCreate(sessionID, cartID)
	if err := s.syncCart(ctx, sess); err != nil {
		return nil, err
	}

	state := sess.lock()
	defer sess.unlock()
	resp := toStateResponse(sess, state)
	return &resp, nil
}

// ReplaceCartItems writes the new line items through to the cart
// collaborator and mirrors them into the aggregate. Line validation
// runs first so a rejected payload never reaches the store, and the
// aggregate is only mirrored after the write-through succeeds: the
// store owns the cart, the aggregate never runs ahead of it.
func (s *Service) ReplaceCartItems(ctx context.Context, sessionID, cartID uuid.UUID, items []checkout.LineItem) (*StateResponse, error) {
	sess := s.sessions.GetOrCreate(sessionID, cartID)

	if err := checkout.ValidateLineItems(items); err != nil {
		return nil, err
	}
	if err := s.carts.SetItems(ctx, sess.CartID, items); err != nil {
		return nil, err
	}

	state := sess.lock()
	defer sess.unlock()
	if err := state.Apply(checkout.SetItems{Items: items}); err != nil {
		return nil, err
	}
	resp := toStateResponse(sess, state)
	return &resp, nil
}

func (s *Service) syncCart(ctx context.Context, sess *Session) error {
	items, err := s.carts.Items(ctx, sess.CartID)
	if err != nil {
		return err
	}

	state := sess.lock()
	defer sess.unlock()
	return state.Apply(checkout.SetItems{Items: items})
}

// SetAuthSignal applies the external authentication signal
func (s *Service) SetAuthSignal(ctx context.Context, sessionID, cartID uuid.UUID, signal checkout.AuthSignal) (*StateResponse, error) {
	return s.Dispatch(ctx, sessionID, cartID, checkout.SetAuthState{State: signal.State()})
}

// ApplyCoupon validates a coupon code against the coupon gateway
// Only the most recently issued request may settle the coupon state;
// responses that lost the race are discarded. The returned result is
// always settled: gateway and transport failures surface as a
// user-facing message, never as an error
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, cartID uuid.UUID, code string) (*CouponResult, error) {
	sess := s.sessions.GetOrCreate(sessionID, cartID)

	state := sess.lock()
	if err := state.Apply(checkout.CouponApplying{Code: code}); err != nil {
		sess.unlock()
		return nil, err
	}
	seq := sess.nextCouponSeq()
	// The gateway computes the discount against the subtotal it was
	// given; snapshot it at request time
	subtotal := state.Totals.Subtotal
	sess.unlock()

	coupon, gatewayErr := s.coupons.Validate(ctx, code, subtotal)

	state = sess.lock()
	defer sess.unlock()

	if !sess.isLatestCoupon(seq) {
		s.log(ctx).Debug("Discarding superseded coupon response",
			zap.String("session_id", sess.ID.String()),
			zap.String("code", code),
			zap.Uint64("seq", seq),
		)
		resp := toStateResponse(sess, state)
		return &CouponResult{Superseded: true, State: resp}, nil
	}

	if gatewayErr != nil {
		message := userFacingMessage(gatewayErr)
		if err := state.Apply(checkout.CouponFailed{Message: message}); err != nil {
			return nil, err
		}
		s.log(ctx).Info("Coupon rejected",
			zap.String("session_id", sess.ID.String()),
			zap.String("code", code),
			zap.Error(gatewayErr),
		)
		resp := toStateResponse(sess, state)
		return &CouponResult{Applied: false, Error: message, State: resp}, nil
	}

	if err := state.Apply(checkout.CouponApplied{Coupon: *coupon}); err != nil {
		return nil, err
	}
	resp := toStateResponse(sess, state)
	return &CouponResult{Applied: true, State: resp}, nil
}

// RemoveCoupon discards the applied coupon
func (s *Service) RemoveCoupon(ctx context.Context, sessionID, cartID uuid.UUID) (*StateResponse, error) {
	return s.Dispatch(ctx, sessionID, cartID, checkout.RemoveCoupon{})
}

// SubmitOrder serializes the aggregate and submits it to the order
// gateway. On failure the aggregate is left untouched apart from the
// general error slot, so the user can retry; on success the cart is
// cleared (only after gateway confirmation) and the aggregate reset.
// The in-flight flag is cleared on every path
func (s *Service) SubmitOrder(ctx context.Context, sessionID, cartID uuid.UUID) (*SubmitResult, error) {
	sess := s.sessions.GetOrCreate(sessionID, cartID)

	state := sess.lock()
	if !checkout.CanSubmitOrder(state) {
		sess.unlock()
		return nil, errSubmitBlocked(state)
	}
	if err := state.BeginSubmit(); err != nil {
		sess.unlock()
		return nil, err
	}
	req := checkout.BuildOrderRequest(state)
	sess.unlock()

	orderNumber, gatewayErr := s.orders.Create(ctx, req)

	state = sess.lock()
	defer sess.unlock()

	if gatewayErr != nil {
		message := userFacingMessage(gatewayErr)
		state.FailSubmit(message)
		s.log(ctx).Warn("Order submission failed",
			zap.String("session_id", sess.ID.String()),
			zap.Error(gatewayErr),
		)
		resp := toStateResponse(sess, state)
		return &SubmitResult{Success: false, Error: message, State: resp}, nil
	}

	state.CompleteSubmit()

	// The order is confirmed; losing the cart is now safe. A failed
	// clear is logged, not surfaced, since the order already exists
	if err := s.carts.Clear(ctx, sess.CartID); err != nil {
		s.log(ctx).Error("Failed to clear cart after order creation",
			zap.String("session_id", sess.ID.String()),
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)
	}

	if err := state.Apply(checkout.Reset{}); err != nil {
		return nil, err
	}

	s.log(ctx).Info("Order created",
		zap.String("session_id", sess.ID.String()),
		zap.String("order_number", orderNumber),
	)
	resp := toStateResponse(sess, state)
	return &SubmitResult{Success: true, OrderNumber: orderNumber, State: resp}, nil
}

// Abandon drops the session, destroying its aggregate
func (s *Service) Abandon(ctx context.Context, sessionID uuid.UUID) {
	s.sessions.Drop(sessionID)
}

// errSubmitBlocked builds the validation error for a blocked submission
func errSubmitBlocked(state *checkout.State) error {
	step1 := checkout.ValidateStep1(state)
	step2 := checkout.ValidateStep2(state)
	switch {
	case !state.HasItems():
		return shared.NewDomainError("SUBMIT_BLOCKED", "Cannot submit an empty cart")
	case state.IsSubmitting:
		return shared.NewDomainError("SUBMIT_BLOCKED", "A submission is already in flight")
	case !step1.Valid:
		return shared.NewDomainError("SUBMIT_BLOCKED", "Address step is incomplete")
	case !step2.Valid:
		return shared.NewDomainError("SUBMIT_BLOCKED", "Payment step is incomplete")
	default:
		return shared.NewDomainError("SUBMIT_BLOCKED", "Checkout is not ready for submission")
	}
}

// userFacingMessage maps a gateway error to the message shown to the
// user: application rejections keep the gateway's wording, transport
// failures collapse to a generic retryable message
func userFacingMessage(err error) string {
	var gatewayErr *checkout.GatewayError
	if errors.As(err, &gatewayErr) && gatewayErr.Message != "" {
		return gatewayErr.Message
	}
	return genericGatewayMessage
}
