package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// ============================================
// Fakes
// ============================================

type fakeCouponGateway struct {
	mu         sync.Mutex
	calls      int
	validateFn func(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error)
}

func (f *fakeCouponGateway) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
	f.mu.Lock()
	f.calls++
	fn := f.validateFn
	f.mu.Unlock()
	return fn(ctx, code, subtotal)
}

func (f *fakeCouponGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeOrderGateway struct {
	mu       sync.Mutex
	calls    int
	createFn func(ctx context.Context, req checkout.OrderRequest) (string, error)
	lastReq  checkout.OrderRequest
}

func (f *fakeOrderGateway) Create(ctx context.Context, req checkout.OrderRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	fn := f.createFn
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeOrderGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCartStore struct {
	mu     sync.Mutex
	items  map[uuid.UUID][]checkout.LineItem
	clears int
	setErr error
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{items: make(map[uuid.UUID][]checkout.LineItem)}
}

func (f *fakeCartStore) Items(ctx context.Context, cartID uuid.UUID) ([]checkout.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[cartID], nil
}

func (f *fakeCartStore) SetItems(ctx context.Context, cartID uuid.UUID, items []checkout.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.items[cartID] = items
	return nil
}

func (f *fakeCartStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, cartID)
	f.clears++
	return nil
}

func (f *fakeCartStore) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

// ============================================
// Test setup helpers
// ============================================

type testEnv struct {
	service   *Service
	coupons   *fakeCouponGateway
	orders    *fakeOrderGateway
	carts     *fakeCartStore
	sessionID uuid.UUID
	cartID    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	coupons := &fakeCouponGateway{
		validateFn: func(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
			return &checkout.AppliedCoupon{Code: code, CalculatedDiscount: decimal.NewFromInt(20)}, nil
		},
	}
	orders := &fakeOrderGateway{
		createFn: func(ctx context.Context, req checkout.OrderRequest) (string, error) {
			return "ORD-2026-0001", nil
		},
	}
	carts := newFakeCartStore()
	service := NewService(NewSessionManager(checkout.DefaultPricing()), coupons, orders, carts, zap.NewNop())
	return &testEnv{
		service:   service,
		coupons:   coupons,
		orders:    orders,
		carts:     carts,
		sessionID: uuid.New(),
		cartID:    uuid.New(),
	}
}

func testItem(price float64, quantity int) checkout.LineItem {
	return checkout.LineItem{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		Title:         "Test Product",
		UnitPrice:     decimal.NewFromFloat(price),
		OriginalPrice: decimal.NewFromFloat(price),
		Quantity:      quantity,
	}
}

func testAddress() checkout.Address {
	return checkout.Address{
		FirstName:   "Ayşe",
		LastName:    "Yılmaz",
		Phone:       "05321234567",
		Email:       "ayse@example.com",
		City:        "İstanbul",
		District:    "Kadıköy",
		AddressLine: "Moda Cad. No:12 D:3",
	}
}

// fillSubmittable brings the session to a state where CanSubmitOrder holds
func (e *testEnv) fillSubmittable(t *testing.T, ctx context.Context) {
	t.Helper()
	require.NoError(t, e.carts.SetItems(ctx, e.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := e.service.SyncCart(ctx, e.sessionID, e.cartID)
	require.NoError(t, err)

	dispatch := func(cmd checkout.Command) {
		_, err := e.service.Dispatch(ctx, e.sessionID, e.cartID, cmd)
		require.NoError(t, err)
	}
	dispatch(checkout.SetBillingAddress{Address: testAddress()})
	dispatch(checkout.SetPaymentMethod{Method: checkout.PaymentBankTransfer})
	dispatch(checkout.SetContractAccepted{Contract: checkout.ContractTerms, Accepted: true})
	dispatch(checkout.SetContractAccepted{Contract: checkout.ContractDistanceSales, Accepted: true})
}

// ============================================
// State / Cart Mirroring Tests
// ============================================

func TestService_State_MirrorsCartItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))

	resp, err := env.service.State(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "200.00 TRY", resp.Totals.Subtotal.String())
	assert.Equal(t, "300.00 TRY", resp.Totals.GrandTotal.String())
}

func TestService_SyncCart_ReflectsCartChanges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(2500, 1)}))
	resp, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	assert.Equal(t, "2500.00 TRY", resp.Totals.Subtotal.String())
	assert.Equal(t, "0.00 TRY", resp.Totals.Shipping.String())
	assert.Equal(t, string(checkout.ShippingFree), resp.ShippingMethod)
}

func TestService_ReplaceCartItems_RejectedPayloadNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.service.ReplaceCartItems(ctx, env.sessionID, env.cartID, []checkout.LineItem{testItem(100, 0)})
	require.Error(t, err)

	stored, err := env.carts.Items(ctx, env.cartID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_ReplaceCartItems_StoreFailureLeavesAggregateUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.service.ReplaceCartItems(ctx, env.sessionID, env.cartID, []checkout.LineItem{testItem(100, 2)})
	require.NoError(t, err)

	env.carts.mu.Lock()
	env.carts.setErr = errors.New("redis: connection refused")
	env.carts.mu.Unlock()

	_, err = env.service.ReplaceCartItems(ctx, env.sessionID, env.cartID, []checkout.LineItem{testItem(500, 1)})
	require.Error(t, err)

	// The store owns the cart; a failed write-through must not leave the
	// aggregate mirroring items the store never accepted
	env.carts.mu.Lock()
	env.carts.setErr = nil
	env.carts.mu.Unlock()

	resp, err := env.service.State(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "200.00 TRY", resp.Totals.Subtotal.String())
}

// ============================================
// Coupon Tests
// ============================================

func TestService_ApplyCoupon_Success(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	result, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SAVE10")
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, string(checkout.CouponStatusApplied), result.State.CouponStatus)
	assert.Equal(t, "20.00 TRY", result.State.Totals.Discount.String())
	assert.Equal(t, "280.00 TRY", result.State.Totals.GrandTotal.String())
}

func TestService_ApplyCoupon_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	first, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SAVE10")
	require.NoError(t, err)
	second, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, first.State.Totals.Discount, second.State.Totals.Discount)
	assert.Equal(t, 2, env.coupons.callCount())
}

func TestService_ApplyCoupon_GatewayRejection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.coupons.validateFn = func(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
		return nil, &checkout.GatewayError{Message: "Coupon has expired"}
	}

	result, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "EXPIRED")
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, "Coupon has expired", result.Error)
	assert.Equal(t, string(checkout.CouponInvalid), result.State.CouponStatus)
	assert.Equal(t, "0.00 TRY", result.State.Totals.Discount.String())
}

func TestService_ApplyCoupon_TransportErrorIsGeneric(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.coupons.validateFn = func(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	result, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SAVE10")
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, genericGatewayMessage, result.Error)
	assert.Equal(t, string(checkout.CouponInvalid), result.State.CouponStatus)
}

func TestService_ApplyCoupon_StaleResponseDiscarded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	slowGate := make(chan struct{})
	env.coupons.validateFn = func(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
		if code == "SLOW" {
			<-slowGate
			return &checkout.AppliedCoupon{Code: code, CalculatedDiscount: decimal.NewFromInt(10)}, nil
		}
		return &checkout.AppliedCoupon{Code: code, CalculatedDiscount: decimal.NewFromInt(30)}, nil
	}

	slowDone := make(chan *CouponResult, 1)
	go func() {
		result, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SLOW")
		require.NoError(t, err)
		slowDone <- result
	}()

	// Wait until the slow request is in flight before superseding it
	require.Eventually(t, func() bool { return env.coupons.callCount() == 1 }, waitFor, tick)

	fast, err := env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "FAST")
	require.NoError(t, err)
	require.True(t, fast.Applied)

	close(slowGate)
	slow := <-slowDone

	// The slow response lost the race and must not overwrite the fast one
	assert.True(t, slow.Superseded)
	assert.False(t, slow.Applied)

	resp, err := env.service.State(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)
	assert.Equal(t, "30.00 TRY", resp.Totals.Discount.String())
	require.NotNil(t, resp.Coupon)
	assert.Equal(t, "FAST", resp.Coupon.Code)
}

func TestService_ApplyCoupon_SubtotalSnapshotAtRequestTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	var seen decimal.Decimal
	env.coupons.validateFn = func(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.AppliedCoupon, error) {
		seen = subtotal
		return &checkout.AppliedCoupon{Code: code, CalculatedDiscount: decimal.NewFromInt(20)}, nil
	}

	_, err = env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SAVE10")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(seen))
}

func TestService_RemoveCoupon(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.carts.SetItems(ctx, env.cartID, []checkout.LineItem{testItem(100, 2)}))
	_, err := env.service.SyncCart(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)
	_, err = env.service.ApplyCoupon(ctx, env.sessionID, env.cartID, "SAVE10")
	require.NoError(t, err)

	resp, err := env.service.RemoveCoupon(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	assert.Equal(t, string(checkout.CouponNone), resp.CouponStatus)
	assert.Nil(t, resp.Coupon)
	assert.Equal(t, "300.00 TRY", resp.Totals.GrandTotal.String())
}

// ============================================
// Submission Tests
// ============================================

func TestService_SubmitOrder_Success(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fillSubmittable(t, ctx)

	result, err := env.service.SubmitOrder(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "ORD-2026-0001", result.OrderNumber)
	assert.False(t, result.State.IsSubmitting)
	// Aggregate reset after completion
	assert.Empty(t, result.State.Items)
	assert.Nil(t, result.State.BillingAddress)
	// Cart cleared exactly once, only after gateway confirmation
	assert.Equal(t, 1, env.carts.clearCount())
}

func TestService_SubmitOrder_FailureLeavesStateIntact(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fillSubmittable(t, ctx)
	env.orders.createFn = func(ctx context.Context, req checkout.OrderRequest) (string, error) {
		return "", &checkout.GatewayError{Message: "Payment declined"}
	}

	before, err := env.service.State(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	result, err := env.service.SubmitOrder(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Payment declined", result.Error)
	assert.Equal(t, "Payment declined", result.State.Errors["general"])
	assert.False(t, result.State.IsSubmitting)

	// Items, addresses and totals are untouched for a retry
	assert.Equal(t, before.Items, result.State.Items)
	assert.Equal(t, before.BillingAddress, result.State.BillingAddress)
	assert.Equal(t, before.Totals, result.State.Totals)
	assert.Equal(t, 0, env.carts.clearCount())

	// Retry succeeds with the same state
	env.orders.createFn = func(ctx context.Context, req checkout.OrderRequest) (string, error) {
		return "ORD-2026-0002", nil
	}
	retry, err := env.service.SubmitOrder(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)
	assert.True(t, retry.Success)
	assert.Equal(t, "ORD-2026-0002", retry.OrderNumber)
}

func TestService_SubmitOrder_TransportErrorIsGeneric(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fillSubmittable(t, ctx)
	env.orders.createFn = func(ctx context.Context, req checkout.OrderRequest) (string, error) {
		return "", errors.New("context deadline exceeded")
	}

	result, err := env.service.SubmitOrder(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, genericGatewayMessage, result.Error)
	assert.False(t, result.State.IsSubmitting)
}

func TestService_SubmitOrder_EmptyCartNeverReachesGateway(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.service.SubmitOrder(ctx, env.sessionID, env.cartID)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "SUBMIT_BLOCKED", domainErr.Code)
	assert.Equal(t, 0, env.orders.callCount())
}

func TestService_SubmitOrder_PayloadShippingFallsBackToBilling(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fillSubmittable(t, ctx)

	_, err := env.service.SubmitOrder(ctx, env.sessionID, env.cartID)
	require.NoError(t, err)

	req := env.orders.lastReq
	assert.Equal(t, testAddress().FirstName, req.BillingAddress.FirstName)
	assert.Equal(t, req.BillingAddress, req.ShippingAddress)
	assert.Len(t, req.Items, 1)
	assert.True(t, decimal.NewFromInt(300).Equal(req.Totals.GrandTotal))
}
