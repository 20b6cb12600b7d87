package cartstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/checkout"
)

func testItems() []checkout.LineItem {
	return []checkout.LineItem{{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		Title:         "Test Product",
		UnitPrice:     decimal.NewFromInt(100),
		OriginalPrice: decimal.NewFromInt(120),
		Quantity:      2,
	}}
}

func TestMemoryStore_MissingCartIsEmpty(t *testing.T) {
	store := NewMemoryStore()

	items, err := store.Items(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cartID := uuid.New()
	want := testItems()

	require.NoError(t, store.SetItems(ctx, cartID, want))

	got, err := store.Items(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cartID := uuid.New()
	require.NoError(t, store.SetItems(ctx, cartID, testItems()))

	first, err := store.Items(ctx, cartID)
	require.NoError(t, err)
	first[0].Quantity = 99

	second, err := store.Items(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, 2, second[0].Quantity)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cartID := uuid.New()
	require.NoError(t, store.SetItems(ctx, cartID, testItems()))

	require.NoError(t, store.Clear(ctx, cartID))

	items, err := store.Items(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
