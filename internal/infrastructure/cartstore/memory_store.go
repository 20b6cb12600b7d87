package cartstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/checkout"
)

// MemoryStore is an in-memory cart store for single-instance
// deployments and tests
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[uuid.UUID][]checkout.LineItem
}

// NewMemoryStore creates an in-memory cart store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[uuid.UUID][]checkout.LineItem),
	}
}

// Items loads the cart's line items; a missing cart is an empty cart
func (s *MemoryStore) Items(ctx context.Context, cartID uuid.UUID) ([]checkout.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.carts[cartID]
	if !ok {
		return nil, nil
	}
	items := make([]checkout.LineItem, len(stored))
	copy(items, stored)
	return items, nil
}

// SetItems replaces the cart's line items
func (s *MemoryStore) SetItems(ctx context.Context, cartID uuid.UUID, items []checkout.LineItem) error {
	stored := make([]checkout.LineItem, len(items))
	copy(stored, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cartID] = stored
	return nil
}

// Clear removes the cart entirely
func (s *MemoryStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}

// Ensure MemoryStore implements the cart collaborator port
var _ checkout.CartStore = (*MemoryStore)(nil)
