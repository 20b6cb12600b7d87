package checkout

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/checkout"
)

func TestSessionManager_GetOrCreate(t *testing.T) {
	m := NewSessionManager(checkout.DefaultPricing())
	sessionID := uuid.New()
	cartID := uuid.New()

	first := m.GetOrCreate(sessionID, cartID)
	second := m.GetOrCreate(sessionID, cartID)

	assert.Same(t, first, second)
	assert.Equal(t, 1, m.Count())
}

func TestSessionManager_GetOrCreate_Concurrent(t *testing.T) {
	m := NewSessionManager(checkout.DefaultPricing())
	sessionID := uuid.New()
	cartID := uuid.New()

	const n = 16
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = m.GetOrCreate(sessionID, cartID)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, 1, m.Count())
}

func TestSessionManager_Get(t *testing.T) {
	m := NewSessionManager(checkout.DefaultPricing())

	_, err := m.Get(uuid.New())
	require.Error(t, err)

	sessionID := uuid.New()
	created := m.GetOrCreate(sessionID, uuid.New())
	got, err := m.Get(sessionID)
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestSessionManager_Drop(t *testing.T) {
	m := NewSessionManager(checkout.DefaultPricing())
	sessionID := uuid.New()
	m.GetOrCreate(sessionID, uuid.New())

	m.Drop(sessionID)

	assert.Equal(t, 0, m.Count())
	_, err := m.Get(sessionID)
	assert.Error(t, err)
}

func TestSession_CouponSequence(t *testing.T) {
	m := NewSessionManager(checkout.DefaultPricing())
	sess := m.GetOrCreate(uuid.New(), uuid.New())

	first := sess.nextCouponSeq()
	second := sess.nextCouponSeq()

	assert.False(t, sess.isLatestCoupon(first))
	assert.True(t, sess.isLatestCoupon(second))
	assert.Greater(t, second, first)
}
