package checkout

import (
	"sync"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
)

// Session owns one checkout aggregate
// All access goes through the session mutex: there is exactly one
// logical writer per checkout session, and async operations release the
// lock for the duration of their network round-trip
type Session struct {
	ID     uuid.UUID
	CartID uuid.UUID

	mu    sync.Mutex
	state *checkout.State

	// couponSeq numbers coupon validation requests; a response is only
	// applied when its sequence still matches the latest issued request
	couponSeq uint64
}

// lock acquires the session's single-writer lock
func (s *Session) lock() *checkout.State {
	s.mu.Lock()
	return s.state
}

// unlock releases the session's single-writer lock
func (s *Session) unlock() {
	s.mu.Unlock()
}

// nextCouponSeq issues a new coupon request sequence number
// Must be called with the session lock held
func (s *Session) nextCouponSeq() uint64 {
	s.couponSeq++
	return s.couponSeq
}

// isLatestCoupon reports whether seq belongs to the most recently
// issued coupon request. Must be called with the session lock held
func (s *Session) isLatestCoupon(seq uint64) bool {
	return s.couponSeq == seq
}

// SessionManager tracks the active checkout sessions
// A session is created on first touch and dropped on completion or
// explicit abandonment
type SessionManager struct {
	mu       sync.RWMutex
	pricing  checkout.Pricing
	sessions map[uuid.UUID]*Session
}

// NewSessionManager creates a session manager with the given pricing rules
func NewSessionManager(pricing checkout.Pricing) *SessionManager {
	return &SessionManager{
		pricing:  pricing,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// GetOrCreate returns the session for the given ID, creating a fresh
// aggregate on first touch
func (m *SessionManager) GetOrCreate(sessionID, cartID uuid.UUID) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sessionID]; ok {
		return sess
	}
	sess = &Session{
		ID:     sessionID,
		CartID: cartID,
		state:  checkout.NewState(m.pricing),
	}
	m.sessions[sessionID] = sess
	return sess
}

// Get returns an existing session or ErrSessionNotFound
func (m *SessionManager) Get(sessionID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return sess, nil
}

// Drop removes a session, destroying its aggregate
func (m *SessionManager) Drop(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Count returns the number of active sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
