// Package replay provides nonce stores for the payment gate's replay
// protection.
package replay

import (
	"sync"
	"time"

	x402 "github.com/polkax402/x402-go"
)

// InMemoryStore provides an in-memory implementation of ReplayGuard.
//
// This implementation is suitable for single-instance deployments where
// nonce state doesn't need to be shared across processes. For distributed
// deployments (load-balanced clusters, etc.), implement ReplayGuard with
// a shared backend like Redis.
type InMemoryStore struct {
	mu     sync.Mutex
	expiry map[string]time.Time
}

// NewInMemoryStore creates a new in-memory nonce store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		expiry: make(map[string]time.Time),
	}
}

// Reserve records the nonce until its expiry. It returns false when the
// nonce is already held and has not expired, meaning the claim was seen
// before and must be refused.
func (s *InMemoryStore) Reserve(nonce string, expiry time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if held, exists := s.expiry[nonce]; exists && now.Before(held) {
		return false
	}

	s.expiry[nonce] = expiry

	// Lazy cleanup of expired entries
	for key, held := range s.expiry {
		if now.After(held) {
			delete(s.expiry, key)
		}
	}
	return true
}

// Release gives a reserved nonce back. The gate calls it when a claim
// failed for server-side reasons (facilitator outage), so the same claim
// can be retried instead of tripping the reuse check.
func (s *InMemoryStore) Release(nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expiry, nonce)
}

// Len reports the number of nonces currently held, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

// Ensure InMemoryStore implements ReplayGuard
var _ x402.ReplayGuard = (*InMemoryStore)(nil)
