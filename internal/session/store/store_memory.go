package store

import (
	"context"
	"sync"
	"time"

	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

type walletEntry struct {
	address   string
	expiresAt time.Time
}

// InMemoryWalletStore holds connected wallets with a TTL. Expired entries are
// dropped lazily on read.
type InMemoryWalletStore struct {
	mu      sync.Mutex
	wallets map[id.UserID]walletEntry
	now     func() time.Time
}

func NewInMemoryWalletStore() *InMemoryWalletStore {
	return &InMemoryWalletStore{
		wallets: make(map[id.UserID]walletEntry),
		now:     time.Now,
	}
}

func (s *InMemoryWalletStore) Get(_ context.Context, userID id.UserID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.wallets[userID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.wallets, userID)
		return "", sentinel.ErrNotFound
	}
	return e.address, nil
}

// Set stores the wallet. A zero ttl never expires.
func (s *InMemoryWalletStore) Set(_ context.Context, userID id.UserID, address string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := walletEntry{address: address}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.wallets[userID] = e
	return nil
}

func (s *InMemoryWalletStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wallets, userID)
	return nil
}
