package user

import (
	"context"
	"sync"

	"zkid/internal/auth/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in a map. Copies cross the boundary in both
// directions so callers cannot mutate stored rows.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[id.UserID]models.User
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[id.UserID]models.User)}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = *user
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemoryUserStore) MarkKYCComplete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.HasCompletedKYC = true
	s.users[userID] = u
	return nil
}
