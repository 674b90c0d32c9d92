package workflow

import (
	"context"
	"sync"
	"time"

	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

type entry struct {
	state     models.WorkflowState
	expiresAt time.Time
}

// InMemoryStore keeps workflow state per user with a TTL.
type InMemoryStore struct {
	mu     sync.Mutex
	states map[id.UserID]entry
	ttl    time.Duration
	now    func() time.Time
}

func NewInMemory(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		states: make(map[id.UserID]entry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.WorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.current(userID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &st, nil
}

// Transition replaces the state only if the stored stage equals from. A
// missing state counts as StageUpload.
func (s *InMemoryStore) Transition(_ context.Context, userID id.UserID, from models.Stage, next models.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stage := models.StageUpload
	if st, ok := s.current(userID); ok {
		stage = st.Stage
	}
	if stage != from {
		return sentinel.ErrConflict
	}
	e := entry{state: next}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.states[userID] = e
	return nil
}

// current must be called with s.mu held.
func (s *InMemoryStore) current(userID id.UserID) (models.WorkflowState, bool) {
	e, ok := s.states[userID]
	if !ok {
		return models.WorkflowState{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.states, userID)
		return models.WorkflowState{}, false
	}
	return e.state, true
}
