package records

import (
	"context"
	"sync"

	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

// InMemoryStore holds verification details and proof records. Writes made
// inside a tx.Local unit are not rolled back on failure.
type InMemoryStore struct {
	mu      sync.RWMutex
	details map[id.UserID]models.VerificationDetails
	proofs  map[id.UserID]models.ProofRecord
	byHash  map[string]id.UserID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		details: make(map[id.UserID]models.VerificationDetails),
		proofs:  make(map[id.UserID]models.ProofRecord),
		byHash:  make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) UpsertDetails(_ context.Context, d *models.VerificationDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	cp.ProofData = append([]byte(nil), d.ProofData...)
	s.details[d.UserID] = cp
	return nil
}

func (s *InMemoryStore) FindDetails(_ context.Context, userID id.UserID) (*models.VerificationDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.details[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

// UpsertProof replaces the user's proof. A hash already held by another
// user is a conflict.
func (s *InMemoryStore) UpsertProof(_ context.Context, r *models.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.byHash[r.ProofHash]; ok && owner != r.UserID {
		return sentinel.ErrConflict
	}
	if prev, ok := s.proofs[r.UserID]; ok {
		delete(s.byHash, prev.ProofHash)
	}
	s.proofs[r.UserID] = *r
	s.byHash[r.ProofHash] = r.UserID
	return nil
}

func (s *InMemoryStore) FindProofByUser(_ context.Context, userID id.UserID) (*models.ProofRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.proofs[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

func (s *InMemoryStore) FindProofByHash(_ context.Context, hash string) (*models.ProofRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byHash[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r := s.proofs[userID]
	return &r, nil
}
