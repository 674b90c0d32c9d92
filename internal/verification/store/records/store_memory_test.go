package records

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

type InMemoryRecordsSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryRecordsSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRecordsSuite))
}

func (s *InMemoryRecordsSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func proofFor(userID id.UserID, hashChar string) *models.ProofRecord {
	return &models.ProofRecord{
		UserID:        userID,
		FullName:      "Gita Rai",
		DateOfBirth:   "1995-06-01",
		Nationality:   "Nepali",
		ProofHash:     strings.Repeat(hashChar, 64),
		WalletAddress: "wallet",
		IsVerified:    true,
		CreatedAt:     time.Now(),
	}
}

func (s *InMemoryRecordsSuite) TestDetailsUpsertKeepsOneRow() {
	userID := id.UserID(uuid.New())
	d := &models.VerificationDetails{UserID: userID, FullName: "A", VerifiedAt: time.Now(), ProofData: json.RawMessage(`{}`)}
	s.Require().NoError(s.store.UpsertDetails(s.ctx, d))
	d.FullName = "B"
	s.Require().NoError(s.store.UpsertDetails(s.ctx, d))

	got, err := s.store.FindDetails(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal("B", got.FullName)
	s.Len(s.store.details, 1)

	_, err = s.store.FindDetails(s.ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryRecordsSuite) TestProofUpsertReindexesHash() {
	userID := id.UserID(uuid.New())
	s.Require().NoError(s.store.UpsertProof(s.ctx, proofFor(userID, "a")))
	s.Require().NoError(s.store.UpsertProof(s.ctx, proofFor(userID, "b")))

	_, err := s.store.FindProofByHash(s.ctx, strings.Repeat("a", 64))
	s.ErrorIs(err, sentinel.ErrNotFound)

	got, err := s.store.FindProofByHash(s.ctx, strings.Repeat("b", 64))
	s.Require().NoError(err)
	s.Equal(userID, got.UserID)

	byUser, err := s.store.FindProofByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(got.ProofHash, byUser.ProofHash)
}

func (s *InMemoryRecordsSuite) TestProofHashIsUniqueAcrossUsers() {
	s.Require().NoError(s.store.UpsertProof(s.ctx, proofFor(id.UserID(uuid.New()), "c")))
	s.ErrorIs(s.store.UpsertProof(s.ctx, proofFor(id.UserID(uuid.New()), "c")), sentinel.ErrConflict)
}
