//go:build integration

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	authmodels "zkid/internal/auth/models"
	userstore "zkid/internal/auth/store/user"
	"zkid/internal/ocr"
	"zkid/internal/platform/database"
	"zkid/internal/platform/logger"
	"zkid/internal/session"
	"zkid/internal/verification/models"
	"zkid/internal/verification/store/records"
	"zkid/internal/verification/store/workflow"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/sentinel"
	"zkid/pkg/requestcontext"
	"zkid/pkg/testutil/containers"
)

// usersFailingAfterWrite applies the KYC flag, then fails, so the caller's
// transaction has something to roll back.
type usersFailingAfterWrite struct {
	*userstore.PostgresUserStore
}

func (u usersFailingAfterWrite) MarkKYCComplete(ctx context.Context, userID id.UserID) error {
	if err := u.PostgresUserStore.MarkKYCComplete(ctx, userID); err != nil {
		return err
	}
	return errors.New("connection reset")
}

// recordsFailingProof writes details normally and fails the proof upsert.
type recordsFailingProof struct {
	*records.PostgresStore
}

func (recordsFailingProof) UpsertProof(context.Context, *models.ProofRecord) error {
	return errors.New("disk full")
}

type SubmitProofPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	records  *records.PostgresStore
	users    *userstore.PostgresUserStore
	workflow *workflow.InMemoryStore
	ctx      context.Context
	sess     *session.Session
}

func TestSubmitProofPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SubmitProofPostgresSuite))
}

func (s *SubmitProofPostgresSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.records = records.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
}

func (s *SubmitProofPostgresSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "users", "verification_details", "proof_records"))
	s.workflow = workflow.NewInMemory(time.Hour)

	userID := id.UserID(uuid.New())
	user := &authmodels.User{ID: userID, Email: "ram@example.np", CreatedAt: time.Now()}
	s.Require().NoError(s.users.Create(s.ctx, user))
	s.sess = &session.Session{UserID: userID, Email: user.Email, User: user, WalletAddress: testWallet}

	data := ocr.Data{FullName: "Ram Thapa", DateOfBirth: "1988-07-14", Nationality: "Nepali"}
	s.Require().NoError(s.workflow.Transition(s.ctx, userID, models.StageUpload, models.WorkflowState{
		UserID: userID, Stage: models.StageVerified, Verified: &data, UpdatedAt: requestcontext.Now(s.ctx),
	}))
}

func (s *SubmitProofPostgresSuite) newService(recs RecordStore, users UserStore) *Service {
	return New(s.workflow, recs, users, database.NewPostgresTx(s.postgres.DB, 5*time.Second),
		ocr.NewStatic(logger.Discard()), logger.Discard())
}

func (s *SubmitProofPostgresSuite) requireNothingCommitted() {
	_, err := s.records.FindDetails(s.ctx, s.sess.UserID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.records.FindProofByUser(s.ctx, s.sess.UserID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	u, err := s.users.FindByID(s.ctx, s.sess.UserID)
	s.Require().NoError(err)
	s.False(u.HasCompletedKYC)

	st, err := s.workflow.Get(s.ctx, s.sess.UserID)
	s.Require().NoError(err)
	s.Equal(models.StageVerified, st.Stage)
}

func (s *SubmitProofPostgresSuite) TestCommitsAllWrites() {
	res, err := s.newService(s.records, s.users).SubmitProof(s.ctx, s.sess)
	s.Require().NoError(err)

	details, err := s.records.FindDetails(s.ctx, s.sess.UserID)
	s.Require().NoError(err)
	s.Equal(testWallet, details.WalletAddress)

	rec, err := s.records.FindProofByHash(s.ctx, res.ProofHash)
	s.Require().NoError(err)
	s.Equal(s.sess.UserID, rec.UserID)

	u, err := s.users.FindByID(s.ctx, s.sess.UserID)
	s.Require().NoError(err)
	s.True(u.HasCompletedKYC)
}

func (s *SubmitProofPostgresSuite) TestKYCFlagFailureRollsBack() {
	_, err := s.newService(s.records, usersFailingAfterWrite{s.users}).SubmitProof(s.ctx, s.sess)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.requireNothingCommitted()
}

func (s *SubmitProofPostgresSuite) TestProofFailureRollsBackDetailsAndFlag() {
	_, err := s.newService(recordsFailingProof{s.records}, s.users).SubmitProof(s.ctx, s.sess)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.requireNothingCommitted()
}
