package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

type InMemoryWorkflowSuite struct {
	suite.Suite
	store  *InMemoryStore
	userID id.UserID
	ctx    context.Context
}

func TestInMemoryWorkflowSuite(t *testing.T) {
	suite.Run(t, new(InMemoryWorkflowSuite))
}

func (s *InMemoryWorkflowSuite) SetupTest() {
	s.store = NewInMemory(time.Hour)
	s.userID = id.UserID(uuid.New())
	s.ctx = context.Background()
}

func (s *InMemoryWorkflowSuite) TestMissingStateIsUpload() {
	_, err := s.store.Get(s.ctx, s.userID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	next := models.WorkflowState{UserID: s.userID, Stage: models.StageProcessing}
	s.Require().NoError(s.store.Transition(s.ctx, s.userID, models.StageUpload, next))

	got, err := s.store.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(models.StageProcessing, got.Stage)
}

func (s *InMemoryWorkflowSuite) TestWrongFromStageConflicts() {
	next := models.WorkflowState{UserID: s.userID, Stage: models.StageVerified}
	s.ErrorIs(s.store.Transition(s.ctx, s.userID, models.StageProcessing, next), sentinel.ErrConflict)
}

func (s *InMemoryWorkflowSuite) TestConcurrentUploadsOneWins() {
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			next := models.WorkflowState{UserID: s.userID, Stage: models.StageProcessing}
			if s.store.Transition(s.ctx, s.userID, models.StageUpload, next) == nil {
				wins.Add(1)
			}
		})
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *InMemoryWorkflowSuite) TestExpiry() {
	now := time.Now()
	s.store.now = func() time.Time { return now }
	s.Require().NoError(s.store.Transition(s.ctx, s.userID, models.StageUpload,
		models.WorkflowState{UserID: s.userID, Stage: models.StageVerified}))

	now = now.Add(2 * time.Hour)
	_, err := s.store.Get(s.ctx, s.userID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
