package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"zkid/internal/auth/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
	ctx   context.Context
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func newUser() *models.User {
	return &models.User{
		ID:        id.UserID(uuid.New()),
		Email:     "hari@example.np",
		CreatedAt: time.Now(),
	}
}

func (s *InMemoryUserStoreSuite) TestCreateAndFind() {
	u := newUser()
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u, found)

	s.Run("duplicate create conflicts", func() {
		s.ErrorIs(s.store.Create(s.ctx, u), sentinel.ErrConflict)
	})

	s.Run("missing user", func() {
		_, err := s.store.FindByID(s.ctx, id.UserID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned copy is detached", func() {
		found.HasCompletedKYC = true
		again, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.False(again.HasCompletedKYC)
	})
}

func (s *InMemoryUserStoreSuite) TestMarkKYCComplete() {
	u := newUser()
	s.Require().NoError(s.store.Create(s.ctx, u))

	s.Require().NoError(s.store.MarkKYCComplete(s.ctx, u.ID))
	// idempotent
	s.Require().NoError(s.store.MarkKYCComplete(s.ctx, u.ID))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.True(found.HasCompletedKYC)

	s.ErrorIs(s.store.MarkKYCComplete(s.ctx, id.UserID(uuid.New())), sentinel.ErrNotFound)
}
