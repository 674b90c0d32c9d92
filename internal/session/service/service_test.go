package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"zkid/internal/audit"
	auditstore "zkid/internal/audit/store"
	"zkid/internal/platform/logger"
	sessionstore "zkid/internal/session/store"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/sentinel"
)

const phantomWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

type WalletServiceSuite struct {
	suite.Suite
	wallets *sessionstore.InMemoryWalletStore
	audits  *auditstore.InMemoryStore
	svc     *Service
	userID  id.UserID
}

func TestWalletServiceSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceSuite))
}

func (s *WalletServiceSuite) SetupTest() {
	s.wallets = sessionstore.NewInMemoryWalletStore()
	s.audits = auditstore.NewInMemoryStore()
	s.svc = New(s.wallets, time.Hour, audit.NewPublisher(s.audits), logger.Discard())
	s.userID = id.UserID(uuid.New())
}

func (s *WalletServiceSuite) TestConnectAndDisconnect() {
	ctx := context.Background()

	addr, err := s.svc.ConnectWallet(ctx, s.userID, "  "+phantomWallet+" ")
	s.Require().NoError(err)
	s.Equal(phantomWallet, addr)

	stored, err := s.wallets.Get(ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(phantomWallet, stored)

	s.Require().NoError(s.svc.DisconnectWallet(ctx, s.userID))
	_, err = s.wallets.Get(ctx, s.userID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	events, err := s.audits.ListByUser(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionWalletConnected, events[0].Action)
	s.Equal(audit.ActionWalletDisconnected, events[1].Action)
}

func (s *WalletServiceSuite) TestRejectsInvalidAddresses() {
	for _, addr := range []string{"", "not base58 0OIl", "abc", "11111111111111111111111111111111"} {
		_, err := s.svc.ConnectWallet(context.Background(), s.userID, addr)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "address %q", addr)
	}
}
