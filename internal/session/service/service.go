package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"zkid/internal/audit"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/requestcontext"
)

type WalletStore interface {
	Set(ctx context.Context, userID id.UserID, address string, ttl time.Duration) error
	Delete(ctx context.Context, userID id.UserID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service manages the wallet half of the session.
type Service struct {
	wallets WalletStore
	ttl     time.Duration
	audit   AuditPublisher
	logger  *slog.Logger
}

func New(wallets WalletStore, ttl time.Duration, auditor AuditPublisher, logger *slog.Logger) *Service {
	return &Service{wallets: wallets, ttl: ttl, audit: auditor, logger: logger}
}

// ConnectWallet stores a Solana public key for the user and returns its
// canonical base58 form.
func (s *Service) ConnectWallet(ctx context.Context, userID id.UserID, address string) (string, error) {
	pk, err := ParseWallet(address)
	if err != nil {
		return "", err
	}
	canonical := pk.String()
	if err := s.wallets.Set(ctx, userID, canonical, s.ttl); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store wallet")
	}
	s.audit.Emit(ctx, audit.Event{UserID: userID, Action: audit.ActionWalletConnected, Reason: canonical})
	s.logger.InfoContext(ctx, "wallet connected",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return canonical, nil
}

func (s *Service) DisconnectWallet(ctx context.Context, userID id.UserID) error {
	if err := s.wallets.Delete(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove wallet")
	}
	s.audit.Emit(ctx, audit.Event{UserID: userID, Action: audit.ActionWalletDisconnected})
	return nil
}

// ParseWallet validates a base58 Solana public key.
func ParseWallet(address string) (solana.PublicKey, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return solana.PublicKey{}, dErrors.New(dErrors.CodeInvalidInput, "wallet address is required")
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid wallet address")
	}
	if pk.IsZero() {
		return solana.PublicKey{}, dErrors.New(dErrors.CodeInvalidInput, "invalid wallet address")
	}
	return pk, nil
}
