package service

import (
	"context"
	"errors"
	"log/slog"

	"zkid/internal/audit"
	"zkid/internal/auth/models"
	"zkid/internal/platform/metrics"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/sentinel"
	"zkid/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service owns the local user row behind an upstream identity.
type Service struct {
	users   UserStore
	audit   AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(users UserStore, auditor AuditPublisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{users: users, audit: auditor, metrics: m, logger: logger}
}

// EnsureUser returns the user for an authenticated identity, creating it
// with has_completed_kyc=false on first sight. created reports whether this
// call inserted the row.
func (s *Service) EnsureUser(ctx context.Context, userID id.UserID, email string) (user *models.User, created bool, err error) {
	existing, err := s.users.FindByID(ctx, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	u := &models.User{
		ID:        userID,
		Email:     email,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// lost a race with a concurrent first login
			existing, err := s.users.FindByID(ctx, userID)
			if err != nil {
				return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
			}
			return existing, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementUsersCreated()
	s.audit.Emit(ctx, audit.Event{UserID: userID, Action: audit.ActionUserCreated})
	s.logger.InfoContext(ctx, "user created",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return u, true, nil
}

// GetUser loads a user; a missing row is CodeNotFound.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}
