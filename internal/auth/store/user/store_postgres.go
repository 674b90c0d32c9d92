package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"zkid/internal/auth/models"
	"zkid/internal/platform/database"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
	txcontext "zkid/pkg/platform/tx"
)

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (id, email, has_completed_kyc, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.UUID(user.ID), user.Email, user.HasCompletedKYC, user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	var (
		rawID uuid.UUID
		u     models.User
	)
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, email, has_completed_kyc, created_at FROM users WHERE id = $1`,
		uuid.UUID(userID),
	).Scan(&rawID, &u.Email, &u.HasCompletedKYC, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = id.UserID(rawID)
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// MarkKYCComplete sets the flag. The UPDATE never writes false, so the
// transition is one-way regardless of caller.
func (s *PostgresUserStore) MarkKYCComplete(ctx context.Context, userID id.UserID) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET has_completed_kyc = TRUE WHERE id = $1`,
		uuid.UUID(userID),
	)
	if err != nil {
		return fmt.Errorf("mark kyc complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark kyc complete: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
