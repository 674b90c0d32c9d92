package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"zkid/internal/platform/database"
	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
	txcontext "zkid/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertDetails(ctx context.Context, d *models.VerificationDetails) error {
	proofData := []byte(d.ProofData)
	if len(proofData) == 0 {
		proofData = []byte("{}")
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verification_details
			(user_id, full_name, date_of_birth, nationality, verified_at, wallet_address, proof_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name      = EXCLUDED.full_name,
			date_of_birth  = EXCLUDED.date_of_birth,
			nationality    = EXCLUDED.nationality,
			verified_at    = EXCLUDED.verified_at,
			wallet_address = EXCLUDED.wallet_address,
			proof_data     = EXCLUDED.proof_data`,
		uuid.UUID(d.UserID), d.FullName, d.DateOfBirth, d.Nationality, d.VerifiedAt, d.WalletAddress, string(proofData),
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("upsert verification details: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("upsert verification details: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindDetails(ctx context.Context, userID id.UserID) (*models.VerificationDetails, error) {
	var (
		rawID     uuid.UUID
		proofData []byte
		d         models.VerificationDetails
	)
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT user_id, full_name, date_of_birth, nationality, verified_at, wallet_address, proof_data
		FROM verification_details WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&rawID, &d.FullName, &d.DateOfBirth, &d.Nationality, &d.VerifiedAt, &d.WalletAddress, &proofData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification details: %w", err)
	}
	d.UserID = id.UserID(rawID)
	d.ProofData = proofData
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("find verification details: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) UpsertProof(ctx context.Context, r *models.ProofRecord) error {
	var citizenship sql.NullString
	if r.CitizenshipNumber != "" {
		citizenship = sql.NullString{String: r.CitizenshipNumber, Valid: true}
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO proof_records
			(user_id, full_name, citizenship_number, date_of_birth, nationality, proof_hash, wallet_address, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name          = EXCLUDED.full_name,
			citizenship_number = EXCLUDED.citizenship_number,
			date_of_birth      = EXCLUDED.date_of_birth,
			nationality        = EXCLUDED.nationality,
			proof_hash         = EXCLUDED.proof_hash,
			wallet_address     = EXCLUDED.wallet_address,
			is_verified        = EXCLUDED.is_verified,
			created_at         = EXCLUDED.created_at`,
		uuid.UUID(r.UserID), r.FullName, citizenship, r.DateOfBirth, r.Nationality,
		r.ProofHash, r.WalletAddress, r.IsVerified, r.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("upsert proof record: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("upsert proof record: %w", err)
	}
	return nil
}

const selectProof = `
	SELECT user_id, full_name, citizenship_number, date_of_birth, nationality,
	       proof_hash, wallet_address, is_verified, created_at
	FROM proof_records`

func (s *PostgresStore) FindProofByUser(ctx context.Context, userID id.UserID) (*models.ProofRecord, error) {
	return s.findProof(ctx, selectProof+` WHERE user_id = $1`, uuid.UUID(userID))
}

func (s *PostgresStore) FindProofByHash(ctx context.Context, hash string) (*models.ProofRecord, error) {
	return s.findProof(ctx, selectProof+` WHERE proof_hash = $1`, hash)
}

func (s *PostgresStore) findProof(ctx context.Context, query string, arg any) (*models.ProofRecord, error) {
	var (
		rawID       uuid.UUID
		citizenship sql.NullString
		r           models.ProofRecord
	)
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, arg).Scan(
		&rawID, &r.FullName, &citizenship, &r.DateOfBirth, &r.Nationality,
		&r.ProofHash, &r.WalletAddress, &r.IsVerified, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find proof record: %w", err)
	}
	r.UserID = id.UserID(rawID)
	r.CitizenshipNumber = citizenship.String
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("find proof record: %w", err)
	}
	return &r, nil
}
