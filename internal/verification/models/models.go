package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"zkid/internal/ocr"
	id "zkid/pkg/domain"
)

// Stage is a step of the KYC workflow.
type Stage string

const (
	StageUpload         Stage = "upload"
	StageProcessing     Stage = "processing"
	StageVerified       Stage = "verified"
	StageProofSubmitted Stage = "proof_submitted"
)

func (s Stage) IsValid() bool {
	switch s {
	case StageUpload, StageProcessing, StageVerified, StageProofSubmitted:
		return true
	}
	return false
}

// WorkflowState is kept in the session store, never in the database.
type WorkflowState struct {
	UserID    id.UserID `json:"user_id"`
	Stage     Stage     `json:"stage"`
	Verified  *ocr.Data `json:"verified_data,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VerificationDetails is the one-per-user row of verified fields.
type VerificationDetails struct {
	UserID        id.UserID       `json:"user_id"`
	FullName      string          `json:"full_name"`
	DateOfBirth   string          `json:"date_of_birth"`
	Nationality   string          `json:"nationality"`
	VerifiedAt    time.Time       `json:"verified_at"`
	WalletAddress string          `json:"wallet_address"`
	ProofData     json.RawMessage `json:"proof_data,omitempty"`
}

func (d *VerificationDetails) Validate() error {
	if d.UserID.IsNil() {
		return fmt.Errorf("verification details: missing user_id")
	}
	if d.VerifiedAt.IsZero() {
		return fmt.Errorf("verification details %s: missing verified_at", d.UserID)
	}
	if len(d.ProofData) > 0 && !json.Valid(d.ProofData) {
		return fmt.Errorf("verification details %s: proof_data is not JSON", d.UserID)
	}
	return nil
}

// ProofRecord is the persisted proof artifact.
type ProofRecord struct {
	UserID            id.UserID `json:"user_id"`
	FullName          string    `json:"full_name"`
	CitizenshipNumber string    `json:"citizenship_number,omitempty"`
	DateOfBirth       string    `json:"date_of_birth"`
	Nationality       string    `json:"nationality"`
	ProofHash         string    `json:"proof_hash"`
	WalletAddress     string    `json:"wallet_address"`
	IsVerified        bool      `json:"is_verified"`
	CreatedAt         time.Time `json:"created_at"`
}

var proofHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsProofHash reports whether s is a lowercase hex SHA-256 digest.
func IsProofHash(s string) bool {
	return proofHashPattern.MatchString(s)
}

func (r *ProofRecord) Validate() error {
	if r.UserID.IsNil() {
		return fmt.Errorf("proof record: missing user_id")
	}
	if !IsProofHash(r.ProofHash) {
		return fmt.Errorf("proof record %s: malformed proof_hash", r.UserID)
	}
	if r.WalletAddress == "" {
		return fmt.Errorf("proof record %s: missing wallet_address", r.UserID)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("proof record %s: missing created_at", r.UserID)
	}
	return nil
}

// ProofResult is returned from a successful proof submission.
type ProofResult struct {
	ProofHash       string   `json:"proof_hash"`
	VerificationURL string   `json:"verification_url"`
	VerifiedData    ocr.Data `json:"verified_data"`
	WalletAddress   string   `json:"wallet_address"`
	Timestamp       string   `json:"timestamp"`
	RedirectTo      string   `json:"redirect_to"`
	AnchorSignature string   `json:"anchor_signature,omitempty"`
}
