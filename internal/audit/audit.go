// Package audit records server-side outcomes of KYC and voting actions.
//
// Events are appended to a store synchronously and fanned out to an optional
// broker sink by a background worker. Neither path can fail the business
// operation that emitted the event.
package audit

import (
	"context"
	"time"

	id "zkid/pkg/domain"
)

type Action string

const (
	ActionUserCreated        Action = "user_created"
	ActionWalletConnected    Action = "wallet_connected"
	ActionWalletDisconnected Action = "wallet_disconnected"
	ActionDocumentRejected   Action = "kyc_document_rejected"
	ActionOCRFailed          Action = "kyc_ocr_failed"
	ActionUploadRateLimited  Action = "kyc_upload_rate_limited"
	ActionKYCVerified        Action = "kyc_verified"
	ActionKYCCompleted       Action = "kyc_completed"
	ActionProofAnchorFailed  Action = "kyc_proof_anchor_failed"
	ActionVoteCast           Action = "vote_cast"
	ActionVoteRejected       Action = "vote_rejected"
	ActionPollCreated        Action = "poll_created"
)

// Event is one audit record. Request metadata is filled in by the publisher
// from the context when left empty.
type Event struct {
	ID        id.EventID `json:"id"`
	UserID    id.UserID  `json:"user_id"`
	Action    Action     `json:"action"`
	Decision  string     `json:"decision,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	ClientIP  string     `json:"client_ip,omitempty"`
	Device    string     `json:"device,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Sink forwards events to an external broker.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
