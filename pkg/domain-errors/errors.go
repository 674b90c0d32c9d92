// Package domainerrors carries coded errors from services to transports.
//
// Services return *Error values built with New or Wrap. Transports read the
// code back with CodeOf and map it to a status. Store-level facts stay as
// sentinel errors and are translated into a code at the service boundary.
package domainerrors

import (
	"errors"
)

// Code is the machine-readable error identifier written to clients.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"
	CodeRateLimited  Code = "rate_limited"
	CodeTimeout      Code = "timeout"
	CodeBadGateway   Code = "bad_gateway"
	CodeInternal     Code = "internal_error"

	// KYC and voting specific codes.
	CodeKYCRequired      Code = "kyc_required"
	CodeWalletRequired   Code = "wallet_required"
	CodeDocumentRejected Code = "document_rejected"
	CodeNotEligible      Code = "not_eligible"
)

// Error is a coded error with a client-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and client-safe message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost *Error in the chain,
// or CodeInternal when the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool { return HasCode(err, code) }

// MessageOf returns the client-safe message, or "" when err is uncoded.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
