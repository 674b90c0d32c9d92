package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: row or key does not exist
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: entity is in the wrong state for the operation
//   - ErrUnavailable: backing service is down or the circuit is open
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
