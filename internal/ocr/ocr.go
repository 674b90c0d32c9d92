// Package ocr extracts citizenship fields from a document image using a
// Gemini generateContent model.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// DefaultRejectionMessage is used when the model rejects a document
// without saying why.
const DefaultRejectionMessage = "This is not a Nepali citizenship document"

// Data holds the fields read off a citizenship certificate.
type Data struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
}

// Result is the model's verdict. Data is set only when IsNepaliCitizenship
// is true.
type Result struct {
	IsNepaliCitizenship bool   `json:"is_nepali_citizenship"`
	Data                *Data  `json:"data,omitempty"`
	Message             string `json:"message,omitempty"`
}

// Client verifies one document image.
type Client interface {
	Verify(ctx context.Context, image DataURL) (*Result, error)
}

var (
	// ErrInvalidResponse means the model reply had no text part.
	ErrInvalidResponse = errors.New("invalid API response format")
	// ErrUnavailable means the client refused the call without contacting the model.
	ErrUnavailable = errors.New("document service unavailable")
)

// ParseError means the model text could not be turned into a Result.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model output: %s: %v", e.Reason, e.Err)
	}
	return "parse model output: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusError is a non-2xx reply from the model endpoint.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to verify document: %s", e.Status)
}
