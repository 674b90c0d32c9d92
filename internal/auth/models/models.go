package models

import (
	"fmt"
	"strings"
	"time"

	id "zkid/pkg/domain"
)

// User is the local record of an authenticated identity. HasCompletedKYC
// only ever moves from false to true, and only through proof submission.
type User struct {
	ID              id.UserID `json:"id"`
	Email           string    `json:"email"`
	HasCompletedKYC bool      `json:"has_completed_kyc"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate rejects rows that cannot have come from a well-formed write.
func (u *User) Validate() error {
	if u.ID.IsNil() {
		return fmt.Errorf("user: missing id")
	}
	if len(u.Email) > 320 || strings.ContainsAny(u.Email, "\r\n") {
		return fmt.Errorf("user %s: malformed email", u.ID)
	}
	if u.CreatedAt.IsZero() {
		return fmt.Errorf("user %s: missing created_at", u.ID)
	}
	return nil
}
