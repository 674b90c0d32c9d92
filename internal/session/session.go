// Package session carries the authenticated caller through a request.
//
// A Session is loaded fresh on every request by Middleware from the bearer
// token, the users table and the wallet store, then read by the guard and
// handlers via FromContext. There is no process-wide session state.
package session

import (
	"context"

	"zkid/internal/auth/models"
	id "zkid/pkg/domain"
)

// Session is the per-request view of the caller.
type Session struct {
	UserID id.UserID
	Email  string
	// User is nil until the auth callback has created the row.
	User          *models.User
	WalletAddress string
}

// Authenticated reports whether the caller has a valid token and a user row.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

func (s *Session) KYCComplete() bool {
	return s.Authenticated() && s.User.HasCompletedKYC
}

func (s *Session) HasWallet() bool {
	return s != nil && s.WalletAddress != ""
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session or nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
