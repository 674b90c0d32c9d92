package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"zkid/internal/auth/models"
	"zkid/internal/auth/token"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/httputil"
	"zkid/pkg/platform/sentinel"
	"zkid/pkg/requestcontext"
)

type TokenValidator interface {
	Validate(tokenString string) (*token.Identity, error)
}

type UserLoader interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
}

type WalletReader interface {
	Get(ctx context.Context, userID id.UserID) (string, error)
}

// Middleware resolves the bearer token into a Session. Requests without a
// token, or with an invalid one, continue anonymously; the guard decides
// whether that is acceptable for the route.
func Middleware(tokens TokenValidator, users UserLoader, wallets WalletReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := tokens.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "rejected access token",
					"request_id", requestcontext.RequestID(ctx),
					"error", dErrors.MessageOf(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			sess, err := load(ctx, identity, users, wallets)
			if err != nil {
				logger.ErrorContext(ctx, "failed to load session",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", identity.UserID.String(),
					"error", err,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}

func load(ctx context.Context, identity *token.Identity, users UserLoader, wallets WalletReader) (*Session, error) {
	sess := &Session{UserID: identity.UserID, Email: identity.Email}

	u, err := users.FindByID(ctx, identity.UserID)
	switch {
	case err == nil:
		sess.User = u
	case errors.Is(err, sentinel.ErrNotFound):
		return sess, nil
	default:
		return nil, err
	}

	addr, err := wallets.Get(ctx, identity.UserID)
	switch {
	case err == nil:
		sess.WalletAddress = addr
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, err
	}
	return sess, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, value, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}
