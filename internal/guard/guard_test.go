package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkid/internal/auth/models"
	"zkid/internal/platform/logger"
	"zkid/internal/session"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
)

func newSession(kyc bool, wallet string) *session.Session {
	userID := id.UserID(uuid.New())
	return &session.Session{
		UserID:        userID,
		User:          &models.User{ID: userID, HasCompletedKYC: kyc},
		WalletAddress: wallet,
	}
}

func TestDecide(t *testing.T) {
	dashboard := Requirements{Auth: true, KYC: true, Wallet: true}

	tests := []struct {
		name     string
		sess     *session.Session
		req      Requirements
		allowed  bool
		redirect string
		code     dErrors.Code
	}{
		{"public route anonymous", nil, Requirements{}, true, "", ""},
		{"anonymous on dashboard", nil, dashboard, false, PathLanding, dErrors.CodeUnauthorized},
		{"token without user row", &session.Session{UserID: id.UserID(uuid.New())}, Requirements{Auth: true}, false, PathLanding, dErrors.CodeUnauthorized},
		{"kyc incomplete on dashboard", newSession(false, "w"), dashboard, false, PathKYC, dErrors.CodeKYCRequired},
		{"no wallet on dashboard", newSession(true, ""), dashboard, false, PathLanding, dErrors.CodeWalletRequired},
		{"wallet implies auth", nil, Requirements{Wallet: true}, false, PathLanding, dErrors.CodeUnauthorized},
		{"fully set up", newSession(true, "w"), dashboard, true, "", ""},
		{"verification result without kyc", newSession(false, "w"), Requirements{Auth: true, Wallet: true}, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.sess, tt.req)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.redirect, d.RedirectTo)
			assert.Equal(t, tt.code, d.Code)
		})
	}
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestPageRedirects(t *testing.T) {
	h := Page(Requirements{Auth: true, KYC: true, Wallet: true}, logger.Discard())(http.HandlerFunc(ok))

	t.Run("kyc incomplete goes to verification", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(session.WithSession(req.Context(), newSession(false, "w")))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, PathKYC, rec.Header().Get("Location"))
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, PathKYC, body["redirect_to"])
		assert.Empty(t, body["message"])
	})

	t.Run("missing wallet carries toast", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(session.WithSession(req.Context(), newSession(true, "")))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, PathLanding, body["redirect_to"])
		assert.Equal(t, MessageWalletRequired, body["message"])
	})

	t.Run("allowed passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(session.WithSession(req.Context(), newSession(true, "w")))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAPIErrors(t *testing.T) {
	h := API(Requirements{KYC: true}, logger.Discard())(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/polls", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
	req = req.WithContext(session.WithSession(req.Context(), newSession(false, "")))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kyc_required"`)
}
