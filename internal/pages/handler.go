// Package pages serves the guarded page routes as JSON view models. Guard
// denials become 303 redirects so a browser front end can follow them.
package pages

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zkid/internal/auth/models"
	"zkid/internal/guard"
	pollmodels "zkid/internal/polls/models"
	"zkid/internal/session"
	vmodels "zkid/internal/verification/models"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/httputil"
	"zkid/pkg/requestcontext"
)

const (
	PathAbout        = "/about"
	PathAuthCallback = "/auth/callback"
	PathResult       = "/verification-result"
)

type UserService interface {
	EnsureUser(ctx context.Context, userID id.UserID, email string) (*models.User, bool, error)
}

type KYCService interface {
	State(ctx context.Context, sess *session.Session) (*vmodels.WorkflowState, error)
	LatestProof(ctx context.Context, userID id.UserID) (*vmodels.ProofRecord, error)
	LookupProof(ctx context.Context, hash string) (*vmodels.ProofRecord, error)
}

type PollService interface {
	FetchPolls(ctx context.Context, userID id.UserID) ([]pollmodels.PollView, error)
}

type Handler struct {
	users  UserService
	kyc    KYCService
	polls  PollService
	logger *slog.Logger
}

func New(users UserService, kyc KYCService, polls PollService, logger *slog.Logger) *Handler {
	return &Handler{users: users, kyc: kyc, polls: polls, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get(guard.PathLanding, h.handleLanding)
	r.Get(PathAbout, h.handleAbout)
	r.Get(PathAuthCallback, h.handleAuthCallback)
	r.Get("/verify/{hash}", h.handleVerifyProof)

	r.With(guard.Page(guard.Requirements{Auth: true}, h.logger)).
		Get(guard.PathKYC, h.handleKYC)
	r.With(guard.Page(guard.Requirements{Auth: true, KYC: true, Wallet: true}, h.logger)).
		Get(guard.PathDash, h.handleDashboard)
	r.With(guard.Page(guard.Requirements{Auth: true, Wallet: true}, h.logger)).
		Get(PathResult, h.handleVerificationResult)
}

type landingView struct {
	Title           string `json:"title"`
	Tagline         string `json:"tagline"`
	Authenticated   bool   `json:"authenticated"`
	KYCComplete     bool   `json:"kyc_complete"`
	WalletConnected bool   `json:"wallet_connected"`
	NextStep        string `json:"next_step,omitempty"`
}

func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	next := ""
	switch {
	case sess.KYCComplete():
		next = guard.PathDash
	case sess.Authenticated():
		next = guard.PathKYC
	}
	httputil.WriteJSON(w, http.StatusOK, landingView{
		Title:           "zkid",
		Tagline:         "Verify your Nepali citizenship once, then vote on national polls.",
		Authenticated:   sess.Authenticated(),
		KYCComplete:     sess.KYCComplete(),
		WalletConnected: sess.HasWallet(),
		NextStep:        next,
	})
}

type aboutView struct {
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
}

func (h *Handler) handleAbout(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, aboutView{
		Title: "About zkid",
		Sections: []string{
			"Upload a photo of your citizenship certificate. The extracted fields are checked and shown back to you.",
			"Connect a Solana wallet and submit a proof. Only a SHA-256 digest of your verified fields is published.",
			"Anyone holding the verification link can confirm the proof exists without seeing your document.",
		},
	})
}

// handleAuthCallback lands the browser after sign-in: the user row is
// created on first sight and the caller is sent to the next workflow page.
func (h *Handler) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if sess == nil {
		guard.Redirect(w, guard.PathLanding, "")
		return
	}
	user, created, err := h.users.EnsureUser(ctx, sess.UserID, sess.Email)
	if err != nil {
		h.logger.ErrorContext(ctx, "auth callback failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", sess.UserID.String(),
			"error", err,
		)
		guard.Redirect(w, guard.PathLanding, "")
		return
	}
	h.logger.DebugContext(ctx, "auth callback",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID.String(),
		"created", created,
	)
	if user.HasCompletedKYC {
		guard.Redirect(w, guard.PathDash, "")
		return
	}
	guard.Redirect(w, guard.PathKYC, "")
}

func (h *Handler) handleKYC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.kyc.State(ctx, session.FromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to load kyc page", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

type dashboardView struct {
	UserID        string                `json:"user_id"`
	Email         string                `json:"email"`
	WalletAddress string                `json:"wallet_address"`
	Polls         []pollmodels.PollView `json:"polls"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	polls, err := h.polls.FetchPolls(ctx, sess.UserID)
	if err != nil {
		h.writeError(ctx, w, "failed to load dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboardView{
		UserID:        sess.UserID.String(),
		Email:         sess.Email,
		WalletAddress: sess.WalletAddress,
		Polls:         polls,
	})
}

func (h *Handler) handleVerificationResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.kyc.LatestProof(ctx, session.FromContext(ctx).UserID)
	if err != nil {
		h.writeError(ctx, w, "failed to load verification result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// publicProof is what an anonymous verifier learns about a proof.
type publicProof struct {
	ProofHash     string    `json:"proof_hash"`
	IsVerified    bool      `json:"is_verified"`
	Nationality   string    `json:"nationality"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.kyc.LookupProof(ctx, chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(ctx, w, "proof lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, publicProof{
		ProofHash:     rec.ProofHash,
		IsVerified:    rec.IsVerified,
		Nationality:   rec.Nationality,
		WalletAddress: rec.WalletAddress,
		CreatedAt:     rec.CreatedAt,
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.DebugContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
