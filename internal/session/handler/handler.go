package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zkid/internal/guard"
	"zkid/internal/session"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/httputil"
	"zkid/pkg/requestcontext"
)

// Service defines the wallet operations behind the session endpoints.
type Service interface {
	ConnectWallet(ctx context.Context, userID id.UserID, address string) (string, error)
	DisconnectWallet(ctx context.Context, userID id.UserID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts /api/session routes. All require an authenticated session.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(guard.API(guard.Requirements{Auth: true}, h.logger))
		r.Get("/api/session", h.handleGetSession)
		r.Put("/api/session/wallet", h.handleConnectWallet)
		r.Delete("/api/session/wallet", h.handleDisconnectWallet)
	})
}

type connectWalletRequest struct {
	Address string `json:"address" validate:"required,max=64"`
}

// Response is the public view of a session.
type Response struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	HasCompletedKYC bool   `json:"has_completed_kyc"`
	WalletAddress   string `json:"wallet_address,omitempty"`
	WalletConnected bool   `json:"wallet_connected"`
}

func NewResponse(sess *session.Session) Response {
	return Response{
		UserID:          sess.UserID.String(),
		Email:           sess.Email,
		HasCompletedKYC: sess.KYCComplete(),
		WalletAddress:   sess.WalletAddress,
		WalletConnected: sess.HasWallet(),
	}
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, NewResponse(session.FromContext(r.Context())))
}

func (h *Handler) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	sess := session.FromContext(ctx)

	var req connectWalletRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid connect wallet request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	addr, err := h.service.ConnectWallet(ctx, sess.UserID, req.Address)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to connect wallet", err)
		return
	}
	sess.WalletAddress = addr
	httputil.WriteJSON(w, http.StatusOK, NewResponse(sess))
}

func (h *Handler) handleDisconnectWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := h.service.DisconnectWallet(ctx, sess.UserID); err != nil {
		h.writeServiceError(ctx, w, "failed to disconnect wallet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
