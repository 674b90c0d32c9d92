package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zkid/internal/guard"
	"zkid/internal/platform/middleware"
	"zkid/internal/polls/models"
	"zkid/internal/session"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/httputil"
	"zkid/pkg/requestcontext"
)

// Service defines the poll operations.
type Service interface {
	FetchPolls(ctx context.Context, userID id.UserID) ([]models.PollView, error)
	CheckEligibility(ctx context.Context, userID id.UserID, pollID id.PollID) (bool, error)
	CastVote(ctx context.Context, userID id.UserID, pollID id.PollID, optionID id.OptionID) (*models.Vote, error)
	CreatePoll(ctx context.Context, req models.CreatePollRequest) (*models.Poll, error)
}

type Handler struct {
	service    Service
	adminToken string
	logger     *slog.Logger
}

// New creates the polls handler. An empty adminToken disables poll creation.
func New(service Service, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{service: service, adminToken: adminToken, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(guard.API(guard.Requirements{Auth: true, KYC: true}, h.logger))
		r.Get("/api/polls", h.handleFetchPolls)
		r.Get("/api/polls/{pollID}/eligibility", h.handleEligibility)
		r.Post("/api/polls/{pollID}/votes", h.handleCastVote)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/api/admin/polls", h.handleCreatePoll)
	})
}

type castVoteRequest struct {
	OptionID string `json:"option_id" validate:"required,uuid"`
}

type pollsResponse struct {
	Polls []models.PollView `json:"polls"`
}

func (h *Handler) handleFetchPolls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	polls, err := h.service.FetchPolls(ctx, session.FromContext(ctx).UserID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to fetch polls", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pollsResponse{Polls: polls})
}

func (h *Handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pollID, err := id.ParsePollID(chi.URLParam(r, "pollID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid poll id"))
		return
	}
	eligible, err := h.service.CheckEligibility(ctx, session.FromContext(ctx).UserID, pollID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to check eligibility", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.Eligibility{PollID: pollID, Eligible: eligible})
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	pollID, err := id.ParsePollID(chi.URLParam(r, "pollID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid poll id"))
		return
	}
	var req castVoteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid cast vote request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	optionID, err := id.ParseOptionID(req.OptionID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid option id"))
		return
	}

	vote, err := h.service.CastVote(ctx, session.FromContext(ctx).UserID, pollID, optionID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to cast vote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, vote)
}

func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreatePollRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create poll request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	poll, err := h.service.CreatePoll(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create poll", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewPollView(*poll, nil))
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
