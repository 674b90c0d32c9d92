package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"zkid/internal/guard"
	"zkid/internal/ocr"
	"zkid/internal/session"
	"zkid/internal/verification/models"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/httputil"
	"zkid/pkg/requestcontext"
)

const documentField = "document"

// Service defines the KYC workflow operations.
type Service interface {
	State(ctx context.Context, sess *session.Session) (*models.WorkflowState, error)
	UploadDocument(ctx context.Context, sess *session.Session, image ocr.DataURL) (*models.WorkflowState, error)
	SubmitProof(ctx context.Context, sess *session.Session) (*models.ProofResult, error)
}

type Handler struct {
	service       Service
	maxImageBytes int
	logger        *slog.Logger
}

// New creates the KYC handler. maxImageBytes bounds uploaded documents.
func New(service Service, maxImageBytes int, logger *slog.Logger) *Handler {
	return &Handler{service: service, maxImageBytes: maxImageBytes, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(guard.API(guard.Requirements{Auth: true}, h.logger))
		r.Get("/api/kyc", h.handleGetState)
		r.Post("/api/kyc/documents", h.handleUploadDocument)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.API(guard.Requirements{Auth: true, Wallet: true}, h.logger))
		r.Post("/api/kyc/proof", h.handleSubmitProof)
	})
}

type uploadRequest struct {
	Image string `json:"image" validate:"required"`
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := h.service.State(ctx, session.FromContext(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load kyc state", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	image, err := h.readImage(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid document upload",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	st, err := h.service.UploadDocument(ctx, session.FromContext(ctx), image)
	if err != nil {
		h.writeServiceError(ctx, w, "document upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

// readImage accepts either a multipart "document" file or a JSON body with
// an image data URL.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) (ocr.DataURL, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req uploadRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			return ocr.DataURL{}, err
		}
		return ocr.ParseDataURL(req.Image, h.maxImageBytes)
	}

	if h.maxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxImageBytes)+1<<20)
	}
	file, header, err := r.FormFile(documentField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ocr.DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image is too large")
		}
		return ocr.DataURL{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "document file is required")
	}
	defer file.Close()

	limit := int64(h.maxImageBytes)
	if limit <= 0 {
		limit = header.Size
	}
	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return ocr.DataURL{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read document")
	}
	if len(content) == 0 {
		return ocr.DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image is empty")
	}
	if int64(len(content)) > limit {
		return ocr.DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image is too large")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	contentType, _, _ = mime.ParseMediaType(contentType)
	if !strings.HasPrefix(contentType, "image/") {
		return ocr.DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "file must be an image")
	}
	return ocr.EncodeDataURL(contentType, content), nil
}

func (h *Handler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.SubmitProof(ctx, session.FromContext(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "proof submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeBadGateway:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
