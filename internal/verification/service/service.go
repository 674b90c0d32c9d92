// Package service drives the KYC workflow: document upload, OCR verdict,
// proof generation and persistence.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"zkid/internal/audit"
	"zkid/internal/chain"
	"zkid/internal/guard"
	"zkid/internal/ocr"
	"zkid/internal/platform/metrics"
	rlmodels "zkid/internal/ratelimit/models"
	"zkid/internal/session"
	"zkid/internal/verification/models"
	"zkid/internal/verification/proof"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/sentinel"
	"zkid/pkg/requestcontext"
)

const (
	ocrFailureMessage    = "Failed to verify document. Please try again."
	staleUploadMessage   = "Document processing was interrupted. Please upload again."
	defaultProcessingTTL = 2 * time.Minute
)

var tracer = otel.Tracer("zkid/internal/verification/service")

type WorkflowStore interface {
	Get(ctx context.Context, userID id.UserID) (*models.WorkflowState, error)
	Transition(ctx context.Context, userID id.UserID, from models.Stage, next models.WorkflowState) error
}

type RecordStore interface {
	UpsertDetails(ctx context.Context, d *models.VerificationDetails) error
	UpsertProof(ctx context.Context, r *models.ProofRecord) error
	FindProofByUser(ctx context.Context, userID id.UserID) (*models.ProofRecord, error)
	FindProofByHash(ctx context.Context, hash string) (*models.ProofRecord, error)
}

type UserStore interface {
	MarkKYCComplete(ctx context.Context, userID id.UserID) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UploadLimiter interface {
	AllowUpload(ctx context.Context, userID id.UserID) (*rlmodels.RateLimitResult, error)
}

type ProofAnchor interface {
	Anchor(ctx context.Context, wallet, name, dob, proofHash string) (*chain.Receipt, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Service struct {
	workflow     WorkflowStore
	records      RecordStore
	users        UserStore
	tx           TxRunner
	ocr          ocr.Client
	limiter      UploadLimiter
	anchor       ProofAnchor
	audit        AuditPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	publicOrigin string

	// processingTTL bounds how long a processing marker blocks uploads
	processingTTL time.Duration
}

type Option func(*Service)

func WithLimiter(l UploadLimiter) Option { return func(s *Service) { s.limiter = l } }

func WithAnchor(a ProofAnchor) Option { return func(s *Service) { s.anchor = a } }

func WithAudit(p AuditPublisher) Option { return func(s *Service) { s.audit = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithPublicOrigin sets the origin used to build verification URLs.
func WithPublicOrigin(origin string) Option {
	return func(s *Service) { s.publicOrigin = origin }
}

// WithProcessingTimeout sets the age after which a processing marker left
// by an interrupted upload no longer blocks new uploads. It should exceed
// the OCR timeout.
func WithProcessingTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.processingTTL = d
		}
	}
}

func New(workflow WorkflowStore, records RecordStore, users UserStore, tx TxRunner, client ocr.Client, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		workflow:      workflow,
		records:       records,
		users:         users,
		tx:            tx,
		ocr:           client,
		logger:        logger,
		processingTTL: defaultProcessingTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the user's workflow position. Without stored state a user
// is at upload, or at proof_submitted once KYC is complete. A processing
// marker older than the processing timeout is reset to upload.
func (s *Service) State(ctx context.Context, sess *session.Session) (*models.WorkflowState, error) {
	if !sess.Authenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	st, err := s.workflow.Get(ctx, sess.UserID)
	if err == nil {
		if st.Stage == models.StageProcessing && s.now(ctx).Sub(st.UpdatedAt) > s.processingTTL {
			return s.expireProcessing(ctx, sess.UserID)
		}
		return st, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load workflow state")
	}
	stage := models.StageUpload
	if sess.KYCComplete() {
		stage = models.StageProofSubmitted
	}
	return &models.WorkflowState{UserID: sess.UserID, Stage: stage}, nil
}

// UploadDocument sends one document to OCR and moves the workflow to
// verified, or back to upload when the document is rejected or OCR fails.
// Nothing is written to the database on any path.
func (s *Service) UploadDocument(ctx context.Context, sess *session.Session, image ocr.DataURL) (_ *models.WorkflowState, err error) {
	ctx, span := tracer.Start(ctx, "verification.UploadDocument")
	defer func() { endSpan(span, err) }()

	current, err := s.State(ctx, sess)
	if err != nil {
		return nil, err
	}
	userID := sess.UserID
	span.SetAttributes(attribute.String("user_id", userID.String()))

	switch current.Stage {
	case models.StageUpload:
	case models.StageProcessing:
		return nil, dErrors.New(dErrors.CodeConflict, "a document is already being processed")
	default:
		return nil, dErrors.New(dErrors.CodeInvalidState, "document already verified")
	}

	if s.limiter != nil {
		if _, err := s.limiter.AllowUpload(ctx, userID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeRateLimited) {
				s.metrics.IncrementOCR("rate_limited")
				s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionUploadRateLimited, Decision: "denied"})
			}
			return nil, err
		}
	}

	processing := models.WorkflowState{UserID: userID, Stage: models.StageProcessing, UpdatedAt: s.now(ctx)}
	if err := s.workflow.Transition(ctx, userID, models.StageUpload, processing); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a document is already being processed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update workflow state")
	}

	started := time.Now()
	result, err := s.ocr.Verify(ctx, image)
	s.metrics.ObserveOCRLatency(time.Since(started))
	if err != nil {
		outcome := "failed"
		if errors.Is(err, ocr.ErrUnavailable) {
			outcome = "circuit_open"
		}
		s.metrics.IncrementOCR(outcome)
		s.logger.WarnContext(ctx, "document verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
		s.resetToUpload(ctx, userID, ocrFailureMessage)
		s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionOCRFailed, Decision: "failed", Reason: outcome})
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, ocrFailureMessage)
	}

	if !result.IsNepaliCitizenship || result.Data == nil {
		msg := strings.TrimSpace(result.Message)
		if msg == "" {
			msg = ocr.DefaultRejectionMessage
		}
		s.metrics.IncrementOCR("rejected")
		s.resetToUpload(ctx, userID, msg)
		s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionDocumentRejected, Decision: "rejected", Reason: msg})
		return nil, dErrors.New(dErrors.CodeDocumentRejected, msg)
	}

	data := ocr.Normalize(*result.Data)
	verified := models.WorkflowState{
		UserID:    userID,
		Stage:     models.StageVerified,
		Verified:  &data,
		UpdatedAt: s.now(ctx),
	}
	if err := s.workflow.Transition(ctx, userID, models.StageProcessing, verified); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update workflow state")
	}
	s.metrics.IncrementOCR("accepted")
	s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionKYCVerified, Decision: "accepted"})
	return &verified, nil
}

// expireProcessing moves an abandoned processing marker back to upload.
// A concurrent request may have replaced it already; the stored state is
// then returned as-is.
func (s *Service) expireProcessing(ctx context.Context, userID id.UserID) (*models.WorkflowState, error) {
	s.logger.WarnContext(ctx, "expiring stale processing state",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
	)
	next := models.WorkflowState{
		UserID:    userID,
		Stage:     models.StageUpload,
		LastError: staleUploadMessage,
		UpdatedAt: s.now(ctx),
	}
	err := s.workflow.Transition(context.WithoutCancel(ctx), userID, models.StageProcessing, next)
	switch {
	case err == nil:
		return &next, nil
	case errors.Is(err, sentinel.ErrConflict):
		st, err := s.workflow.Get(ctx, userID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load workflow state")
		}
		return st, nil
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update workflow state")
	}
}

// resetToUpload survives request cancellation so a dropped client does not
// leave the user stuck in processing.
func (s *Service) resetToUpload(ctx context.Context, userID id.UserID, lastError string) {
	ctx = context.WithoutCancel(ctx)
	next := models.WorkflowState{
		UserID:    userID,
		Stage:     models.StageUpload,
		LastError: lastError,
		UpdatedAt: s.now(ctx),
	}
	if err := s.workflow.Transition(ctx, userID, models.StageProcessing, next); err != nil {
		s.logger.ErrorContext(ctx, "failed to reset workflow state",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
	}
}

// SubmitProof persists the proof for verified fields and completes KYC.
// Details, proof record and the KYC flag are written in one transaction; on
// failure the stage stays at verified.
func (s *Service) SubmitProof(ctx context.Context, sess *session.Session) (_ *models.ProofResult, err error) {
	ctx, span := tracer.Start(ctx, "verification.SubmitProof")
	defer func() { endSpan(span, err) }()

	current, err := s.State(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !sess.HasWallet() {
		return nil, dErrors.New(dErrors.CodeWalletRequired, guard.MessageWalletRequired)
	}
	if current.Stage != models.StageVerified || current.Verified == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "no verified document to submit")
	}
	userID := sess.UserID
	wallet := sess.WalletAddress
	data := *current.Verified

	artifact, err := proof.Generate(wallet, data.FullName, data.DateOfBirth, data.Nationality, s.now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate proof")
	}
	span.SetAttributes(attribute.String("proof_hash", artifact.Hash))

	// MarkKYCComplete runs first: tx.Local cannot roll back, and a missing
	// user must fail before any record is written.
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.MarkKYCComplete(ctx, userID); err != nil {
			return err
		}
		if err := s.records.UpsertDetails(ctx, &models.VerificationDetails{
			UserID:        userID,
			FullName:      data.FullName,
			DateOfBirth:   data.DateOfBirth,
			Nationality:   data.Nationality,
			VerifiedAt:    artifact.Timestamp,
			WalletAddress: wallet,
			ProofData:     artifact.Payload,
		}); err != nil {
			return err
		}
		return s.records.UpsertProof(ctx, &models.ProofRecord{
			UserID:        userID,
			FullName:      data.FullName,
			DateOfBirth:   data.DateOfBirth,
			Nationality:   data.Nationality,
			ProofHash:     artifact.Hash,
			WalletAddress: wallet,
			IsVerified:    true,
			CreatedAt:     artifact.Timestamp,
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "proof already recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proof")
	}

	submitted := models.WorkflowState{
		UserID:    userID,
		Stage:     models.StageProofSubmitted,
		Verified:  &data,
		UpdatedAt: artifact.Timestamp,
	}
	if err := s.workflow.Transition(ctx, userID, models.StageVerified, submitted); err != nil {
		// records are committed; State falls back to proof_submitted once
		// the stored state expires
		s.logger.WarnContext(ctx, "failed to advance workflow after proof",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID.String(),
			"error", err,
		)
	}

	result := &models.ProofResult{
		ProofHash:       artifact.Hash,
		VerificationURL: proof.VerificationURL(s.publicOrigin, artifact.Hash),
		VerifiedData:    data,
		WalletAddress:   wallet,
		Timestamp:       artifact.Timestamp.Format(proof.TimestampLayout),
		RedirectTo:      guard.PathDash,
	}
	if s.anchor != nil {
		receipt, err := s.anchor.Anchor(ctx, wallet, data.FullName, data.DateOfBirth, artifact.Hash)
		if err != nil {
			s.logger.WarnContext(ctx, "proof anchor failed",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", userID.String(),
				"error", err,
			)
			s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionProofAnchorFailed, Reason: err.Error()})
		} else {
			result.AnchorSignature = receipt.Signature
		}
	}

	s.metrics.IncrementProofsSubmitted()
	s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionKYCCompleted, Decision: "granted"})
	s.logger.InfoContext(ctx, "kyc completed",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"proof_hash", artifact.Hash,
	)
	return result, nil
}

func (s *Service) LatestProof(ctx context.Context, userID id.UserID) (*models.ProofRecord, error) {
	rec, err := s.records.FindProofByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no proof submitted")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proof")
	}
	return rec, nil
}

// LookupProof finds a proof by its hex digest. Case is ignored.
func (s *Service) LookupProof(ctx context.Context, hash string) (*models.ProofRecord, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !models.IsProofHash(hash) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "malformed proof hash")
	}
	rec, err := s.records.FindProofByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "proof not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proof")
	}
	return rec, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}

func (s *Service) now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
