// Package service implements poll listing, voter eligibility and vote
// casting for KYC-complete users.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"zkid/internal/audit"
	"zkid/internal/platform/metrics"
	"zkid/internal/polls/models"
	vmodels "zkid/internal/verification/models"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/sentinel"
	zstrings "zkid/pkg/platform/strings"
	"zkid/pkg/requestcontext"
)

const eligibleNationality = "nepali"

var tracer = otel.Tracer("zkid/internal/polls/service")

type Store interface {
	CreatePoll(ctx context.Context, p *models.Poll) error
	ListActive(ctx context.Context) ([]models.Poll, error)
	FindPoll(ctx context.Context, pollID id.PollID) (*models.Poll, error)
	VotesByUser(ctx context.Context, userID id.UserID, pollIDs []id.PollID) (map[id.PollID]id.OptionID, error)
	HasVoted(ctx context.Context, userID id.UserID, pollID id.PollID) (bool, error)
	InsertVote(ctx context.Context, v *models.Vote) error
	IncrementOptionVotes(ctx context.Context, pollID id.PollID, optionID id.OptionID) error
}

// DetailsReader loads the verified fields that decide eligibility.
type DetailsReader interface {
	FindDetails(ctx context.Context, userID id.UserID) (*vmodels.VerificationDetails, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

type Service struct {
	store   Store
	details DetailsReader
	tx      TxRunner
	audit   AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithAudit(p AuditPublisher) Option { return func(s *Service) { s.audit = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func New(store Store, details DetailsReader, tx TxRunner, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, details: details, tx: tx, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPolls returns active polls newest first, annotated with the user's
// own votes.
func (s *Service) FetchPolls(ctx context.Context, userID id.UserID) ([]models.PollView, error) {
	polls, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load polls")
	}
	ids := make([]id.PollID, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}
	choices, err := s.store.VotesByUser(ctx, userID, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load votes")
	}

	views := make([]models.PollView, 0, len(polls))
	for _, p := range polls {
		var choice *id.OptionID
		if c, ok := choices[p.ID]; ok {
			choice = &c
		}
		views = append(views, models.NewPollView(p, choice))
	}
	return views, nil
}

// CheckEligibility reports whether the user may vote on the poll: Nepali
// nationality on record, no earlier vote, and a national poll. Missing
// details or an unknown poll mean not eligible.
func (s *Service) CheckEligibility(ctx context.Context, userID id.UserID, pollID id.PollID) (bool, error) {
	_, eligible, err := s.eligibility(ctx, userID, pollID)
	return eligible, err
}

func (s *Service) eligibility(ctx context.Context, userID id.UserID, pollID id.PollID) (*models.Poll, bool, error) {
	details, err := s.details.FindDetails(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification details")
	}
	if !strings.EqualFold(strings.TrimSpace(details.Nationality), eligibleNationality) {
		return nil, false, nil
	}

	voted, err := s.store.HasVoted(ctx, userID, pollID)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing vote")
	}
	if voted {
		return nil, false, nil
	}

	poll, err := s.store.FindPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load poll")
	}
	return poll, poll.IsNational, nil
}

// CastVote records the vote and bumps the option counter in one
// transaction.
func (s *Service) CastVote(ctx context.Context, userID id.UserID, pollID id.PollID, optionID id.OptionID) (_ *models.Vote, err error) {
	ctx, span := tracer.Start(ctx, "polls.CastVote")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("poll_id", pollID.String()))

	poll, eligible, err := s.eligibility(ctx, userID, pollID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		s.metrics.IncrementVote("not_eligible")
		s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionVoteRejected, Decision: "denied", Reason: "not_eligible"})
		return nil, dErrors.New(dErrors.CodeNotEligible, "You are not eligible to vote on this poll")
	}
	if poll.Status != models.StatusActive {
		return nil, dErrors.New(dErrors.CodeInvalidState, "poll is not open for voting")
	}
	if _, ok := poll.Option(optionID); !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "option does not belong to this poll")
	}

	vote := &models.Vote{
		ID:       id.NewVoteID(),
		UserID:   userID,
		PollID:   pollID,
		OptionID: optionID,
		VotedAt:  requestcontext.Now(ctx).UTC(),
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.InsertVote(ctx, vote); err != nil {
			return err
		}
		return s.store.IncrementOptionVotes(ctx, pollID, optionID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementVote("duplicate")
			s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionVoteRejected, Decision: "denied", Reason: "duplicate"})
			return nil, dErrors.New(dErrors.CodeConflict, "You have already voted on this poll")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	s.metrics.IncrementVote("cast")
	s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionVoteCast, Decision: "granted"})
	s.logger.InfoContext(ctx, "vote cast",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"poll_id", pollID.String(),
	)
	return vote, nil
}

// CreatePoll stores a new poll. Options are trimmed and deduplicated
// case-insensitively; at least two must remain.
func (s *Service) CreatePoll(ctx context.Context, req models.CreatePollRequest) (*models.Poll, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	options := zstrings.DedupeFold(req.Options)
	if len(options) < 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a poll needs at least two distinct options")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "end_date must not be before start_date")
	}
	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	national := true
	if req.IsNational != nil {
		national = *req.IsNational
	}

	poll := &models.Poll{
		ID:          id.NewPollID(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsNational:  national,
		Status:      status,
		CreatedAt:   requestcontext.Now(ctx).UTC(),
	}
	for i, text := range options {
		poll.Options = append(poll.Options, models.Option{
			ID:       id.NewOptionID(),
			PollID:   poll.ID,
			Text:     text,
			Position: i,
		})
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.CreatePoll(ctx, poll)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create poll")
	}
	s.emit(ctx, audit.Event{Action: audit.ActionPollCreated, Reason: poll.ID.String()})
	s.logger.InfoContext(ctx, "poll created",
		"request_id", requestcontext.RequestID(ctx),
		"poll_id", poll.ID.String(),
		"options", len(poll.Options),
	)
	return poll, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}
