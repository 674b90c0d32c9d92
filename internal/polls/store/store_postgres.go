package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"zkid/internal/platform/database"
	"zkid/internal/polls/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
	txcontext "zkid/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreatePoll inserts the poll and its options. Run it inside a transaction.
func (s *PostgresStore) CreatePoll(ctx context.Context, p *models.Poll) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO polls (id, title, description, start_date, end_date, is_national, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(p.ID), p.Title, p.Description, nullTime(p.StartDate), nullTime(p.EndDate),
		p.IsNational, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert poll: %w", err)
	}
	for _, o := range p.Options {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO poll_options (id, poll_id, text, position, vote_count)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.UUID(o.ID), uuid.UUID(p.ID), o.Text, o.Position, o.VoteCount,
		)
		if err != nil {
			return fmt.Errorf("insert poll option: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]models.Poll, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, title, description, start_date, end_date, is_national, status, created_at
		FROM polls
		WHERE status = 'active'
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list active polls: %w", err)
	}
	defer rows.Close()

	var polls []models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("list active polls: %w", err)
		}
		polls = append(polls, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active polls: %w", err)
	}
	if err := s.attachOptions(ctx, polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func (s *PostgresStore) FindPoll(ctx context.Context, pollID id.PollID) (*models.Poll, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, title, description, start_date, end_date, is_national, status, created_at
		FROM polls WHERE id = $1`, uuid.UUID(pollID))
	p, err := scanPoll(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find poll: %w", err)
	}
	polls := []models.Poll{*p}
	if err := s.attachOptions(ctx, polls); err != nil {
		return nil, err
	}
	return &polls[0], nil
}

// attachOptions loads options for all polls in one query and validates
// each poll once complete.
func (s *PostgresStore) attachOptions(ctx context.Context, polls []models.Poll) error {
	if len(polls) == 0 {
		return nil
	}
	index := make(map[id.PollID]int, len(polls))
	ids := make([]string, len(polls))
	for i, p := range polls {
		index[p.ID] = i
		ids[i] = p.ID.String()
	}

	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, poll_id, text, position, vote_count
		FROM poll_options
		WHERE poll_id = ANY($1::uuid[])
		ORDER BY poll_id, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list poll options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			optionID, pollID uuid.UUID
			o                models.Option
		)
		if err := rows.Scan(&optionID, &pollID, &o.Text, &o.Position, &o.VoteCount); err != nil {
			return fmt.Errorf("scan poll option: %w", err)
		}
		o.ID = id.OptionID(optionID)
		o.PollID = id.PollID(pollID)
		i := index[o.PollID]
		polls[i].Options = append(polls[i].Options, o)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list poll options: %w", err)
	}
	for i := range polls {
		if err := polls[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) VotesByUser(ctx context.Context, userID id.UserID, pollIDs []id.PollID) (map[id.PollID]id.OptionID, error) {
	out := make(map[id.PollID]id.OptionID)
	if len(pollIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(pollIDs))
	for i, pid := range pollIDs {
		ids[i] = pid.String()
	}
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT poll_id, option_id FROM votes
		WHERE user_id = $1 AND poll_id = ANY($2::uuid[])`,
		uuid.UUID(userID), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list user votes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pollID, optionID uuid.UUID
		if err := rows.Scan(&pollID, &optionID); err != nil {
			return nil, fmt.Errorf("scan user vote: %w", err)
		}
		out[id.PollID(pollID)] = id.OptionID(optionID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user votes: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) HasVoted(ctx context.Context, userID id.UserID, pollID id.PollID) (bool, error) {
	var exists bool
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM votes WHERE user_id = $1 AND poll_id = $2)`,
		uuid.UUID(userID), uuid.UUID(pollID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing vote: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertVote(ctx context.Context, v *models.Vote) error {
	if err := v.Validate(); err != nil {
		return err
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO votes (id, user_id, poll_id, option_id, voted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(v.ID), uuid.UUID(v.UserID), uuid.UUID(v.PollID), uuid.UUID(v.OptionID), v.VotedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("insert vote: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrementOptionVotes(ctx context.Context, pollID id.PollID, optionID id.OptionID) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE poll_options SET vote_count = vote_count + 1
		WHERE id = $1 AND poll_id = $2`,
		uuid.UUID(optionID), uuid.UUID(pollID),
	)
	if err != nil {
		return fmt.Errorf("increment vote count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment vote count: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*models.Poll, error) {
	var (
		rawID      uuid.UUID
		start, end sql.NullTime
		status     string
		p          models.Poll
	)
	if err := row.Scan(&rawID, &p.Title, &p.Description, &start, &end, &p.IsNational, &status, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PollID(rawID)
	p.Status = models.Status(status)
	if start.Valid {
		p.StartDate = &start.Time
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
