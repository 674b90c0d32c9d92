package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"zkid/internal/audit"
	id "zkid/pkg/domain"
	txcontext "zkid/pkg/platform/tx"
)

// PostgresStore appends to audit_events. Inside a transaction the row
// commits or rolls back with the business write.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event audit.Event) error {
	var userID any
	if !event.UserID.IsNil() {
		userID = uuid.UUID(event.UserID)
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_events (id, user_id, action, decision, reason, request_id, client_ip, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(event.ID), userID, string(event.Action), event.Decision, event.Reason,
		event.RequestID, event.ClientIP, event.Device, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, action, decision, reason, request_id, client_ip, device, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			eventID uuid.UUID
			action  string
			e       audit.Event
		)
		if err := rows.Scan(&eventID, &action, &e.Decision, &e.Reason, &e.RequestID, &e.ClientIP, &e.Device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ID = id.EventID(eventID)
		e.UserID = userID
		e.Action = audit.Action(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
