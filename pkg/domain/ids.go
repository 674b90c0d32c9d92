// Package domain holds typed identifiers shared across modules.
//
// IDs are parsed once at trust boundaries (HTTP path params, token claims,
// database rows) and carried as distinct types afterwards so a PollID can
// never be passed where a UserID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "zkid/pkg/domain-errors"
)

type (
	UserID   uuid.UUID
	PollID   uuid.UUID
	OptionID uuid.UUID
	VoteID   uuid.UUID
	EventID  uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

// ParseUserID validates a user identifier issued by the identity provider.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user_id", s)
	return UserID(u), err
}

func ParsePollID(s string) (PollID, error) {
	u, err := parseUUID("poll_id", s)
	return PollID(u), err
}

func ParseOptionID(s string) (OptionID, error) {
	u, err := parseUUID("option_id", s)
	return OptionID(u), err
}

func ParseVoteID(s string) (VoteID, error) {
	u, err := parseUUID("vote_id", s)
	return VoteID(u), err
}

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id PollID) String() string   { return uuid.UUID(id).String() }
func (id OptionID) String() string { return uuid.UUID(id).String() }
func (id VoteID) String() string   { return uuid.UUID(id).String() }
func (id EventID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PollID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id OptionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id PollID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id OptionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id VoteID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

// UnmarshalText accepts any UUID, including nil; use the Parse functions
// to validate input.
func (id *UserID) UnmarshalText(b []byte) error   { return unmarshalUUID((*uuid.UUID)(id), b) }
func (id *PollID) UnmarshalText(b []byte) error   { return unmarshalUUID((*uuid.UUID)(id), b) }
func (id *OptionID) UnmarshalText(b []byte) error { return unmarshalUUID((*uuid.UUID)(id), b) }
func (id *VoteID) UnmarshalText(b []byte) error   { return unmarshalUUID((*uuid.UUID)(id), b) }
func (id *EventID) UnmarshalText(b []byte) error  { return unmarshalUUID((*uuid.UUID)(id), b) }

func unmarshalUUID(dst *uuid.UUID, b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

// NewPollID and friends mint fresh random identifiers for server-created rows.
func NewPollID() PollID     { return PollID(uuid.New()) }
func NewOptionID() OptionID { return OptionID(uuid.New()) }
func NewVoteID() VoteID     { return VoteID(uuid.New()) }
func NewEventID() EventID   { return EventID(uuid.New()) }
