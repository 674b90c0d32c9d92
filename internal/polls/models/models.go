package models

import (
	"fmt"
	"time"

	id "zkid/pkg/domain"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
	StatusUpcoming Status = "upcoming"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusEnded, StatusUpcoming:
		return true
	}
	return false
}

// Option is a choice on a poll with its running vote counter.
type Option struct {
	ID        id.OptionID
	PollID    id.PollID
	Text      string
	Position  int
	VoteCount int64
}

type Poll struct {
	ID          id.PollID
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	IsNational  bool
	Status      Status
	CreatedAt   time.Time
	Options     []Option
}

func (p *Poll) Validate() error {
	if p.ID.IsNil() {
		return fmt.Errorf("poll: missing id")
	}
	if p.Title == "" {
		return fmt.Errorf("poll %s: missing title", p.ID)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("poll %s: invalid status %q", p.ID, p.Status)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("poll %s: end_date before start_date", p.ID)
	}
	for _, o := range p.Options {
		if o.PollID != p.ID {
			return fmt.Errorf("poll %s: option %s belongs to poll %s", p.ID, o.ID, o.PollID)
		}
		if o.VoteCount < 0 {
			return fmt.Errorf("poll %s: option %s has negative vote count", p.ID, o.ID)
		}
	}
	return nil
}

// Option returns the option with the given id, if it belongs to the poll.
func (p *Poll) Option(optionID id.OptionID) (Option, bool) {
	for _, o := range p.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return Option{}, false
}

func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, o := range p.Options {
		total += o.VoteCount
	}
	return total
}

// Vote is one user's choice on one poll. A user votes at most once per poll.
type Vote struct {
	ID       id.VoteID   `json:"id"`
	UserID   id.UserID   `json:"user_id"`
	PollID   id.PollID   `json:"poll_id"`
	OptionID id.OptionID `json:"option_id"`
	VotedAt  time.Time   `json:"voted_at"`
}

func (v *Vote) Validate() error {
	if v.UserID.IsNil() || v.PollID.IsNil() || v.OptionID.IsNil() {
		return fmt.Errorf("vote %s: missing reference", v.ID)
	}
	if v.VotedAt.IsZero() {
		return fmt.Errorf("vote %s: missing voted_at", v.ID)
	}
	return nil
}
