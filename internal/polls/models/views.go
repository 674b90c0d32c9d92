package models

import (
	"time"

	id "zkid/pkg/domain"
)

// PollView is a poll as seen by one user.
type PollView struct {
	ID          id.PollID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	IsNational  bool         `json:"is_national"`
	Status      Status       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	Options     []OptionView `json:"options"`
	TotalVotes  int64        `json:"total_votes"`
	// UserVote is the chosen option id, empty when the user has not voted.
	UserVote string `json:"user_vote"`
}

type OptionView struct {
	ID        id.OptionID `json:"id"`
	Text      string      `json:"text"`
	VoteCount int64       `json:"vote_count"`
	HasVoted  bool        `json:"has_voted"`
}

// NewPollView projects p for a user whose vote on it is choice, or nil.
func NewPollView(p Poll, choice *id.OptionID) PollView {
	v := PollView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsNational:  p.IsNational,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		Options:     make([]OptionView, 0, len(p.Options)),
		TotalVotes:  p.TotalVotes(),
	}
	if choice != nil {
		v.UserVote = choice.String()
	}
	for _, o := range p.Options {
		v.Options = append(v.Options, OptionView{
			ID:        o.ID,
			Text:      o.Text,
			VoteCount: o.VoteCount,
			HasVoted:  choice != nil && *choice == o.ID,
		})
	}
	return v
}

// CreatePollRequest is the admin payload for a new poll. IsNational and
// Status default to true and active.
type CreatePollRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Options     []string   `json:"options" validate:"required,min=2,max=20,dive,max=200"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsNational  *bool      `json:"is_national"`
	Status      Status     `json:"status" validate:"omitempty,oneof=active ended upcoming"`
}

// Eligibility is the response of an eligibility check.
type Eligibility struct {
	PollID   id.PollID `json:"poll_id"`
	Eligible bool      `json:"eligible"`
}
