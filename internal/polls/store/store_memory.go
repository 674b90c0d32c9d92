package store

import (
	"context"
	"slices"
	"sync"

	"zkid/internal/polls/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

type voteKey struct {
	user id.UserID
	poll id.PollID
}

// InMemoryStore keeps polls and votes in maps. Callers validate before
// writing since tx.Local has no rollback.
type InMemoryStore struct {
	mu    sync.RWMutex
	polls map[id.PollID]models.Poll
	votes map[voteKey]models.Vote
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		polls: make(map[id.PollID]models.Poll),
		votes: make(map[voteKey]models.Vote),
	}
}

func (s *InMemoryStore) CreatePoll(_ context.Context, p *models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.polls[p.ID] = clonePoll(*p)
	return nil
}

// ListActive returns active polls, newest first.
func (s *InMemoryStore) ListActive(_ context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		if p.Status == models.StatusActive {
			out = append(out, clonePoll(p))
		}
	}
	slices.SortFunc(out, func(a, b models.Poll) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) FindPoll(_ context.Context, pollID id.PollID) (*models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[pollID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := clonePoll(p)
	return &cp, nil
}

// VotesByUser maps each of pollIDs the user voted on to the chosen option.
func (s *InMemoryStore) VotesByUser(_ context.Context, userID id.UserID, pollIDs []id.PollID) (map[id.PollID]id.OptionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.PollID]id.OptionID)
	for _, pid := range pollIDs {
		if v, ok := s.votes[voteKey{userID, pid}]; ok {
			out[pid] = v.OptionID
		}
	}
	return out, nil
}

func (s *InMemoryStore) HasVoted(_ context.Context, userID id.UserID, pollID id.PollID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[voteKey{userID, pollID}]
	return ok, nil
}

func (s *InMemoryStore) InsertVote(_ context.Context, v *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[v.PollID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := p.Option(v.OptionID); !ok {
		return sentinel.ErrNotFound
	}
	key := voteKey{v.UserID, v.PollID}
	if _, exists := s.votes[key]; exists {
		return sentinel.ErrConflict
	}
	s.votes[key] = *v
	return nil
}

func (s *InMemoryStore) IncrementOptionVotes(_ context.Context, pollID id.PollID, optionID id.OptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[pollID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			p.Options[i].VoteCount++
			s.polls[pollID] = p
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func clonePoll(p models.Poll) models.Poll {
	p.Options = slices.Clone(p.Options)
	return p
}
