package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"zkid/internal/verification/models"
	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

const keyPrefix = "kyc:workflow:"

// RedisStore keeps workflow state as a JSON string per user. Transitions use
// WATCH so two requests cannot both leave the same stage.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(userID id.UserID) string {
	return keyPrefix + userID.String()
}

func (s *RedisStore) Get(ctx context.Context, userID id.UserID) (*models.WorkflowState, error) {
	raw, err := s.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get workflow state: %w", err)
	}
	return decode(raw)
}

func (s *RedisStore) Transition(ctx context.Context, userID id.UserID, from models.Stage, next models.WorkflowState) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode workflow state: %w", err)
	}
	k := key(userID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stage := models.StageUpload
		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("get workflow state: %w", err)
		default:
			cur, err := decode(raw)
			if err != nil {
				return err
			}
			stage = cur.Stage
		}
		if stage != from {
			return sentinel.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, data, s.ttl)
			return nil
		})
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	return err
}

func decode(raw []byte) (*models.WorkflowState, error) {
	var st models.WorkflowState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode workflow state: %w", err)
	}
	if !st.Stage.IsValid() {
		return nil, fmt.Errorf("decode workflow state: unknown stage %q", st.Stage)
	}
	return &st, nil
}
