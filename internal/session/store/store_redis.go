package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "zkid/pkg/domain"
	"zkid/pkg/platform/sentinel"
)

const walletKeyPrefix = "session:wallet:"

// RedisWalletStore keeps one string key per user.
type RedisWalletStore struct {
	client *redis.Client
}

func NewRedisWalletStore(client *redis.Client) *RedisWalletStore {
	return &RedisWalletStore{client: client}
}

func walletKey(userID id.UserID) string {
	return walletKeyPrefix + userID.String()
}

func (s *RedisWalletStore) Get(ctx context.Context, userID id.UserID) (string, error) {
	addr, err := s.client.Get(ctx, walletKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("get wallet: %w", err)
	}
	return addr, nil
}

func (s *RedisWalletStore) Set(ctx context.Context, userID id.UserID, address string, ttl time.Duration) error {
	if err := s.client.Set(ctx, walletKey(userID), address, ttl).Err(); err != nil {
		return fmt.Errorf("set wallet: %w", err)
	}
	return nil
}

func (s *RedisWalletStore) Delete(ctx context.Context, userID id.UserID) error {
	if err := s.client.Del(ctx, walletKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}
