// Package ratelimit caps document uploads per user with a sliding window.
package ratelimit

import (
	"context"
	"time"

	"zkid/internal/ratelimit/models"
	id "zkid/pkg/domain"
	dErrors "zkid/pkg/domain-errors"
)

// BucketStore is implemented by the memory and Redis bucket stores.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Limiter applies one limit/window pair to upload keys.
type Limiter struct {
	store  BucketStore
	limit  int
	window time.Duration
}

func New(store BucketStore, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// AllowUpload records an upload attempt for the user. A denied attempt is a
// CodeRateLimited error carrying the retry hint in its message.
func (l *Limiter) AllowUpload(ctx context.Context, userID id.UserID) (*models.RateLimitResult, error) {
	result, err := l.store.Allow(ctx, models.UploadKey(userID.String()), l.limit, l.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check upload limit")
	}
	if !result.Allowed {
		return result, dErrors.New(dErrors.CodeRateLimited, "too many document uploads, try again later")
	}
	return result, nil
}
