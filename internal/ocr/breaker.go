package ocr

import (
	"context"
	"errors"
	"log/slog"

	"zkid/pkg/platform/circuit"
)

// BreakerClient stops calling the model after repeated transport or status
// failures. Parse failures and rejections are answers, not outages, and do
// not count.
type BreakerClient struct {
	next    Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerClient(next Client, breaker *circuit.Breaker, logger *slog.Logger) *BreakerClient {
	return &BreakerClient{next: next, breaker: breaker, logger: logger}
}

func (c *BreakerClient) Verify(ctx context.Context, image DataURL) (*Result, error) {
	if !c.breaker.Allow() {
		return nil, ErrUnavailable
	}
	res, err := c.next.Verify(ctx, image)
	if err != nil {
		var parseErr *ParseError
		if !errors.As(err, &parseErr) && ctx.Err() == nil {
			if _, change := c.breaker.RecordFailure(); change.Opened {
				c.logger.WarnContext(ctx, "OCR circuit opened", "breaker", c.breaker.Name())
			}
		}
		return nil, err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "OCR circuit closed", "breaker", c.breaker.Name())
	}
	return res, nil
}
