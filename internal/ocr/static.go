package ocr

import (
	"context"
	"log/slog"
)

// StaticClient stands in when no API key is configured. Every document is
// accepted with fixed fields.
type StaticClient struct {
	logger *slog.Logger
}

func NewStatic(logger *slog.Logger) *StaticClient {
	return &StaticClient{logger: logger}
}

func (c *StaticClient) Verify(ctx context.Context, _ DataURL) (*Result, error) {
	c.logger.WarnContext(ctx, "OCR API key not configured, returning development result")
	return &Result{
		IsNepaliCitizenship: true,
		Data: &Data{
			FullName:    "Test User",
			DateOfBirth: "1990-01-01",
			Nationality: "Nepali",
		},
	}, nil
}
