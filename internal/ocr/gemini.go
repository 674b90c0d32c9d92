package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-1.5-flash"

	maxResponseBytes = 1 << 20
)

const instruction = "Analyze this document and respond in English with a JSON object. If the text is in Nepali then change it into English. The dates maybe in BS, if it is in BS change that to AD as well. First, check if this is a Nepali citizenship document. If it is a Nepali citizenship, return a JSON object with the following structure: {\"is_nepali_citizenship\": true, \"data\": {\"full_name\": \"\", \"date_of_birth\": \"\", \"nationality\": \"\"}}. If it is not a Nepali citizenship, return: {\"is_nepali_citizenship\": false, \"message\": \"This is not a Nepali citizenship document\"}."

var tracer = otel.Tracer("zkid/internal/ocr")

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls generateContent once per document. It does not retry.
type GeminiClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
	timeout    time.Duration
}

type GeminiOption func(*GeminiClient)

func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) { g.httpClient = c }
}

func WithEndpoint(endpoint string) GeminiOption {
	return func(g *GeminiClient) {
		if endpoint != "" {
			g.endpoint = endpoint
		}
	}
}

func WithModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTimeout bounds each call; zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiClient) { g.timeout = d }
}

func NewGemini(apiKey string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		httpClient: http.DefaultClient,
		endpoint:   DefaultEndpoint,
		model:      DefaultModel,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Verify sends the image and returns the normalized result.
func (g *GeminiClient) Verify(ctx context.Context, image DataURL) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "ocr.Verify")
	span.SetAttributes(
		attribute.String("ocr.model", g.model),
		attribute.String("ocr.mime_type", image.MimeType),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Bool("ocr.is_nepali_citizenship", res.IsNepaliCitizenship))
		}
		span.End()
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.generate(ctx, image)
	if err != nil {
		return nil, err
	}
	res, err = parseResult(text)
	if err != nil {
		return nil, err
	}
	if res.IsNepaliCitizenship {
		d := Normalize(*res.Data)
		res.Data = &d
		res.Message = ""
	}
	return res, nil
}

func (g *GeminiClient) generate(ctx context.Context, image DataURL) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{
		{InlineData: &inlineData{MimeType: image.MimeType, Data: image.Data}},
		{Text: instruction},
	}}}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.endpoint, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// url.Error carries the request URL, which includes the key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return "", ErrInvalidResponse
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
