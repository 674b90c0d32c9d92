package ocr

import (
	"encoding/base64"
	"strings"

	dErrors "zkid/pkg/domain-errors"
)

// DataURL is a decoded-enough view of a base64 image data URL. Data stays
// base64 since that is what the model endpoint accepts.
type DataURL struct {
	MimeType string
	Data     string
}

// ParseDataURL accepts "data:image/<type>;base64,<payload>". maxBytes bounds
// the decoded size; zero disables the check.
func ParseDataURL(raw string, maxBytes int) (DataURL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image is required")
	}
	header, payload, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image must be a data URL")
	}
	mime, enc, ok := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if !ok || enc != "base64" {
		return DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image must be base64 encoded")
	}
	mime = strings.ToLower(mime)
	if !strings.HasPrefix(mime, "image/") || len(mime) == len("image/") {
		return DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "file must be an image")
	}
	if payload == "" {
		return DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image is empty")
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return DataURL{}, dErrors.New(dErrors.CodeInvalidInput, "image is too large")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return DataURL{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "image is not valid base64")
	}
	return DataURL{MimeType: mime, Data: payload}, nil
}

// EncodeDataURL builds a DataURL from raw file bytes.
func EncodeDataURL(mime string, content []byte) DataURL {
	return DataURL{MimeType: strings.ToLower(mime), Data: base64.StdEncoding.EncodeToString(content)}
}

func (d DataURL) String() string {
	return "data:" + d.MimeType + ";base64," + d.Data
}
