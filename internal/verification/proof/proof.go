// Package proof builds the hash-based proof artifact for verified fields.
//
// The artifact is a SHA-256 digest over the fields plus a timestamp. It is a
// placeholder for a real commitment scheme: two submissions of identical
// fields at different times produce different hashes, so comparing hashes
// says nothing about whether the facts are the same.
package proof

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is RFC3339 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Input is what gets hashed. UserID is the wallet address.
type Input struct {
	UserID      string `json:"user_id"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
	Timestamp   string `json:"timestamp"`
}

// Artifact is the generated proof.
type Artifact struct {
	Payload   json.RawMessage
	Hash      string
	Timestamp time.Time
}

// Generate hashes the fields at time now (converted to UTC).
func Generate(walletAddress, fullName, dateOfBirth, nationality string, now time.Time) (Artifact, error) {
	now = now.UTC().Truncate(time.Millisecond)
	in := Input{
		UserID:      walletAddress,
		FullName:    fullName,
		DateOfBirth: dateOfBirth,
		Nationality: nationality,
		Timestamp:   now.Format(TimestampLayout),
	}
	payload, err := encode(in)
	if err != nil {
		return Artifact{}, fmt.Errorf("encode proof input: %w", err)
	}
	sum := sha256.Sum256(payload)
	return Artifact{
		Payload:   payload,
		Hash:      hex.EncodeToString(sum[:]),
		Timestamp: now,
	}, nil
}

// encode serializes without HTML escaping so "&", "<" and ">" in names
// hash the same as a browser's JSON.stringify output.
func encode(in Input) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// VerificationURL is the public lookup link for a hash.
func VerificationURL(publicOrigin, hash string) string {
	return strings.TrimRight(publicOrigin, "/") + "/verify/" + hash
}
