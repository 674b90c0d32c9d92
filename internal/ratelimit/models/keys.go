package models

import "strings"

const uploadKeyPrefix = "ocr_upload:"

// SanitizeKeySegment escapes the ':' delimiter in key segments so an
// identifier cannot spill into an adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// UploadKey is the bucket for a user's document uploads.
func UploadKey(userID string) string {
	return uploadKeyPrefix + SanitizeKeySegment(userID)
}
