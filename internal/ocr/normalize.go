package ocr

import (
	"strings"
	"time"

	zstrings "zkid/pkg/platform/strings"
)

const (
	maxNameLen         = 100
	maxDateLen         = 10
	defaultNationality = "Nepali"
	isoDate            = "2006-01-02"
)

var dateLayouts = []string{
	isoDate,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// Normalize applies the display rules to extracted fields: name trimmed and
// capped at 100 characters, date of birth as YYYY-MM-DD when it parses
// (otherwise trimmed and capped at 10), nationality trimmed with "Nepali"
// as the fallback.
func Normalize(d Data) Data {
	nationality := strings.TrimSpace(d.Nationality)
	if nationality == "" {
		nationality = defaultNationality
	}
	return Data{
		FullName:    zstrings.Truncate(strings.TrimSpace(d.FullName), maxNameLen),
		DateOfBirth: NormalizeDate(d.DateOfBirth),
		Nationality: nationality,
	}
}

// NormalizeDate converts a recognised date layout to ISO. No calendar
// conversion happens here, so a BS date in ISO syntax passes through as-is.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(isoDate)
		}
	}
	return zstrings.Truncate(s, maxDateLen)
}
