// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
	"unicode/utf8"
)

// DedupeFold removes empty strings and case-insensitive duplicates,
// trimming whitespace from each element. The first spelling wins and
// order is preserved.
//
//	DedupeFold([]string{"  Yes ", "No", "yes", ""})
//	// Returns: []string{"Yes", "No"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// Truncate cuts s to at most n runes. Multi-byte characters (Devanagari
// names, for instance) are never split.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
