package ocr

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// extractJSON finds the JSON object in model text: a ```json fenced block
// first, else the first balanced {...} object.
func extractJSON(text string) (string, bool) {
	if i := strings.Index(text, fence+"json"); i >= 0 {
		body := text[i+len(fence)+len("json"):]
		if j := strings.Index(body, fence); j >= 0 {
			if s := strings.TrimSpace(body[:j]); s != "" {
				return s, true
			}
		}
	}
	return firstObject(text)
}

// firstObject scans for the first balanced brace pair, ignoring braces
// inside JSON strings.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parseResult turns model text into a Result. Only presence is checked.
func parseResult(text string) (*Result, error) {
	raw, ok := extractJSON(text)
	if !ok {
		return nil, &ParseError{Reason: "could not extract JSON from response"}
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, &ParseError{Reason: "failed to parse document data", Err: err}
	}
	if res.IsNepaliCitizenship && res.Data == nil {
		return nil, &ParseError{Reason: "citizenship result without data"}
	}
	return &res, nil
}
