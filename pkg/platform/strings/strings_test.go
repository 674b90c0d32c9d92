package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "trims whitespace", input: []string{"  foo  ", "bar  "}, expected: []string{"foo", "bar"}},
		{name: "first spelling wins", input: []string{"Yes", "No", "YES", "no"}, expected: []string{"Yes", "No"}},
		{name: "drops blanks", input: []string{"", "   ", "x"}, expected: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	// Devanagari: each rune is 3 bytes
	assert.Equal(t, "राम", Truncate("राम बहादुर", 3))
}
