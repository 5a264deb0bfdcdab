package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short input untouched", "héllo", 10, "héllo"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"cut inside two-byte rune backs off", "aé", 2, "a"},
		{"cut after two-byte rune keeps it", "aéb", 3, "aé"},
		{"cut inside four-byte rune backs off", "x😀y", 3, "x"},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateUTF8(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestTruncateUTF8_EmbeddingLimit(t *testing.T) {
	// 3-byte runes never land exactly on the limit
	text := strings.Repeat("語", maxEmbeddingBytes)

	got := truncateUTF8(text, maxEmbeddingBytes)
	assert.LessOrEqual(t, len(got), maxEmbeddingBytes)
	assert.True(t, utf8.ValidString(got))
}
