package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(nil),
	)

	a := ContentHash([]byte("%PDF-1.4 resume"))
	b := ContentHash([]byte("%PDF-1.4 resume"))
	c := ContentHash([]byte("%PDF-1.4 resume "))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"initial with dot", "Jane Q. Doe", "jane_q_doe"},
		{"collapses whitespace", "  John \t  Smith ", "john_smith"},
		{"keeps hyphen", "Mary-Jane O'Neil", "mary-jane_oneil"},
		{"strips symbols", "Dr. Alex (PhD) <alex>", "dr_alex_phd_alex"},
		{"digits kept", "Agent 47", "agent_47"},
		{"unicode letters", "José Álvarez", "josé_álvarez"},
		{"empty", "", "unknown"},
		{"only symbols", "!!! ??? ...", "unknown"},
		{"trims separators", "--Neo--", "neo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	slug := Slugify(strings.Repeat("a", 200))
	assert.Len(t, []rune(slug), maxSlugLength)

	slug = Slugify(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len([]rune(slug)), maxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "_"))
}

func TestKeys_Scenario(t *testing.T) {
	hash := ContentHash([]byte("jane's resume bytes"))

	assert.Equal(t, hash+".pdf", RawKey(hash))
	assert.Equal(t, "parsed/jane_q_doe-"+hash[:8]+".txt", ParsedKey("Jane Q. Doe", hash))
}

func TestParsedKey_NoCollisionForSameName(t *testing.T) {
	h1 := ContentHash([]byte("first john smith"))
	h2 := ContentHash([]byte("second john smith"))

	assert.NotEqual(t, ParsedKey("John Smith", h1), ParsedKey("John Smith", h2))
}

func TestDisplayNameFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"parsed/jane_q_doe-1a2b3c4d.txt", "jane_q_doe"},
		{"parsed/mary-jane_smith-deadbeef.txt", "mary-jane_smith"},
		{"parsed/legacy_name.txt", "legacy_name"},
		{"parsed/unknown-0000ffff.txt", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayNameFromKey(tt.key))
		})
	}
}
