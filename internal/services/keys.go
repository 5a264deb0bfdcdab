package services

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
	"unicode"
)

const (
	ParsedPrefix  = "parsed/"
	parsedExt     = ".txt"
	rawExt        = ".pdf"
	hashPrefixLen = 8
	maxSlugLength = 64
	unknownSlug   = "unknown"

	// Object metadata keys. MetaCacheControl maps onto the object's
	// Cache-Control header rather than custom metadata.
	MetaCacheControl = "cacheControl"
	MetaContentHash  = "content-hash"
	MetaParsedKey    = "parsed-key"
)

var hashSuffix = regexp.MustCompile(`-[0-9a-f]{8}$`)

// ContentHash is the lowercase hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RawKey is the storage key of the original document.
func RawKey(hash string) string {
	return hash + rawExt
}

// ParsedKey is the storage key of the structured artifact. The hash prefix
// keeps two candidates with the same name apart.
func ParsedKey(name, hash string) string {
	prefix := hash
	if len(prefix) > hashPrefixLen {
		prefix = prefix[:hashPrefixLen]
	}
	return ParsedPrefix + Slugify(name) + "-" + prefix + parsedExt
}

// Slugify turns a candidate name into a storage-safe token.
// Letters, digits and '-' are kept; runs of whitespace and '.' become '_'.
func Slugify(name string) string {
	var b strings.Builder
	pendingSep := false

	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '.' || r == '_':
			pendingSep = true
		}
	}

	slug := trimSlug(b.String())

	runes := []rune(slug)
	if len(runes) > maxSlugLength {
		slug = trimSlug(string(runes[:maxSlugLength]))
	}

	if slug == "" {
		return unknownSlug
	}
	return slug
}

func trimSlug(s string) string {
	return strings.Trim(s, "_-.")
}

// DisplayNameFromKey recovers the human-facing name from a parsed key:
// prefix, extension and the trailing hash segment are removed.
func DisplayNameFromKey(key string) string {
	name := strings.TrimPrefix(key, ParsedPrefix)
	name = strings.TrimSuffix(name, path.Ext(name))
	return hashSuffix.ReplaceAllString(name, "")
}
