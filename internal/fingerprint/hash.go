package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Normalize concatenates an item's content fields after cleaning each part.
// Fields are visited in key order; values are trimmed, lowercased and have
// their line endings normalised. Empty fields are skipped so that adding an
// empty column to a deck file does not change existing ids.
func Normalize(fields map[string]string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	keys := lo.Keys(fields)
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := normalizePart(fields[k])
		if v == "" {
			continue
		}
		// key=value keeps "a"/"b" distinguishable from "b"/"a".
		parts = append(parts, normalizePart(k)+"="+v)
	}
	return strings.Join(parts, "\n")
}

// Hash normalizes the fields and returns their SHA-256 hash as a hex string.
func Hash(fields map[string]string) string {
	normalized := Normalize(fields)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}

// Short returns the first 16 hex digits of Hash, enough to key a deck.
func Short(fields map[string]string) string {
	return Hash(fields)[:16]
}
