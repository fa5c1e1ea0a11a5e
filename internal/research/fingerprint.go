package research

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the cache identity of a query: the hex SHA-256 of the
// lowercased, whitespace-trimmed text. Queries differing only in case or
// surrounding whitespace share a fingerprint.
func Fingerprint(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
