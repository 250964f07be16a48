package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Canonical joins a parsed item list into a single comparable string.
// Items are trimmed and line endings normalized; order is preserved since
// it is the order the items are stored in.
func Canonical(items []string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		p := strings.ReplaceAll(it, "\r\n", "\n")
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "|")
}

// Hash returns the SHA-256 of the canonical form as a hex string.
func Hash(items []string) string {
	sum := sha256.Sum256([]byte(Canonical(items)))
	return fmt.Sprintf("%x", sum)
}
