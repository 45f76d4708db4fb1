package util

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// SafeName maps a cache name to a file-system safe base name. Names made only
// of [A-Za-z0-9._-] pass through unchanged; anything else keeps its safe
// characters and gains a short hash so distinct names never collide.
func SafeName(name string) string {
	clean := true
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' && b.Len() > 0:
			b.WriteRune(r)
		default:
			clean = false
			b.WriteByte('_')
		}
	}
	if clean && name != "" {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s-%x", b.String(), sum)[:b.Len()+1+16] // safe part + "-" + first 16 hex chars
}
