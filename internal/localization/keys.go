// Package localization orders stored texts and turns them into localization
// keys and export documents.
package localization

import (
	"fmt"
	"strings"
)

// Key separators per consumer.
const (
	JSONSeparator = '.'
	XMLSeparator  = '_'
)

// SanitizeKey lower-cases name and collapses every run of characters other
// than ASCII letters and digits into a single sep. Leading and trailing sep
// characters are trimmed.
func SanitizeKey(name string, sep byte) string {
	var b strings.Builder
	b.Grow(len(name))

	inRun := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
			inRun = false
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
			inRun = false
		default:
			if !inRun {
				b.WriteByte(sep)
				inRun = true
			}
		}
	}
	return strings.Trim(b.String(), string(sep))
}

// ComposeKey joins the sanitized screen and text names with sep.
func ComposeKey(screen, text string, sep byte) string {
	return SanitizeKey(screen, sep) + string(sep) + SanitizeKey(text, sep)
}

// KeyCounter hands out unique keys within one export. The first request for
// a base returns it unchanged; later ones get "_1", "_2", ... in request
// order. The suffix always uses '_' so it cannot be confused with a dotted
// separator. A suffixed candidate that was already issued is skipped.
type KeyCounter struct {
	counts map[string]int
	issued map[string]struct{}
}

// NewKeyCounter returns an empty counter.
func NewKeyCounter() *KeyCounter {
	return &KeyCounter{
		counts: make(map[string]int),
		issued: make(map[string]struct{}),
	}
}

// Next returns the next unique key for base.
func (c *KeyCounter) Next(base string) string {
	n := c.counts[base]
	key := base
	if n > 0 {
		key = fmt.Sprintf("%s_%d", base, n)
	}
	for {
		if _, taken := c.issued[key]; !taken {
			break
		}
		n++
		key = fmt.Sprintf("%s_%d", base, n)
	}
	c.counts[base] = n + 1
	c.issued[key] = struct{}{}
	return key
}
