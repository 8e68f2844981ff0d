package ground

import (
	"strings"
	"unicode/utf8"

	"github.com/credilex/parecer/internal/segment"
)

// FirstSentence extracts the first sentence of at least 15 characters, or
// the leading 240 characters when no sentence qualifies
func FirstSentence(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}

	for _, part := range segment.Sentences(t) {
		s := strings.TrimSpace(part)
		if utf8.RuneCountInString(s) >= 15 {
			return s
		}
	}

	if runes := []rune(t); len(runes) > 240 {
		t = string(runes[:240])
	}
	return strings.TrimSpace(t)
}

// Fallback is the extractive answer used when generation is disabled,
// failed, or produced an echo: the first usable sentence of the best chunk
func Fallback(chunks []string) string {
	if len(chunks) == 0 {
		return NotFound
	}
	if s := FirstSentence(chunks[0]); s != "" {
		return s
	}
	return NotFound
}
