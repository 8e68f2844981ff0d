package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// spaceRuns collapses runs of whitespace left over from joining and carrying.
var spaceRuns = regexp.MustCompile(`\s{2,}`)

// Segmenter splits documents into overlapping chunks sized for embedding.
// Sizes are measured in characters (runes), not bytes, since most ingested
// material is accented Portuguese.
type Segmenter struct {
	chunkSize int
	overlap   int
}

// New creates a segmenter. chunkSize must be positive; a negative overlap
// behaves as zero.
func New(chunkSize, overlap int) (*Segmenter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Segmenter{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Split breaks text into chunks of up to chunkSize characters, accumulating
// whole sentences greedily and carrying the last overlap characters of each
// emitted chunk into the next one. A single sentence that cannot fit is hard
// truncated. Emitted chunks are whitespace-normalized and deduplicated,
// preserving order. Empty input yields an empty slice.
func (s *Segmenter) Split(text string) []string {
	sentences := Sentences(text)

	var chunks []string
	var buf []string
	curLen := 0

	for _, sent := range sentences {
		n := utf8.RuneCountInString(sent)

		if curLen+n+1 <= s.chunkSize {
			buf = append(buf, sent)
			curLen += n + 1
			continue
		}

		if len(buf) > 0 {
			joined := strings.Join(buf, " ")
			chunks = append(chunks, strings.TrimSpace(joined))

			if s.overlap > 0 {
				carry := lastRunes(joined, s.overlap)
				buf = []string{carry, sent}
				curLen = utf8.RuneCountInString(carry) + 1 + n
			} else {
				buf = []string{sent}
				curLen = n
			}
			continue
		}

		// Single sentence larger than the chunk size: hard truncate.
		chunks = append(chunks, firstRunes(sent, s.chunkSize))
		buf = nil
		curLen = 0
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(buf, " ")))
	}

	// Normalize whitespace and drop duplicates, keeping first occurrence.
	clean := make([]string, 0, len(chunks))
	seen := make(map[string]bool)
	for _, c := range chunks {
		cc := strings.TrimSpace(spaceRuns.ReplaceAllString(c, " "))
		if cc != "" && !seen[cc] {
			seen[cc] = true
			clean = append(clean, cc)
		}
	}
	return clean
}

// ChunkID builds the deterministic ID for the i-th chunk of a source,
// e.g. "contrato.txt-000003".
func ChunkID(source string, i int) string {
	return fmt.Sprintf("%s-%06d", source, i)
}

// Sentences splits text at whitespace that follows a sentence
// terminator (".", "!" or "?"). Parts are trimmed; empties dropped.
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		current.WriteRune(r)

		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if sent := strings.TrimSpace(current.String()); sent != "" {
				sentences = append(sentences, sent)
			}
			current.Reset()
			i++
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			continue
		}
		i++
	}

	if sent := strings.TrimSpace(current.String()); sent != "" {
		sentences = append(sentences, sent)
	}
	return sentences
}

// lastRunes returns the trailing n characters of s (all of s if shorter).
func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// firstRunes returns the leading n characters of s (all of s if shorter).
func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
