package ground

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Small local models leak prompt scaffolding into their output: they echo the
// prompt, restate labels, restate the instructions, or stack "Resposta:"
// prefixes. Each pass below removes one class of artifact; Sanitize chains
// them in order.

var (
	// Whole lines that are prompt labels (optionally with a colon)
	labelLineRe = regexp.MustCompile(`(?i)^(contexto|pergunta|resposta|###\s*resposta|###\s*contexto)\s*:?`)

	// Lines that restate the instructions rather than answer
	instructionEchoRe = regexp.MustCompile(`(?i)responda\s+em\s+1.?–.?2\s+frases`)
	systemEchoRe      = regexp.MustCompile(`(?i)você responde em português`)

	// Labels glued to the answer text itself
	inlineLabelRe = regexp.MustCompile(`(?i)(Contexto|Pergunta|Resposta)\s*:\s*`)

	spaceRunsRe   = regexp.MustCompile(`\s{2,}`)
	ragArtifactRe = regexp.MustCompile(`(?i)\bR{2,}AG\b`)
)

// answerDelimiters mark where a model started a new section instead of
// stopping. Applied in order, each against the already-truncated text.
var answerDelimiters = []string{"\n###", "\n\n###", "\n\n", "\nRESPOSTA:", "\nResposta:", "\n#"}

// answerPrefixes are leading labels shaved off before echo comparison
var answerPrefixes = []string{"resposta:", "### resposta", "###resposta", "answer:", "### answer"}

// StripPromptPrefix removes the prompt when a causal model echoes it back
// before the completion
func StripPromptPrefix(text, prompt string) string {
	if prompt != "" && strings.HasPrefix(text, prompt) {
		return text[len(prompt):]
	}
	return text
}

// TruncateAtDelimiters cuts the answer at the first occurrence of each
// known section delimiter
func TruncateAtDelimiters(text string) string {
	for _, sep := range answerDelimiters {
		if i := strings.Index(text, sep); i >= 0 {
			text = text[:i]
		}
	}
	return text
}

// StripLabelLines drops whole lines that are prompt labels or instruction
// restatements, then removes inline label prefixes
func StripLabelLines(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if labelLineRe.MatchString(trimmed) {
			continue
		}
		if instructionEchoRe.MatchString(trimmed) || systemEchoRe.MatchString(trimmed) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	out := strings.TrimSpace(strings.Join(cleaned, "\n"))
	out = inlineLabelRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// StripLeadingEchoes removes leading answer labels and echoes of the
// question. Up to three passes: models sometimes stack several.
func StripLeadingEchoes(text, question string) string {
	q := strings.TrimSpace(question)

	for pass := 0; pass < 3; pass++ {
		t := strings.TrimLeftFunc(text, unicode.IsSpace)
		for _, prefix := range answerPrefixes {
			if rest, ok := cutPrefixFold(t, prefix); ok {
				t = strings.TrimLeftFunc(rest, unicode.IsSpace)
			}
		}
		if rest, ok := cutPrefixFold(t, q); ok {
			t = strings.TrimLeftFunc(strings.TrimLeft(rest, ": .-"), unicode.IsSpace)
		}
		text = t
	}

	return text
}

// NormalizeArtifacts trims stray quotes, collapses whitespace runs and fixes
// the RRAG token corruption seen in beam-search output
func NormalizeArtifacts(text string) string {
	text = strings.Trim(text, ` "'`)
	text = spaceRunsRe.ReplaceAllString(text, " ")
	text = ragArtifactRe.ReplaceAllString(text, "RAG")
	return strings.TrimSpace(text)
}

// Sanitize runs the full cleanup chain on raw model output
func Sanitize(question, prompt, raw string) string {
	text := StripPromptPrefix(raw, prompt)
	text = TruncateAtDelimiters(text)
	text = StripLabelLines(text)
	text = StripLeadingEchoes(text, question)
	return NormalizeArtifacts(text)
}

// cutPrefixFold removes a case-insensitive prefix, returning the remainder
// of the original string and whether it matched
func cutPrefixFold(s, prefix string) (string, bool) {
	rest := s
	for _, pr := range prefix {
		r, size := utf8.DecodeRuneInString(rest)
		if size == 0 || unicode.ToLower(r) != unicode.ToLower(pr) {
			return s, false
		}
		rest = rest[size:]
	}
	return rest, true
}
