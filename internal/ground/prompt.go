package ground

import (
	"fmt"
	"strings"
)

// PromptStyle selects the prompt template for a model family
type PromptStyle int

const (
	// StyleInstruction wraps the question in a "### CONTEXTO / ### PERGUNTA /
	// ### RESPOSTA" header prompt. Default for chat and causal models.
	StyleInstruction PromptStyle = iota

	// StyleCompact is a short suffix prompt. Encoder-decoder models tend to
	// echo instruction headers back, so they get this one.
	StyleCompact
)

// systemPrompt constrains answers to the supplied context, in Portuguese
const systemPrompt = "Você responde em português, de forma concisa e objetiva.\n" +
	"Use SOMENTE o CONTEXTO fornecido. Se a resposta não estiver no contexto, diga: " +
	"'Não encontrei no contexto'. NÃO repita a pergunta. Responda em 1–2 frases."

// NotFound is the answer of last resort when no context is available
const NotFound = "Não encontrei no contexto."

const (
	contextSeparator = "\n\n---\n\n"
	maxContextChunks = 5
)

// seq2seqMarkers identify encoder-decoder model families
var seq2seqMarkers = []string{"t5", "bart", "mbart", "pegasus"}

// ClassifyModel picks the prompt style for a model name
func ClassifyModel(name string) PromptStyle {
	n := strings.ToLower(name)
	for _, marker := range seq2seqMarkers {
		if strings.Contains(n, marker) {
			return StyleCompact
		}
	}
	return StyleInstruction
}

// CleanChunks trims chunks and drops empty ones, preserving order
func CleanChunks(chunks []string) []string {
	cleaned := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

// JoinContext joins the first chunks into the prompt context block
func JoinContext(chunks []string) string {
	if len(chunks) > maxContextChunks {
		chunks = chunks[:maxContextChunks]
	}
	return strings.Join(chunks, contextSeparator)
}

// BuildPrompt renders the prompt for the given style
func BuildPrompt(style PromptStyle, context, question string) string {
	if style == StyleCompact {
		return fmt.Sprintf(
			"Contexto:\n%s\n\nPergunta: %s\nResponda em 1–2 frases, usando apenas o contexto acima:",
			context, question,
		)
	}
	return fmt.Sprintf(
		"%s\n\n### CONTEXTO\n%s\n\n### PERGUNTA\n%s\n\n### RESPOSTA\n",
		systemPrompt, context, question,
	)
}
