package ground

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/credilex/parecer/internal/llm"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/policy"
)

// Grounder turns retrieved context chunks into short Portuguese answers that
// stay inside the context. Without a backend it degrades to extractive
// answers instead of failing.
type Grounder struct {
	backend llm.Backend
	style   PromptStyle
}

// New creates a Grounder. The prompt style is decided once from the model
// name. A nil backend disables generation.
func New(backend llm.Backend, modelName string) *Grounder {
	return &Grounder{
		backend: backend,
		style:   ClassifyModel(modelName),
	}
}

// Enabled reports whether a generation backend is configured
func (g *Grounder) Enabled() bool {
	return g.backend != nil
}

// Answer responds to a question using only the supplied context chunks.
// Backend failures fall back to an extractive answer when context exists;
// with no context the failure propagates so callers can report it.
func (g *Grounder) Answer(ctx context.Context, contextChunks []string, question string) (string, error) {
	chunks := CleanChunks(contextChunks)

	if g.backend == nil {
		return Fallback(chunks), nil
	}

	prompt := BuildPrompt(g.style, JoinContext(chunks), question)

	raw, err := g.backend.Generate(ctx, prompt)
	if err != nil {
		if len(chunks) > 0 {
			return Fallback(chunks), nil
		}
		return "", err
	}

	answer := Sanitize(question, prompt, raw)
	if LooksLikeEcho(answer) || utf8.RuneCountInString(answer) < 5 {
		return Fallback(chunks), nil
	}

	return answer, nil
}

// approvedRationale is deterministic; approvals never consult the model
const approvedRationale = "Aprovado: atende às regras — trânsito em julgado comprovado, " +
	"fase de execução e valor mínimo, sem impedimentos (ex.: trabalhista)."

// rationaleFallbackChunk stands in when no cited rule is known
const rationaleFallbackChunk = "Avaliar conforme as políticas internas aplicáveis."

// Rationale explains a decision in one or two sentences, using the cited
// rule texts as context
func (g *Grounder) Rationale(ctx context.Context, decision model.Decision, citations []string) (string, error) {
	if decision == model.DecisionApproved {
		return approvedRationale, nil
	}

	chunks := policy.Texts(citations)
	if len(chunks) == 0 {
		chunks = []string{rationaleFallbackChunk}
	}

	question := fmt.Sprintf(
		"Decisão: %s. Explique em 1–2 frases o porquê, citando os códigos das regras (ex.: POL-3, POL-4).",
		decision,
	)
	return g.Answer(ctx, chunks, question)
}
