package ground

import "strings"

// leakedFragments are prompt pieces whose presence means the model echoed
// its instructions instead of answering
var leakedFragments = []string{
	"você responde em português",
	"use somente o contexto",
	"responda em 1–2 frases",
	"### contexto",
	"### resposta",
	"resposta:",
	"answer:",
	"contexto:",
	"pergunta:",
}

// LooksLikeEcho reports whether the answer is empty or restates the prompt
func LooksLikeEcho(answer string) bool {
	a := strings.ToLower(answer)
	if a == "" {
		return true
	}
	for _, fragment := range leakedFragments {
		if strings.Contains(a, fragment) {
			return true
		}
	}
	return false
}
