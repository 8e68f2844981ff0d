package policy

import "github.com/credilex/parecer/internal/model"

// Rule is one purchasing policy.
type Rule struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// rules is the fixed purchasing policy table. The engine's branch semantics
// depend on these IDs; the texts feed rationale generation and the seeded
// policy collection.
var rules = []Rule{
	{ID: "POL-1", Text: "Só compramos crédito de processos transitados em julgado e em fase de execução."},
	{ID: "POL-2", Text: "Exigir valor de condenação informado."},
	{ID: "POL-3", Text: "Valor de condenação inferior a R$ 1.000,00 → não compra."},
	{ID: "POL-4", Text: "Condenações na esfera trabalhista → não compra."},
	{ID: "POL-5", Text: "Óbito do autor sem habilitação no inventário → não compra."},
	{ID: "POL-6", Text: "Substabelecimento sem reserva de poderes → não compra."},
	{ID: "POL-7", Text: "Informar honorários contratuais, periciais e sucumbenciais quando existirem."},
	{ID: "POL-8", Text: "Se faltar documento essencial (ex.: trânsito em julgado não comprovado) → marcar como incomplete."},
}

var ruleIndex = func() map[string]string {
	m := make(map[string]string, len(rules))
	for _, r := range rules {
		m[r.ID] = r.Text
	}
	return m
}()

// Rules returns a copy of the policy table in order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Text returns the text of a rule by ID.
func Text(id string) (string, bool) {
	text, ok := ruleIndex[id]
	return text, ok
}

// Texts returns the texts of known rule IDs, preserving order and skipping
// unknown IDs.
func Texts(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if text, ok := ruleIndex[id]; ok {
			out = append(out, text)
		}
	}
	return out
}

// Sources pairs each citation with its rule text for response transparency.
// Unknown IDs are kept with an empty text.
func Sources(citations []string) []model.PolicySource {
	out := make([]model.PolicySource, 0, len(citations))
	for _, id := range citations {
		out = append(out, model.PolicySource{ID: id, Text: ruleIndex[id]})
	}
	return out
}
