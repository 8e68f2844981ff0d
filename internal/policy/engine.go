package policy

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/credilex/parecer/internal/model"
)

// Evaluate applies the purchasing rules to a case and returns the decision
// with citations and reasons. It is deterministic and total: malformed
// values degrade to POL-8 citations instead of errors.
//
// Branch order matters and is fixed: nature, award value, res judicata,
// procedural phase. Citations are deduplicated in first-seen order; reasons
// are kept one per matched branch.
func Evaluate(c model.CaseInput) model.Evaluation {
	citations := []string{}
	reasons := []string{}

	cite := func(id, reason string) {
		citations = append(citations, id)
		reasons = append(reasons, reason)
	}

	natureza := strings.ToLower(strings.TrimSpace(c.Natureza))
	fase := strings.ToLower(strings.TrimSpace(c.Fase))
	transitado := c.TransitadoEmJulgado

	if strings.Contains(natureza, "trabalh") {
		cite("POL-4", "Crédito de natureza trabalhista.")
	}

	if c.ValorCondenacao != nil {
		if valor, err := parseValor(c.ValorCondenacao); err != nil {
			cite("POL-8", "Valor de condenação inválido ou ausente.")
		} else if valor < 1000 {
			cite("POL-3", "Valor de condenação inferior a R$ 1.000,00.")
		}
	}

	switch {
	case transitado != nil && !*transitado:
		cite("POL-1", "Processo não transitado em julgado.")
	case transitado == nil && !truthy(c.Docs["comprovante_transito"]):
		cite("POL-8", "Falta comprovação do trânsito em julgado (documento essencial).")
	}

	if fase != "" {
		if !strings.Contains(fase, "execu") {
			cite("POL-1", "Caso não está em fase de execução.")
		}
	} else {
		cite("POL-8", "Fase processual não informada.")
	}

	citations = dedupe(citations)

	decision := model.DecisionApproved
	switch {
	case cited(citations, "POL-4") ||
		cited(citations, "POL-3") ||
		(transitado != nil && !*transitado) ||
		(cited(citations, "POL-1") && !cited(citations, "POL-8")):
		decision = model.DecisionRejected
	case cited(citations, "POL-8"):
		decision = model.DecisionIncomplete
	}

	return model.Evaluation{
		Decision:  decision,
		Citations: citations,
		Reasons:   reasons,
	}
}

// parseValor interprets the untyped award value: JSON numbers, numeric
// strings, and booleans all count as numbers; anything else is an error.
func parseValor(v any) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int32:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case json.Number:
		return value.Float64()
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(value), 64)
	default:
		return 0, strconv.ErrSyntax
	}
}

// truthy applies loose JSON truthiness to document flags.
func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	case float32:
		return value != 0
	case int:
		return value != 0
	case int64:
		return value != 0
	case json.Number:
		f, err := value.Float64()
		return err == nil && f != 0
	case []any:
		return len(value) > 0
	case map[string]any:
		return len(value) > 0
	default:
		return true
	}
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func cited(citations []string, id string) bool {
	for _, c := range citations {
		if c == id {
			return true
		}
	}
	return false
}
