package policy

import (
	"testing"

	"github.com/credilex/parecer/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func cleanCase() model.CaseInput {
	return model.CaseInput{
		Natureza:            "cível",
		ValorCondenacao:     50000.0,
		TransitadoEmJulgado: boolPtr(true),
		Fase:                "execução",
		Docs:                map[string]any{"comprovante_transito": true},
	}
}

func TestEvaluate_ApprovedCleanCase(t *testing.T) {
	eval := Evaluate(cleanCase())

	if eval.Decision != model.DecisionApproved {
		t.Errorf("Expected approved, got %s", eval.Decision)
	}
	if len(eval.Citations) != 0 {
		t.Errorf("Expected no citations, got %v", eval.Citations)
	}
	if len(eval.Reasons) != 0 {
		t.Errorf("Expected no reasons, got %v", eval.Reasons)
	}
}

func TestEvaluate_LaborNatureRejected(t *testing.T) {
	c := cleanCase()
	c.Natureza = "indenização trabalhista"

	eval := Evaluate(c)

	if eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected, got %s", eval.Decision)
	}
	if len(eval.Citations) != 1 || eval.Citations[0] != "POL-4" {
		t.Errorf("Expected citations [POL-4], got %v", eval.Citations)
	}
	if len(eval.Reasons) != 1 || eval.Reasons[0] != "Crédito de natureza trabalhista." {
		t.Errorf("Unexpected reasons: %v", eval.Reasons)
	}
}

func TestEvaluate_LaborKeywordIsSubstringMatch(t *testing.T) {
	c := cleanCase()
	c.Natureza = "  Reclamação TRABALHISTA  "

	eval := Evaluate(c)

	if eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected for uppercase labor nature, got %s", eval.Decision)
	}
}

func TestEvaluate_LowValueRejected(t *testing.T) {
	c := cleanCase()
	c.ValorCondenacao = 999.99

	eval := Evaluate(c)

	if eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected, got %s", eval.Decision)
	}
	if len(eval.Citations) != 1 || eval.Citations[0] != "POL-3" {
		t.Errorf("Expected citations [POL-3], got %v", eval.Citations)
	}
}

func TestEvaluate_ValueAtThresholdPasses(t *testing.T) {
	c := cleanCase()
	c.ValorCondenacao = 1000.0

	eval := Evaluate(c)

	if eval.Decision != model.DecisionApproved {
		t.Errorf("Expected approved at threshold, got %s (citations %v)", eval.Decision, eval.Citations)
	}
}

func TestEvaluate_UnparseableValueIncomplete(t *testing.T) {
	c := cleanCase()
	c.ValorCondenacao = "abc"

	eval := Evaluate(c)

	if eval.Decision != model.DecisionIncomplete {
		t.Errorf("Expected incomplete, got %s", eval.Decision)
	}
	if len(eval.Citations) != 1 || eval.Citations[0] != "POL-8" {
		t.Errorf("Expected citations [POL-8], got %v", eval.Citations)
	}
	if len(eval.Reasons) != 1 || eval.Reasons[0] != "Valor de condenação inválido ou ausente." {
		t.Errorf("Unexpected reasons: %v", eval.Reasons)
	}
}

func TestEvaluate_ValueForms(t *testing.T) {
	c := cleanCase()
	c.ValorCondenacao = "1500.50"
	if eval := Evaluate(c); eval.Decision != model.DecisionApproved {
		t.Errorf("Expected numeric string to parse, got %s (%v)", eval.Decision, eval.Citations)
	}

	c.ValorCondenacao = "500"
	if eval := Evaluate(c); eval.Decision != model.DecisionRejected {
		t.Errorf("Expected low numeric string to reject, got %s", eval.Decision)
	}

	// Booleans coerce to 0/1, the loose numeric semantics of the intake feed.
	c.ValorCondenacao = true
	if eval := Evaluate(c); eval.Decision != model.DecisionRejected {
		t.Errorf("Expected boolean value to coerce below threshold, got %s", eval.Decision)
	}

	c.ValorCondenacao = nil
	if eval := Evaluate(c); eval.Decision != model.DecisionApproved {
		t.Errorf("Expected absent value to pass silently, got %s (%v)", eval.Decision, eval.Citations)
	}
}

func TestEvaluate_NotFinalJudgmentRejected(t *testing.T) {
	c := cleanCase()
	c.TransitadoEmJulgado = boolPtr(false)

	eval := Evaluate(c)

	if eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected, got %s", eval.Decision)
	}
	if len(eval.Citations) != 1 || eval.Citations[0] != "POL-1" {
		t.Errorf("Expected citations [POL-1], got %v", eval.Citations)
	}
}

func TestEvaluate_FalseJudgmentOverridesIncomplete(t *testing.T) {
	// POL-8 alone means incomplete, but an explicit transitado=false must
	// still reject even when POL-8 is also cited.
	c := cleanCase()
	c.TransitadoEmJulgado = boolPtr(false)
	c.Fase = ""

	eval := Evaluate(c)

	if eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected, got %s", eval.Decision)
	}
	want := []string{"POL-1", "POL-8"}
	if len(eval.Citations) != 2 || eval.Citations[0] != want[0] || eval.Citations[1] != want[1] {
		t.Errorf("Expected citations %v, got %v", want, eval.Citations)
	}
}

func TestEvaluate_MissingTransitProofIncomplete(t *testing.T) {
	c := cleanCase()
	c.TransitadoEmJulgado = nil
	c.Docs = nil

	eval := Evaluate(c)

	if eval.Decision != model.DecisionIncomplete {
		t.Errorf("Expected incomplete, got %s", eval.Decision)
	}
	if len(eval.Citations) != 1 || eval.Citations[0] != "POL-8" {
		t.Errorf("Expected citations [POL-8], got %v", eval.Citations)
	}
}

func TestEvaluate_TransitProofDocumentSuffices(t *testing.T) {
	c := cleanCase()
	c.TransitadoEmJulgado = nil
	c.Docs = map[string]any{"comprovante_transito": true}

	eval := Evaluate(c)

	if eval.Decision != model.DecisionApproved {
		t.Errorf("Expected approved with transit proof document, got %s (%v)", eval.Decision, eval.Citations)
	}
}

func TestEvaluate_PhaseBranches(t *testing.T) {
	c := cleanCase()
	c.Fase = "conhecimento"
	if eval := Evaluate(c); eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected for non-execution phase, got %s", eval.Decision)
	}

	c.Fase = ""
	if eval := Evaluate(c); eval.Decision != model.DecisionIncomplete {
		t.Errorf("Expected incomplete for missing phase, got %s", eval.Decision)
	}

	c.Fase = "Execução Definitiva"
	if eval := Evaluate(c); eval.Decision != model.DecisionApproved {
		t.Errorf("Expected approved for execution phase, got %s (%v)", eval.Decision, eval.Citations)
	}
}

func TestEvaluate_IncompleteTrumpedOnlyByRejection(t *testing.T) {
	// POL-1 via phase plus POL-8 via missing transit proof: POL-8 neutralizes
	// the POL-1-only rejection clause, so the case is incomplete.
	c := cleanCase()
	c.TransitadoEmJulgado = nil
	c.Docs = nil
	c.Fase = "conhecimento"

	eval := Evaluate(c)

	if eval.Decision != model.DecisionIncomplete {
		t.Errorf("Expected incomplete, got %s", eval.Decision)
	}
	want := []string{"POL-8", "POL-1"}
	if len(eval.Citations) != 2 || eval.Citations[0] != want[0] || eval.Citations[1] != want[1] {
		t.Errorf("Expected citations %v, got %v", want, eval.Citations)
	}
}

func TestEvaluate_CitationOrderAndDedupe(t *testing.T) {
	c := model.CaseInput{
		Natureza:            "trabalhista",
		ValorCondenacao:     "not-a-number",
		TransitadoEmJulgado: boolPtr(false),
		Fase:                "inicial",
	}

	eval := Evaluate(c)

	// POL-1 is matched twice (transitado and fase) but cited once.
	want := []string{"POL-4", "POL-8", "POL-1"}
	if len(eval.Citations) != len(want) {
		t.Fatalf("Expected citations %v, got %v", want, eval.Citations)
	}
	for i := range want {
		if eval.Citations[i] != want[i] {
			t.Errorf("Citation %d: expected %s, got %s", i, want[i], eval.Citations[i])
		}
	}

	// Reasons are not deduplicated: one per matched branch.
	if len(eval.Reasons) != 4 {
		t.Errorf("Expected 4 reasons, got %d: %v", len(eval.Reasons), eval.Reasons)
	}

	if eval.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected, got %s", eval.Decision)
	}
}

func TestEvaluate_EmptyCase(t *testing.T) {
	eval := Evaluate(model.CaseInput{})

	// No transit proof and no phase: two POL-8 matches, one citation.
	if eval.Decision != model.DecisionIncomplete {
		t.Errorf("Expected incomplete, got %s", eval.Decision)
	}
	if len(eval.Citations) != 1 || eval.Citations[0] != "POL-8" {
		t.Errorf("Expected citations [POL-8], got %v", eval.Citations)
	}
	if len(eval.Reasons) != 2 {
		t.Errorf("Expected 2 reasons, got %v", eval.Reasons)
	}
}

func TestRules_TableShape(t *testing.T) {
	rules := Rules()

	if len(rules) != 8 {
		t.Fatalf("Expected 8 rules, got %d", len(rules))
	}
	for i, r := range rules {
		wantID := "POL-" + string(rune('1'+i))
		if r.ID != wantID {
			t.Errorf("Rule %d: expected ID %s, got %s", i, wantID, r.ID)
		}
		if r.Text == "" {
			t.Errorf("Rule %s has empty text", r.ID)
		}
	}

	// Mutating the returned slice must not affect the table.
	rules[0].Text = "changed"
	if text, _ := Text("POL-1"); text == "changed" {
		t.Error("Rules() must return a copy")
	}
}

func TestTexts_SkipsUnknownIDs(t *testing.T) {
	texts := Texts([]string{"POL-3", "POL-99", "POL-4"})

	if len(texts) != 2 {
		t.Fatalf("Expected 2 texts, got %d: %v", len(texts), texts)
	}
	if texts[0] != "Valor de condenação inferior a R$ 1.000,00 → não compra." {
		t.Errorf("Unexpected first text: %q", texts[0])
	}
}

func TestSources_KeepsUnknownIDsWithEmptyText(t *testing.T) {
	sources := Sources([]string{"POL-4", "POL-99"})

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].ID != "POL-4" || sources[0].Text == "" {
		t.Errorf("Expected POL-4 with text, got %+v", sources[0])
	}
	if sources[1].ID != "POL-99" || sources[1].Text != "" {
		t.Errorf("Expected POL-99 with empty text, got %+v", sources[1])
	}
}
