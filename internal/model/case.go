package model

// CaseInput describes a judicial credit offered for purchase.
// Field names follow the intake contract used by the desk analysts;
// valor_condenacao is deliberately untyped so that malformed payloads
// reach the rule engine instead of failing request binding.
type CaseInput struct {
	Natureza            string         `json:"natureza"`                        // nature of the claim (e.g., "cível", "trabalhista")
	ValorCondenacao     any            `json:"valor_condenacao,omitempty"`      // award value; number, numeric string, or absent
	TransitadoEmJulgado *bool          `json:"transitado_em_julgado,omitempty"` // res judicata: true, false, or unknown
	Fase                string         `json:"fase,omitempty"`                  // procedural phase (e.g., "execução")
	Docs                map[string]any `json:"docs,omitempty"`                  // supporting documents present (e.g., "comprovante_transito")
}

// Decision is the outcome of evaluating a case against the purchasing policies.
type Decision string

const (
	DecisionApproved   Decision = "approved"   // no impediment found
	DecisionRejected   Decision = "rejected"   // at least one blocking rule matched
	DecisionIncomplete Decision = "incomplete" // essential information missing
)

// Evaluation is the deterministic result of the rule engine.
// Citations reference policy rule IDs (POL-1 .. POL-8), deduplicated in
// first-seen order; reasons are short Portuguese sentences, one per match.
type Evaluation struct {
	Decision  Decision `json:"decision"`
	Citations []string `json:"citations"`
	Reasons   []string `json:"reasons"`
}

// PolicySource pairs a cited rule ID with its full text, returned alongside
// verification results for transparency.
type PolicySource struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
