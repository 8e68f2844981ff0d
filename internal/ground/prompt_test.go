package ground

import (
	"strings"
	"testing"
)

func TestClassifyModel(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  PromptStyle
	}{
		{"t5 family", "unicamp-dl/ptt5-base-portuguese-vocab", StyleCompact},
		{"bart family", "facebook/bart-large-cnn", StyleCompact},
		{"mbart family", "facebook/mbart-large-50", StyleCompact},
		{"pegasus uppercase", "PEGASUS-xsum", StyleCompact},
		{"openai chat", "gpt-4o-mini", StyleInstruction},
		{"llama", "llama3.1:8b", StyleInstruction},
		{"empty name", "", StyleInstruction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyModel(tt.model); got != tt.want {
				t.Errorf("ClassifyModel(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestCleanChunks(t *testing.T) {
	chunks := CleanChunks([]string{"  primeiro  ", "", "   ", "segundo"})

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "primeiro" || chunks[1] != "segundo" {
		t.Errorf("Unexpected chunks: %v", chunks)
	}
}

func TestJoinContext_CapsAtFiveChunks(t *testing.T) {
	chunks := []string{"um", "dois", "três", "quatro", "cinco", "seis", "sete"}

	context := JoinContext(chunks)

	want := "um\n\n---\n\ndois\n\n---\n\ntrês\n\n---\n\nquatro\n\n---\n\ncinco"
	if context != want {
		t.Errorf("Expected %q, got %q", want, context)
	}
	if strings.Contains(context, "seis") {
		t.Error("Expected sixth chunk to be dropped")
	}
}

func TestBuildPrompt_Compact(t *testing.T) {
	prompt := BuildPrompt(StyleCompact, "O valor é dez.", "Qual o valor?")

	want := "Contexto:\nO valor é dez.\n\nPergunta: Qual o valor?\nResponda em 1–2 frases, usando apenas o contexto acima:"
	if prompt != want {
		t.Errorf("Expected %q, got %q", want, prompt)
	}
}

func TestBuildPrompt_Instruction(t *testing.T) {
	prompt := BuildPrompt(StyleInstruction, "O valor é dez.", "Qual o valor?")

	if !strings.HasPrefix(prompt, "Você responde em português") {
		t.Errorf("Expected prompt to open with the system instructions, got %q", prompt)
	}
	if !strings.Contains(prompt, "### CONTEXTO\nO valor é dez.") {
		t.Error("Expected context section")
	}
	if !strings.Contains(prompt, "### PERGUNTA\nQual o valor?") {
		t.Error("Expected question section")
	}
	if !strings.HasSuffix(prompt, "### RESPOSTA\n") {
		t.Errorf("Expected prompt to end with the answer header, got %q", prompt)
	}
}
