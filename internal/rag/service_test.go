package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/credilex/parecer/internal/embed"
	"github.com/credilex/parecer/internal/ground"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/store"
)

func TestAsk_AnswersFromRetrievedContext(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"O prazo para embargos é de 15 dias.":  {1, 0},
		"O substabelecimento reservou poderes.": {0, 1},
		"Qual é o prazo para embargos?":         {1, 0.1},
	}}
	backend := &mockBackend{response: "O prazo é de 15 dias."}
	service := newTestService(backend, embedder, 0)

	seedDocuments(t, service, "docs",
		[]string{"O prazo para embargos é de 15 dias.", "O substabelecimento reservou poderes."},
		[]map[string]any{{"source": "manual"}, {"source": "manual"}},
	)

	answer, err := service.Ask(context.Background(), "docs", "Qual é o prazo para embargos?", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if answer.Answer != "O prazo é de 15 dias." {
		t.Errorf("Expected generated answer, got %q", answer.Answer)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].Text != "O prazo para embargos é de 15 dias." {
		t.Errorf("Expected nearest chunk first, got %q", answer.Sources[0].Text)
	}
	if answer.Sources[0].Distance > answer.Sources[1].Distance {
		t.Errorf("Expected sources ordered by ascending distance, got %v then %v",
			answer.Sources[0].Distance, answer.Sources[1].Distance)
	}
	if answer.Sources[0].Metadata["source"] != "manual" {
		t.Errorf("Expected metadata carried through, got %v", answer.Sources[0].Metadata)
	}
	if embedder.lastMode != embed.ModeQuery {
		t.Errorf("Expected question embedded in query mode, got %q", embedder.lastMode)
	}
}

func TestAsk_TruncatesLongSourceText(t *testing.T) {
	long := strings.Repeat("x", 300)
	embedder := &fakeEmbedder{}
	service := newTestService(&mockBackend{response: "Resposta curta e direta."}, embedder, 0)

	seedDocuments(t, service, "docs", []string{long}, nil)

	answer, err := service.Ask(context.Background(), "docs", "pergunta qualquer?", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(answer.Sources))
	}
	text := answer.Sources[0].Text
	if !strings.HasSuffix(text, "...") {
		t.Errorf("Expected truncated source to end with ellipsis, got %q", text)
	}
	if got := len([]rune(text)); got != 243 {
		t.Errorf("Expected 240 runes plus ellipsis, got %d", got)
	}
}

func TestAsk_ShortSourceKeptIntact(t *testing.T) {
	embedder := &fakeEmbedder{}
	service := newTestService(&mockBackend{response: "Resposta curta e direta."}, embedder, 0)

	seedDocuments(t, service, "docs", []string{"Texto curto."}, nil)

	answer, err := service.Ask(context.Background(), "docs", "pergunta qualquer?", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if answer.Sources[0].Text != "Texto curto." {
		t.Errorf("Expected short source untouched, got %q", answer.Sources[0].Text)
	}
}

func TestAsk_EmptyCollectionReturnsNotFound(t *testing.T) {
	embedder := &fakeEmbedder{}
	service := newTestService(nil, embedder, 0)

	answer, err := service.Ask(context.Background(), "vazia", "Qual é o prazo?", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if answer.Answer != ground.NotFound {
		t.Errorf("Expected the fixed not-found answer, got %q", answer.Answer)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Errorf("Expected empty non-nil sources, got %v", answer.Sources)
	}
}

func TestAsk_EchoingBackendFallsBackToContext(t *testing.T) {
	embedder := &fakeEmbedder{}
	backend := &mockBackend{echo: true}
	service := newTestService(backend, embedder, 0)

	seedDocuments(t, service, "docs",
		[]string{"A valid grounded sentence about X. Outro detalhe do processo."}, nil)

	answer, err := service.Ask(context.Background(), "docs", "unrelated question?", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if answer.Answer != "A valid grounded sentence about X." {
		t.Errorf("Expected extractive fallback to first context sentence, got %q", answer.Answer)
	}
	if backend.calls == 0 {
		t.Error("Expected the backend to be consulted before falling back")
	}
}

func TestAsk_DefaultTopK(t *testing.T) {
	embedder := &fakeEmbedder{}
	service := newTestService(&mockBackend{response: "Resposta razoável aqui."}, embedder, 2)

	seedDocuments(t, service, "docs",
		[]string{"Primeiro texto aqui.", "Segundo texto aqui.", "Terceiro texto aqui."}, nil)

	answer, err := service.Ask(context.Background(), "docs", "pergunta qualquer?", 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(answer.Sources) != 2 {
		t.Errorf("Expected configured default of 2 sources, got %d", len(answer.Sources))
	}
}

func TestAsk_RequiresCollectionAndQuestion(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	if _, err := service.Ask(context.Background(), "", "pergunta?", 3); err == nil {
		t.Error("Expected error for missing collection")
	}
	if _, err := service.Ask(context.Background(), "docs", "   ", 3); err == nil {
		t.Error("Expected error for blank question")
	}
}

func TestAsk_EmbedderErrorPropagates(t *testing.T) {
	embedErr := errors.New("embed down")
	service := newTestService(nil, &fakeEmbedder{err: embedErr}, 0)

	_, err := service.Ask(context.Background(), "docs", "pergunta?", 3)
	if !errors.Is(err, embedErr) {
		t.Errorf("Expected embedder error to propagate, got %v", err)
	}
}

func TestVerify_RejectsTrabalhistaCase(t *testing.T) {
	backend := &mockBackend{response: "Rejeitado por se tratar de crédito trabalhista, vedado pela POL-4."}
	service := newTestService(backend, &fakeEmbedder{}, 0)

	transitado := false
	verification, err := service.Verify(context.Background(), model.CaseInput{
		Natureza:            "trabalhista",
		ValorCondenacao:     500,
		TransitadoEmJulgado: &transitado,
		Fase:                "",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if verification.Decision != model.DecisionRejected {
		t.Errorf("Expected rejected, got %q", verification.Decision)
	}
	for _, id := range []string{"POL-4", "POL-3", "POL-1", "POL-8"} {
		if !containsString(verification.Citations, id) {
			t.Errorf("Expected citation %s, got %v", id, verification.Citations)
		}
	}
	if len(verification.Reasons) != len(verification.Citations) {
		t.Errorf("Expected one reason per citation, got %d reasons for %d citations",
			len(verification.Reasons), len(verification.Citations))
	}
	if verification.Rationale == "" {
		t.Error("Expected a non-empty rationale")
	}
	if len(verification.Sources) != len(verification.Citations) {
		t.Fatalf("Expected one source per citation, got %d", len(verification.Sources))
	}
	for i, source := range verification.Sources {
		if source.ID != verification.Citations[i] {
			t.Errorf("Expected source %d to carry id %s, got %s", i, verification.Citations[i], source.ID)
		}
		if source.Text == "" {
			t.Errorf("Expected rule text for %s", source.ID)
		}
	}
}

func TestVerify_ApprovedCaseSkipsTheModel(t *testing.T) {
	backend := &mockBackend{response: "não deve ser usado"}
	service := newTestService(backend, &fakeEmbedder{}, 0)

	transitado := true
	verification, err := service.Verify(context.Background(), model.CaseInput{
		Natureza:            "cível",
		ValorCondenacao:     5000,
		TransitadoEmJulgado: &transitado,
		Fase:                "execução",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if verification.Decision != model.DecisionApproved {
		t.Errorf("Expected approved, got %q", verification.Decision)
	}
	if len(verification.Citations) != 0 {
		t.Errorf("Expected no citations, got %v", verification.Citations)
	}
	if !strings.HasPrefix(verification.Rationale, "Aprovado:") {
		t.Errorf("Expected the deterministic approval rationale, got %q", verification.Rationale)
	}
	if backend.calls != 0 {
		t.Errorf("Expected approvals to skip generation, got %d calls", backend.calls)
	}
	if len(verification.Sources) != 0 {
		t.Errorf("Expected no sources, got %v", verification.Sources)
	}
}

func TestVerify_IncompleteCase(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	verification, err := service.Verify(context.Background(), model.CaseInput{
		Natureza:        "cível",
		ValorCondenacao: "abc",
		Docs:            map[string]any{},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if verification.Decision != model.DecisionIncomplete {
		t.Errorf("Expected incomplete, got %q", verification.Decision)
	}
	if len(verification.Citations) != 1 || verification.Citations[0] != "POL-8" {
		t.Errorf("Expected deduped POL-8 citation, got %v", verification.Citations)
	}
	if verification.Rationale == "" {
		t.Error("Expected extractive rationale with a nil backend")
	}
}

func TestSeedPolicies_UpsertsAllRules(t *testing.T) {
	embedder := &fakeEmbedder{}
	service := newTestService(nil, embedder, 0)

	result, err := service.SeedPolicies(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Collection != "policy" {
		t.Errorf("Expected policy collection, got %q", result.Collection)
	}
	if result.Upserted != 8 {
		t.Errorf("Expected 8 rules upserted, got %d", result.Upserted)
	}
	if result.Count != 8 {
		t.Errorf("Expected 8 documents after seeding, got %d", result.Count)
	}
	if embedder.lastMode != embed.ModePassage {
		t.Errorf("Expected rules embedded in passage mode, got %q", embedder.lastMode)
	}
}

func TestSeedPolicies_Idempotent(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	if _, err := service.SeedPolicies(context.Background()); err != nil {
		t.Fatalf("Expected no error on first seed, got %v", err)
	}
	result, err := service.SeedPolicies(context.Background())
	if err != nil {
		t.Fatalf("Expected no error on reseed, got %v", err)
	}
	if result.Count != 8 {
		t.Errorf("Expected stable count of 8 after reseeding, got %d", result.Count)
	}
}

func TestQueryPolicies_ReturnsRuleMetadata(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	if _, err := service.SeedPolicies(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := service.QueryPolicies(context.Background(), "esfera trabalhista", 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.IDs) != 8 {
		t.Fatalf("Expected all 8 rules, got %d", len(result.IDs))
	}
	for i, id := range result.IDs {
		if result.Metadatas[i]["rule_id"] != id {
			t.Errorf("Expected rule_id metadata %q, got %v", id, result.Metadatas[i])
		}
	}
}

func TestAddDocuments_GeneratesUUIDs(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	result, err := service.AddDocuments(context.Background(), "docs",
		[]string{"Primeiro documento.", "Segundo documento."}, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Added != 2 || result.CountAfter != 2 {
		t.Errorf("Expected 2 added and 2 total, got %d and %d", result.Added, result.CountAfter)
	}
	if len(result.IDs) != 2 || result.IDs[0] == result.IDs[1] {
		t.Fatalf("Expected 2 distinct generated ids, got %v", result.IDs)
	}
	for _, id := range result.IDs {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("Expected a UUID, got %q: %v", id, err)
		}
	}
}

func TestAddDocuments_DuplicateIDFails(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	ids := []string{"doc-1"}
	texts := []string{"Um documento qualquer."}
	if _, err := service.AddDocuments(context.Background(), "docs", texts, nil, ids); err != nil {
		t.Fatalf("Expected no error on first add, got %v", err)
	}

	_, err := service.AddDocuments(context.Background(), "docs", texts, nil, ids)
	if !errors.Is(err, store.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
}

func TestAddDocuments_ValidatesInput(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)
	ctx := context.Background()

	if _, err := service.AddDocuments(ctx, "docs", nil, nil, nil); err == nil {
		t.Error("Expected error for empty texts")
	}
	if _, err := service.AddDocuments(ctx, "docs", []string{"a", "b"}, nil, []string{"only-one"}); err == nil {
		t.Error("Expected error for id length mismatch")
	}
	if _, err := service.AddDocuments(ctx, "docs", []string{"a", "b"}, []map[string]any{{}}, nil); err == nil {
		t.Error("Expected error for metadata length mismatch")
	}
}

func TestCollectionInfo(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)

	seedDocuments(t, service, "docs", []string{"Um texto."}, nil)

	info, err := service.CollectionInfo(context.Background(), "docs")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.Name != "docs" || info.Count != 1 {
		t.Errorf("Expected docs with 1 document, got %+v", info)
	}

	_, err = service.CollectionInfo(context.Background(), "inexistente")
	if !errors.Is(err, store.ErrCollectionNotFound) {
		t.Errorf("Expected ErrCollectionNotFound, got %v", err)
	}
}

func TestCreateAndListCollections(t *testing.T) {
	service := newTestService(nil, &fakeEmbedder{}, 0)
	ctx := context.Background()

	if err := service.CreateCollection(ctx, "docs"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := service.CreateCollection(ctx, "  "); err == nil {
		t.Error("Expected error for blank collection name")
	}

	names, err := service.ListCollections(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(names) != 1 || names[0] != "docs" {
		t.Errorf("Expected [docs], got %v", names)
	}
}

// mockBackend implements llm.Backend for testing
type mockBackend struct {
	response string
	err      error
	echo     bool
	calls    int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.echo {
		return prompt, nil
	}
	return m.response, nil
}

func (m *mockBackend) IsAvailable(ctx context.Context) bool { return true }

// fakeEmbedder returns fixed vectors for known texts and a unit vector
// otherwise, so retrieval order is controlled by the test
type fakeEmbedder struct {
	vectors  map[string][]float32
	err      error
	lastMode embed.Mode
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Dimensions() int { return 2 }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, mode embed.Mode) ([][]float32, error) {
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0}
		}
	}
	return out, nil
}

func newTestService(backend *mockBackend, embedder embed.Embedder, topK int) *Service {
	config := model.DefaultConfig()
	if topK > 0 {
		config.Retrieval.TopK = topK
	}
	var grounder *ground.Grounder
	if backend != nil {
		grounder = ground.New(backend, "gpt-4o-mini")
	} else {
		grounder = ground.New(nil, "")
	}
	return New(store.NewMemoryStore(), embedder, grounder, config)
}

func seedDocuments(t *testing.T, service *Service, collection string, texts []string, metas []map[string]any) {
	t.Helper()
	if _, err := service.AddDocuments(context.Background(), collection, texts, metas, nil); err != nil {
		t.Fatalf("Expected no error seeding documents, got %v", err)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
