package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/credilex/parecer/internal/archive"
	"github.com/credilex/parecer/internal/embed"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/store"
)

func TestIngestor_IngestText_StoresChunks(t *testing.T) {
	embedder := &fakeEmbedder{}
	memStore := store.NewMemoryStore()
	ingestor := New(embedder, memStore, nil, nil, ingestDefaults())

	text := "Primeira frase do processo. Segunda frase do processo. Terceira frase relevante do processo."
	result, err := ingestor.IngestText(context.Background(), TextRequest{
		Collection: "docs",
		Text:       text,
		Source:     "processo.txt",
		ChunkSize:  60,
		Overlap:    0,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Added < 2 {
		t.Fatalf("Expected multiple chunks for a small chunk size, got %d", result.Added)
	}
	if result.IDs[0] != "processo.txt-000000" {
		t.Errorf("Expected deterministic chunk id, got %q", result.IDs[0])
	}
	if embedder.lastMode != embed.ModePassage {
		t.Errorf("Expected passage mode, got %q", embedder.lastMode)
	}

	count, err := memStore.Count(context.Background(), "docs")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != result.Added {
		t.Errorf("Expected %d stored chunks, got %d", result.Added, count)
	}

	query, err := memStore.Query(context.Background(), "docs", embedder.vectors[0], 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if query.Metadatas[0]["source"] != "processo.txt" {
		t.Errorf("Expected source metadata, got %v", query.Metadatas[0])
	}
	if _, ok := query.Metadatas[0]["i"]; !ok {
		t.Errorf("Expected chunk index metadata, got %v", query.Metadatas[0])
	}
}

func TestIngestor_IngestText_EmptyTextYieldsEmptyResult(t *testing.T) {
	embedder := &fakeEmbedder{}
	ingestor := New(embedder, store.NewMemoryStore(), nil, nil, ingestDefaults())

	result, err := ingestor.IngestText(context.Background(), TextRequest{
		Collection: "docs",
		Text:       "   \n\t  ",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Added != 0 {
		t.Errorf("Expected zero chunks, got %d", result.Added)
	}
	if result.IDs == nil || len(result.IDs) != 0 {
		t.Errorf("Expected empty id list, got %v", result.IDs)
	}
	if embedder.calls != 0 {
		t.Errorf("Expected no embedding calls for empty text, got %d", embedder.calls)
	}
}

func TestIngestor_IngestText_DefaultsApplied(t *testing.T) {
	embedder := &fakeEmbedder{}
	memStore := store.NewMemoryStore()
	ingestor := New(embedder, memStore, nil, nil, ingestDefaults())

	result, err := ingestor.IngestText(context.Background(), TextRequest{
		Text:    "Uma frase curta e completa.",
		Overlap: -1,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Collection != "docs" {
		t.Errorf("Expected default collection, got %q", result.Collection)
	}
	if !strings.HasPrefix(result.IDs[0], "manual-") {
		t.Errorf("Expected default source in id, got %q", result.IDs[0])
	}
}

func TestIngestor_IngestText_ReingestDoesNotDuplicate(t *testing.T) {
	embedder := &fakeEmbedder{}
	memStore := store.NewMemoryStore()
	ingestor := New(embedder, memStore, nil, nil, ingestDefaults())

	req := TextRequest{Collection: "docs", Text: "Frase estável do documento.", Source: "doc.txt"}
	if _, err := ingestor.IngestText(context.Background(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := ingestor.IngestText(context.Background(), req); err != nil {
		t.Fatalf("Expected no error on re-ingestion, got %v", err)
	}

	count, err := memStore.Count(context.Background(), "docs")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("Expected upsert to avoid duplicates, got count %d", count)
	}
}

func TestIngestor_IngestText_ArchivesOriginal(t *testing.T) {
	arc, err := archive.NewLocalArchive(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	ingestor := New(&fakeEmbedder{}, store.NewMemoryStore(), arc, nil, ingestDefaults())

	text := "Documento original a preservar."
	result, err := ingestor.IngestText(context.Background(), TextRequest{Collection: "docs", Text: text})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.ArchivePath == "" {
		t.Fatal("Expected archive path in result")
	}

	stored, err := arc.Get(context.Background(), result.ArchivePath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(stored) != text {
		t.Errorf("Expected archived original, got %q", stored)
	}
}

func TestIngestor_IngestText_InvalidChunkSize(t *testing.T) {
	defaults := ingestDefaults()
	defaults.ChunkSize = -5
	ingestor := New(&fakeEmbedder{}, store.NewMemoryStore(), nil, nil, defaults)

	_, err := ingestor.IngestText(context.Background(), TextRequest{Text: "Qualquer texto."})
	if err == nil {
		t.Fatal("Expected error for invalid chunk size")
	}
}

func TestIngestor_IngestURL_UsesURLAsSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<p>Sentença transitada em julgado. Valor da condenação fixado.</p>")
	}))
	defer server.Close()

	embedder := &fakeEmbedder{}
	memStore := store.NewMemoryStore()
	fetcher := NewFetcher(fetchConfig(), nil)
	ingestor := New(embedder, memStore, nil, fetcher, ingestDefaults())

	result, err := ingestor.IngestURL(context.Background(), URLRequest{
		Collection: "docs",
		URL:        server.URL + "/sentenca",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Added == 0 {
		t.Fatal("Expected chunks from fetched page")
	}
	if !strings.HasPrefix(result.IDs[0], server.URL) {
		t.Errorf("Expected URL as chunk source, got %q", result.IDs[0])
	}
}

func TestIngestor_IngestURL_RequiresFetcher(t *testing.T) {
	ingestor := New(&fakeEmbedder{}, store.NewMemoryStore(), nil, nil, ingestDefaults())

	_, err := ingestor.IngestURL(context.Background(), URLRequest{URL: "http://tribunal.example"})
	if err == nil {
		t.Fatal("Expected error without a fetcher")
	}
}

// fakeEmbedder records calls and returns small deterministic vectors
type fakeEmbedder struct {
	calls    int
	lastMode embed.Mode
	vectors  [][]float32
}

func (f *fakeEmbedder) Name() string {
	return "fake"
}

func (f *fakeEmbedder) Dimensions() int {
	return 2
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, mode embed.Mode) ([][]float32, error) {
	f.calls++
	f.lastMode = mode
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	f.vectors = vectors
	return vectors, nil
}

func ingestDefaults() model.IngestConfig {
	return model.IngestConfig{
		Collection:       "docs",
		PolicyCollection: "policy",
		ChunkSize:        800,
		Overlap:          150,
		MaxBodyBytes:     2_000_000,
		UserAgent:        "parecer/0.1",
		RatePerHost:      100,
		Concurrency:      4,
	}
}
