// Package rag orchestrates the vector store, the embedder, and the grounder
// into the operations exposed by the HTTP API and the CLI: collection
// management, retrieval-augmented question answering, policy seeding, and
// case verification.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/credilex/parecer/internal/embed"
	"github.com/credilex/parecer/internal/ground"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/policy"
	"github.com/credilex/parecer/internal/store"
)

// sourceTextLimit caps the chunk text echoed back with answers
const sourceTextLimit = 240

// Service wires the retrieval stack together. All operations embed with the
// same embedder that indexed the documents, so query and passage vectors
// live in the same space.
type Service struct {
	store    store.Store
	embedder embed.Embedder
	grounder *ground.Grounder

	policyCollection string
	defaultTopK      int
}

// New creates a Service. The policy collection name and the default
// retrieval depth come from config; zero values fall back to the
// built-in defaults.
func New(st store.Store, embedder embed.Embedder, grounder *ground.Grounder, config *model.Config) *Service {
	policyCollection := config.Ingest.PolicyCollection
	if policyCollection == "" {
		policyCollection = "policy"
	}

	topK := config.Retrieval.TopK
	if topK <= 0 {
		topK = 3
	}

	return &Service{
		store:            st,
		embedder:         embedder,
		grounder:         grounder,
		policyCollection: policyCollection,
		defaultTopK:      topK,
	}
}

// Source is one retrieved chunk backing an answer. Text is truncated for
// response size; Metadata and Distance come straight from the store.
type Source struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Distance float64        `json:"distance"`
}

// Answer bundles a grounded answer with the chunks that informed it.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Verification is the complete verification response: the deterministic
// evaluation plus a generated rationale and the cited rule texts.
type Verification struct {
	Decision  model.Decision       `json:"decision"`
	Citations []string             `json:"citations"`
	Reasons   []string             `json:"reasons"`
	Rationale string               `json:"rationale"`
	Sources   []model.PolicySource `json:"sources"`
}

// AddResult reports a document insertion.
type AddResult struct {
	Added      int      `json:"added"`
	IDs        []string `json:"ids"`
	CountAfter int      `json:"count_after"`
}

// SeedResult reports a policy seeding run.
type SeedResult struct {
	Collection string `json:"collection"`
	Upserted   int    `json:"added_or_updated"`
	Count      int    `json:"count"`
}

// CollectionInfo names a collection and its document count.
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Ask answers a question using only chunks retrieved from the named
// collection. topK <= 0 selects the configured default. An empty collection
// yields the grounder's fixed not-found answer and no sources.
func (s *Service) Ask(ctx context.Context, collection, question string, topK int) (*Answer, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("rag: collection is required")
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("rag: question is required")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{question}, embed.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	result, err := s.store.Query(ctx, collection, vectors[0], topK)
	if err != nil {
		return nil, err
	}

	answer, err := s.grounder.Answer(ctx, result.Documents, question)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(result.Documents))
	for i, text := range result.Documents {
		sources = append(sources, Source{
			Text:     truncateText(text, sourceTextLimit),
			Metadata: result.Metadatas[i],
			Distance: result.Distances[i],
		})
	}

	return &Answer{Answer: answer, Sources: sources}, nil
}

// Verify evaluates a case against the purchasing policies and explains the
// outcome. The decision itself never depends on the model; only the
// rationale wording does.
func (s *Service) Verify(ctx context.Context, input model.CaseInput) (*Verification, error) {
	evaluation := policy.Evaluate(input)

	rationale, err := s.grounder.Rationale(ctx, evaluation.Decision, evaluation.Citations)
	if err != nil {
		return nil, fmt.Errorf("generating rationale: %w", err)
	}

	return &Verification{
		Decision:  evaluation.Decision,
		Citations: evaluation.Citations,
		Reasons:   evaluation.Reasons,
		Rationale: rationale,
		Sources:   policy.Sources(evaluation.Citations),
	}, nil
}

// SeedPolicies upserts the purchasing rules into the policy collection under
// their stable rule IDs. Safe to run repeatedly.
func (s *Service) SeedPolicies(ctx context.Context) (*SeedResult, error) {
	rules := policy.Rules()

	ids := make([]string, len(rules))
	texts := make([]string, len(rules))
	metas := make([]map[string]any, len(rules))
	for i, rule := range rules {
		ids[i] = rule.ID
		texts[i] = rule.Text
		metas[i] = map[string]any{"rule_id": rule.ID}
	}

	vectors, err := s.embedder.Embed(ctx, texts, embed.ModePassage)
	if err != nil {
		return nil, fmt.Errorf("embedding policy rules: %w", err)
	}

	if err := s.store.Upsert(ctx, s.policyCollection, ids, texts, metas, vectors); err != nil {
		return nil, err
	}

	count, err := s.store.Count(ctx, s.policyCollection)
	if err != nil {
		return nil, err
	}

	return &SeedResult{
		Collection: s.policyCollection,
		Upserted:   len(ids),
		Count:      count,
	}, nil
}

// QueryPolicies retrieves the policy rules nearest to the given text.
func (s *Service) QueryPolicies(ctx context.Context, text string, topK int) (*store.QueryResult, error) {
	return s.QueryCollection(ctx, s.policyCollection, text, topK)
}

// QueryCollection embeds text in query mode and returns the nearest chunks.
// topK <= 0 selects the configured default.
func (s *Service) QueryCollection(ctx context.Context, name, text string, topK int) (*store.QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("rag: query text is required")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{text}, embed.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return s.store.Query(ctx, name, vectors[0], topK)
}

// AddDocuments embeds texts in passage mode and adds them to the collection.
// Missing ids are filled with UUIDs; missing metadatas with empty maps.
// Duplicate ids fail the whole batch with store.ErrDuplicateID.
func (s *Service) AddDocuments(ctx context.Context, collection string, texts []string, metas []map[string]any, ids []string) (*AddResult, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("rag: at least one text is required")
	}
	if len(ids) > 0 && len(ids) != len(texts) {
		return nil, fmt.Errorf("rag: ids length %d does not match texts length %d", len(ids), len(texts))
	}
	if len(metas) > 0 && len(metas) != len(texts) {
		return nil, fmt.Errorf("rag: metadatas length %d does not match texts length %d", len(metas), len(texts))
	}

	if len(ids) == 0 {
		ids = make([]string, len(texts))
		for i := range ids {
			ids[i] = uuid.New().String()
		}
	}
	if len(metas) == 0 {
		metas = make([]map[string]any, len(texts))
		for i := range metas {
			metas[i] = map[string]any{}
		}
	}

	vectors, err := s.embedder.Embed(ctx, texts, embed.ModePassage)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}

	if err := s.store.Add(ctx, collection, ids, texts, metas, vectors); err != nil {
		return nil, err
	}

	count, err := s.store.Count(ctx, collection)
	if err != nil {
		return nil, err
	}

	return &AddResult{Added: len(ids), IDs: ids, CountAfter: count}, nil
}

// CreateCollection creates the named collection if it does not exist.
func (s *Service) CreateCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("rag: collection name is required")
	}
	return s.store.CreateCollection(ctx, name)
}

// ListCollections returns the names of all collections.
func (s *Service) ListCollections(ctx context.Context) ([]string, error) {
	return s.store.ListCollections(ctx)
}

// CollectionInfo returns the name and document count of a collection.
// Absent collections yield store.ErrCollectionNotFound.
func (s *Service) CollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	count, err := s.store.Count(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CollectionInfo{Name: name, Count: count}, nil
}

// truncateText caps text at limit runes, marking the cut with an ellipsis.
func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
