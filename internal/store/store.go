// Package store persists document chunks and their vectors and retrieves
// the nearest chunks for a query vector.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credilex/parecer/internal/model"
)

// Sentinel errors for contract conditions callers test with errors.Is
var (
	// ErrCollectionNotFound indicates the named collection does not exist
	ErrCollectionNotFound = errors.New("store: collection not found")

	// ErrDuplicateID indicates an Add clashed with an existing document id
	ErrDuplicateID = errors.New("store: duplicate document id")
)

// QueryResult holds four parallel lists ordered by ascending distance.
// Lists are never nil; an empty result has length zero.
type QueryResult struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
	Distances []float64        `json:"distances"`
}

// Store is the vector store contract. Add fails on id clashes, Upsert
// replaces. Query on an absent collection returns empty lists.
type Store interface {
	CreateCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	Count(ctx context.Context, name string) (int, error)
	Add(ctx context.Context, name string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error
	Upsert(ctx context.Context, name string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error
	Query(ctx context.Context, name string, vector []float32, topK int) (*QueryResult, error)
	Close()
}

// New creates a vector store based on the configured driver
func New(ctx context.Context, config model.StoreConfig, dimensions int) (Store, error) {
	switch config.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, config.DSN, dimensions)
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: memory, postgres)", config.Driver)
	}
}

// emptyResult returns a QueryResult with allocated, empty lists
func emptyResult() *QueryResult {
	return &QueryResult{
		IDs:       []string{},
		Documents: []string{},
		Metadatas: []map[string]any{},
		Distances: []float64{},
	}
}

// queryLimit clamps topK to at least one result
func queryLimit(topK int) int {
	if topK < 1 {
		return 1
	}
	return topK
}

// validateBatch checks that the parallel input lists line up. metas may be
// nil when no metadata accompanies the documents.
func validateBatch(ids, texts []string, metas []map[string]any, vectors [][]float32) error {
	if len(texts) != len(ids) {
		return fmt.Errorf("store: %d ids but %d texts", len(ids), len(texts))
	}
	if len(vectors) != len(ids) {
		return fmt.Errorf("store: %d ids but %d vectors", len(ids), len(vectors))
	}
	if metas != nil && len(metas) != len(ids) {
		return fmt.Errorf("store: %d ids but %d metadatas", len(ids), len(metas))
	}
	return nil
}

// metaAt returns the metadata for position i, tolerating a nil metas list
func metaAt(metas []map[string]any, i int) map[string]any {
	if metas == nil {
		return nil
	}
	return metas[i]
}
