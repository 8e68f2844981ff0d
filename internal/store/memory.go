package store

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory vector store with cosine distance. It serves
// development and tests, and pins down the contract the postgres store
// implements with pgvector.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	docs  []memoryDoc
	index map[string]int // id -> position in docs
}

type memoryDoc struct {
	id     string
	text   string
	meta   map[string]any
	vector []float32
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// CreateCollection creates the collection if it does not exist
func (s *MemoryStore) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCollection(name)
	return nil
}

// ListCollections returns collection names in sorted order
func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of documents in the collection
func (s *MemoryStore) Count(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collection, ok := s.collections[name]
	if !ok {
		return 0, ErrCollectionNotFound
	}
	return len(collection.docs), nil
}

// Add inserts documents, failing on any id that already exists
func (s *MemoryStore) Add(ctx context.Context, name string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error {
	if err := validateBatch(ids, texts, metas, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.ensureCollection(name)

	// Check the whole batch before touching the collection
	for _, id := range ids {
		if _, exists := collection.index[id]; exists {
			return ErrDuplicateID
		}
	}

	for i, id := range ids {
		collection.index[id] = len(collection.docs)
		collection.docs = append(collection.docs, memoryDoc{
			id:     id,
			text:   texts[i],
			meta:   metaAt(metas, i),
			vector: vectors[i],
		})
	}
	return nil
}

// Upsert inserts documents, replacing any that already exist
func (s *MemoryStore) Upsert(ctx context.Context, name string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error {
	if err := validateBatch(ids, texts, metas, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.ensureCollection(name)
	for i, id := range ids {
		doc := memoryDoc{
			id:     id,
			text:   texts[i],
			meta:   metaAt(metas, i),
			vector: vectors[i],
		}
		if pos, exists := collection.index[id]; exists {
			collection.docs[pos] = doc
			continue
		}
		collection.index[id] = len(collection.docs)
		collection.docs = append(collection.docs, doc)
	}
	return nil
}

// Query returns up to max(1, topK) nearest documents by cosine distance.
// An absent collection yields empty lists.
func (s *MemoryStore) Query(ctx context.Context, name string, vector []float32, topK int) (*QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collection, ok := s.collections[name]
	if !ok || len(collection.docs) == 0 {
		return emptyResult(), nil
	}

	type scored struct {
		doc      memoryDoc
		distance float64
	}
	ranked := make([]scored, 0, len(collection.docs))
	for _, doc := range collection.docs {
		ranked = append(ranked, scored{doc: doc, distance: cosineDistance(vector, doc.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	limit := queryLimit(topK)
	if limit > len(ranked) {
		limit = len(ranked)
	}

	result := emptyResult()
	for _, entry := range ranked[:limit] {
		result.IDs = append(result.IDs, entry.doc.id)
		result.Documents = append(result.Documents, entry.doc.text)
		result.Metadatas = append(result.Metadatas, entry.doc.meta)
		result.Distances = append(result.Distances, entry.distance)
	}
	return result, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() {}

// ensureCollection returns the named collection, creating it if needed.
// Callers must hold the write lock.
func (s *MemoryStore) ensureCollection(name string) *memoryCollection {
	collection, ok := s.collections[name]
	if !ok {
		collection = &memoryCollection{index: make(map[string]int)}
		s.collections[name] = collection
	}
	return collection
}

// cosineDistance returns 1 - cosine similarity, matching pgvector's <=>
// operator. Zero-magnitude vectors get the neutral distance 1.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
