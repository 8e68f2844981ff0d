// Package ingest turns raw documents into embedded chunks in the vector
// store: segment, embed in passage mode, upsert under deterministic ids.
package ingest

import (
	"context"
	"fmt"

	"github.com/credilex/parecer/internal/archive"
	"github.com/credilex/parecer/internal/embed"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/segment"
	"github.com/credilex/parecer/internal/store"
)

// Ingestor coordinates segmentation, embedding, archival and storage
type Ingestor struct {
	embedder embed.Embedder
	store    store.Store
	archive  archive.Archive // nil when archival is disabled
	fetcher  *Fetcher
	defaults model.IngestConfig
}

// New creates an ingestor with injected dependencies. The archive may be nil.
func New(embedder embed.Embedder, st store.Store, arc archive.Archive, fetcher *Fetcher, defaults model.IngestConfig) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		store:    st,
		archive:  arc,
		fetcher:  fetcher,
		defaults: defaults,
	}
}

// TextRequest ingests a document given as text. Zero values fall back to
// the configured defaults; Overlap uses -1 for "default" so an explicit
// zero overlap stays possible.
type TextRequest struct {
	Collection string
	Text       string
	Source     string
	ChunkSize  int
	Overlap    int
}

// URLRequest ingests a document fetched from a URL
type URLRequest struct {
	Collection string
	URL        string
	ChunkSize  int
	Overlap    int
}

// Result reports what one ingestion stored
type Result struct {
	Collection  string   `json:"collection"`
	Added       int      `json:"added"`
	IDs         []string `json:"ids"`
	ArchivePath string   `json:"archive_path,omitempty"`
}

// IngestText segments, embeds and upserts a text document. Text that
// segments to nothing yields an empty result, not an error.
func (ing *Ingestor) IngestText(ctx context.Context, req TextRequest) (*Result, error) {
	collection := req.Collection
	if collection == "" {
		collection = ing.defaults.Collection
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}
	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = ing.defaults.ChunkSize
	}
	overlap := req.Overlap
	if overlap < 0 {
		overlap = ing.defaults.Overlap
	}

	segmenter, err := segment.New(chunkSize, overlap)
	if err != nil {
		return nil, err
	}

	result := &Result{Collection: collection, IDs: []string{}}

	if ing.archive != nil && req.Text != "" {
		path, err := ing.archive.Put(ctx, source, []byte(req.Text))
		if err != nil {
			return nil, fmt.Errorf("archive document: %w", err)
		}
		result.ArchivePath = path
	}

	chunks := segmenter.Split(req.Text)
	if len(chunks) == 0 {
		return result, nil
	}

	vectors, err := ing.embedder.Embed(ctx, chunks, embed.ModePassage)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	ids := make([]string, len(chunks))
	metas := make([]map[string]any, len(chunks))
	for i := range chunks {
		ids[i] = segment.ChunkID(source, i)
		metas[i] = map[string]any{"source": source, "i": i}
	}

	if err := ing.store.Upsert(ctx, collection, ids, chunks, metas, vectors); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	result.Added = len(chunks)
	result.IDs = ids
	return result, nil
}

// IngestURL fetches a page and ingests its visible text, with the URL as
// the chunk source
func (ing *Ingestor) IngestURL(ctx context.Context, req URLRequest) (*Result, error) {
	if ing.fetcher == nil {
		return nil, fmt.Errorf("URL ingestion is not configured")
	}
	if req.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}

	text, err := ing.fetcher.FetchText(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	return ing.IngestText(ctx, TextRequest{
		Collection: req.Collection,
		Text:       text,
		Source:     req.URL,
		ChunkSize:  req.ChunkSize,
		Overlap:    req.Overlap,
	})
}
