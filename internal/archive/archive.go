// Package archive keeps raw documents as received, before segmentation.
// Ingestion archives the original text so a chunk can always be traced back
// to its source document.
package archive

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/credilex/parecer/internal/model"
)

// Archive stores and retrieves raw documents by storage path
type Archive interface {
	// Put stores a document and returns its storage path
	Put(ctx context.Context, source string, data []byte) (string, error)

	// Get retrieves a document by storage path
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes a document by storage path
	Delete(ctx context.Context, path string) error
}

// New creates an archive based on configuration. Returns nil when archival
// is disabled; callers must handle the nil case.
func New(config model.ArchiveConfig) (Archive, error) {
	if !config.Enabled {
		return nil, nil
	}

	switch config.Type {
	case "", "local":
		return NewLocalArchive(config.LocalPath)
	case "s3":
		return NewS3Archive(config)
	default:
		return nil, fmt.Errorf("unknown archive type: %s (supported: local, s3)", config.Type)
	}
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// storagePath builds a unique path for a document. A random id prevents
// clashes between documents from the same source, and its first two
// characters shard the directory layout.
func storagePath(source string) string {
	id := uuid.New().String()
	safe := unsafePathChars.ReplaceAllString(source, "_")
	if safe == "" {
		safe = "document"
	}
	return fmt.Sprintf("%s/%s_%s.txt", id[:2], id, safe)
}
