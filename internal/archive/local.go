package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalArchive stores documents under a base directory
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a local archive, creating the base directory if needed
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if basePath == "" {
		basePath = "./data/archive"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Put stores a document and returns its storage path
func (a *LocalArchive) Put(ctx context.Context, source string, data []byte) (string, error) {
	path := storagePath(source)
	fullPath := filepath.Join(a.basePath, path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive shard: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archived document: %w", err)
	}
	return path, nil
}

// Get retrieves a document by storage path
func (a *LocalArchive) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(a.basePath, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archived document not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read archived document: %w", err)
	}
	return data, nil
}

// Delete removes a document by storage path
func (a *LocalArchive) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(a.basePath, path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete archived document: %w", err)
	}
	return nil
}
