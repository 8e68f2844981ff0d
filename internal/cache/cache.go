package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/credilex/parecer/internal/model"
)

// Cache defines the interface for byte caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from its parts. Parts are hashed with a
// separator so ("ab","c") and ("a","bc") never collide. Used for fetched
// pages (url) and embeddings (provider, model, mode, text).
func Key(parts ...string) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return "parecer:v1:" + hex.EncodeToString(h.Sum(nil))
}

// Dir resolves the cache directory, defaulting to ~/.parecer/cache
func Dir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".parecer", "cache"), nil
}

// New builds the cache from configuration. Returns (nil, nil) when caching
// is disabled; callers treat a nil cache as a pass-through.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dir, err := Dir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return NewLayeredCache(cfg.MemoryTTL, dir, cfg.DiskTTL), nil
}
