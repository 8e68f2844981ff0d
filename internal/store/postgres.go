package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the postgres error code for unique constraint violations
const pgUniqueViolation = "23505"

// PostgresStore is a vector store backed by postgres with pgvector.
// One registry table tracks collections; chunks live in a single table
// keyed by (collection, id) with a vector column of fixed dimensions.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresStore connects to postgres and ensures the schema exists
func NewPostgresStore(ctx context.Context, dsn string, dimensions int) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store requires a DSN")
	}
	if dimensions <= 0 {
		dimensions = 1536
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, dimensions: dimensions}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema idempotently creates the pgvector extension and tables
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dimensions) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// schemaStatements returns the DDL for the store, in execution order
func schemaStatements(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS chunks_collection_idx ON chunks (collection)`,
	}
}

// CreateCollection registers the collection if it does not exist
func (s *PostgresStore) CreateCollection(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// ListCollections returns collection names in sorted order
func (s *PostgresStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collection name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}
	return names, nil
}

// Count returns the number of documents in the collection
func (s *PostgresStore) Count(ctx context.Context, name string) (int, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		return 0, ErrCollectionNotFound
	}

	var count int
	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chunks WHERE collection = $1`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", name, err)
	}
	return count, nil
}

// Add inserts documents, failing on any id that already exists
func (s *PostgresStore) Add(ctx context.Context, name string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error {
	const insertSQL = `INSERT INTO chunks (collection, id, document, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)`
	return s.insertBatch(ctx, name, insertSQL, ids, texts, metas, vectors)
}

// Upsert inserts documents, replacing any that already exist
func (s *PostgresStore) Upsert(ctx context.Context, name string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error {
	const upsertSQL = `INSERT INTO chunks (collection, id, document, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)
		ON CONFLICT (collection, id) DO UPDATE SET
			document = EXCLUDED.document,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`
	return s.insertBatch(ctx, name, upsertSQL, ids, texts, metas, vectors)
}

// insertBatch writes all documents in one transaction so a failure leaves
// the collection untouched
func (s *PostgresStore) insertBatch(ctx context.Context, name, insertSQL string, ids []string, texts []string, metas []map[string]any, vectors [][]float32) error {
	if err := validateBatch(ids, texts, metas, vectors); err != nil {
		return err
	}
	if err := s.CreateCollection(ctx, name); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ids {
		metaJSON, err := marshalMeta(metaAt(metas, i))
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", id, err)
		}
		_, err = tx.Exec(ctx, insertSQL, name, id, texts[i], metaJSON, formatVector(vectors[i]))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
			return fmt.Errorf("failed to insert document %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Query returns up to max(1, topK) nearest documents by cosine distance
func (s *PostgresStore) Query(ctx context.Context, name string, vector []float32, topK int) (*QueryResult, error) {
	const querySQL = `SELECT id, document, metadata, embedding <=> $2::vector AS distance
		FROM chunks
		WHERE collection = $1
		ORDER BY embedding <=> $2::vector
		LIMIT $3`

	rows, err := s.pool.Query(ctx, querySQL, name, formatVector(vector), queryLimit(topK))
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", name, err)
	}
	defer rows.Close()

	result := emptyResult()
	for rows.Next() {
		var (
			id       string
			document string
			metaJSON []byte
			distance float64
		)
		if err := rows.Scan(&id, &document, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan query row: %w", err)
		}
		meta, err := unmarshalMeta(metaJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
		}
		result.IDs = append(result.IDs, id)
		result.Documents = append(result.Documents, document)
		result.Metadatas = append(result.Metadatas, meta)
		result.Distances = append(result.Distances, distance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query rows: %w", err)
	}
	return result, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// formatVector renders an embedding as a pgvector literal
func formatVector(vector []float32) string {
	if len(vector) == 0 {
		return "[]"
	}
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(meta)
}

func unmarshalMeta(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
