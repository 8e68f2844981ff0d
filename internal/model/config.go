package model

import "time"

// Config is the complete service configuration.
// Values come from defaults, overridden by ~/.parecer/config.yaml,
// PARECER_* environment variables, and CLI flags, in that order.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	LLM        LLMConfig        `yaml:"llm"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Cache      CacheConfig      `yaml:"cache"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Output     OutputConfig     `yaml:"output"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: "release" or "debug"
}

// StoreConfig selects and configures the vector store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory" or "postgres"
	DSN    string `yaml:"dsn"`    // postgres connection string (postgres driver only)
}

// EmbeddingsConfig configures the embedding backend.
type EmbeddingsConfig struct {
	Provider   string        `yaml:"provider"` // "openai" or "ollama"
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key,omitempty"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// LLMConfig configures the generation backend. An empty provider disables
// generation; answers then degrade to extractive fallbacks.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "ollama", "gemini", or "" (disabled)
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// IngestConfig controls document segmentation and URL fetching.
type IngestConfig struct {
	Collection       string  `yaml:"collection"`        // default collection for ingested documents
	PolicyCollection string  `yaml:"policy_collection"` // collection holding the purchasing rules
	ChunkSize        int     `yaml:"chunk_size"`
	Overlap          int     `yaml:"overlap"`
	MaxBodyBytes     int64   `yaml:"max_body_bytes"`
	UserAgent        string  `yaml:"user_agent"`
	RespectRobots    bool    `yaml:"respect_robots"`
	RatePerHost      float64 `yaml:"rate_per_host"` // requests per second per host
	Concurrency      int     `yaml:"concurrency"`   // batch ingestion workers
}

// RetrievalConfig controls context retrieval for question answering.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// CacheConfig controls the fetch/embedding byte cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ArchiveConfig controls raw-document archival before segmentation.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Type      string `yaml:"type"` // "local" or "s3"
	LocalPath string `yaml:"local_path"`
	S3Bucket  string `yaml:"s3_bucket,omitempty"`
	S3Region  string `yaml:"s3_region,omitempty"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			Timeout:    30 * time.Second,
			CacheTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:    "",
			Model:       "gpt-4o-mini",
			MaxTokens:   160,
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Ingest: IngestConfig{
			Collection:       "docs",
			PolicyCollection: "policy",
			ChunkSize:        800,
			Overlap:          150,
			MaxBodyBytes:     2_000_000,
			UserAgent:        "parecer/0.1 (+https://github.com/credilex/parecer)",
			RespectRobots:    true,
			RatePerHost:      1.0,
			Concurrency:      4,
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.parecer/cache when empty
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Archive: ArchiveConfig{
			Enabled:   false,
			Type:      "local",
			LocalPath: "./data/archive",
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
