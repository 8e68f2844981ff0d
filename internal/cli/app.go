package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/credilex/parecer/internal/archive"
	"github.com/credilex/parecer/internal/cache"
	"github.com/credilex/parecer/internal/embed"
	"github.com/credilex/parecer/internal/ground"
	"github.com/credilex/parecer/internal/ingest"
	"github.com/credilex/parecer/internal/llm"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/rag"
	"github.com/credilex/parecer/internal/store"
)

// app bundles the wired component stack behind the CLI commands.
type app struct {
	config   *model.Config
	store    store.Store
	service  *rag.Service
	ingestor *ingest.Ingestor
}

// loadConfig assembles the effective configuration: built-in defaults,
// overlaid by the config file and PARECER_* environment variables, then
// credentials from the conventional variables.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	applyViper(cfg)
	applyEnvKeys(cfg)
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg
}

// applyViper overlays values viper has seen (config file or PARECER_* env)
// onto the defaults, key by key.
func applyViper(cfg *model.Config) {
	if viper.IsSet("server.host") {
		cfg.Server.Host = viper.GetString("server.host")
	}
	if viper.IsSet("server.port") {
		cfg.Server.Port = viper.GetInt("server.port")
	}
	if viper.IsSet("server.mode") {
		cfg.Server.Mode = viper.GetString("server.mode")
	}

	if viper.IsSet("store.driver") {
		cfg.Store.Driver = viper.GetString("store.driver")
	}
	if viper.IsSet("store.dsn") {
		cfg.Store.DSN = viper.GetString("store.dsn")
	}

	if viper.IsSet("embeddings.provider") {
		cfg.Embeddings.Provider = viper.GetString("embeddings.provider")
	}
	if viper.IsSet("embeddings.model") {
		cfg.Embeddings.Model = viper.GetString("embeddings.model")
	}
	if viper.IsSet("embeddings.api_key") {
		cfg.Embeddings.APIKey = viper.GetString("embeddings.api_key")
	}
	if viper.IsSet("embeddings.base_url") {
		cfg.Embeddings.BaseURL = viper.GetString("embeddings.base_url")
	}
	if viper.IsSet("embeddings.dimensions") {
		cfg.Embeddings.Dimensions = viper.GetInt("embeddings.dimensions")
	}
	if viper.IsSet("embeddings.timeout") {
		cfg.Embeddings.Timeout = viper.GetDuration("embeddings.timeout")
	}
	if viper.IsSet("embeddings.cache_ttl") {
		cfg.Embeddings.CacheTTL = viper.GetDuration("embeddings.cache_ttl")
	}

	if viper.IsSet("llm.provider") {
		cfg.LLM.Provider = viper.GetString("llm.provider")
	}
	if viper.IsSet("llm.model") {
		cfg.LLM.Model = viper.GetString("llm.model")
	}
	if viper.IsSet("llm.api_key") {
		cfg.LLM.APIKey = viper.GetString("llm.api_key")
	}
	if viper.IsSet("llm.base_url") {
		cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	}
	if viper.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	}
	if viper.IsSet("llm.temperature") {
		cfg.LLM.Temperature = float32(viper.GetFloat64("llm.temperature"))
	}
	if viper.IsSet("llm.timeout") {
		cfg.LLM.Timeout = viper.GetDuration("llm.timeout")
	}

	if viper.IsSet("ingest.collection") {
		cfg.Ingest.Collection = viper.GetString("ingest.collection")
	}
	if viper.IsSet("ingest.policy_collection") {
		cfg.Ingest.PolicyCollection = viper.GetString("ingest.policy_collection")
	}
	if viper.IsSet("ingest.chunk_size") {
		cfg.Ingest.ChunkSize = viper.GetInt("ingest.chunk_size")
	}
	if viper.IsSet("ingest.overlap") {
		cfg.Ingest.Overlap = viper.GetInt("ingest.overlap")
	}
	if viper.IsSet("ingest.max_body_bytes") {
		cfg.Ingest.MaxBodyBytes = viper.GetInt64("ingest.max_body_bytes")
	}
	if viper.IsSet("ingest.user_agent") {
		cfg.Ingest.UserAgent = viper.GetString("ingest.user_agent")
	}
	if viper.IsSet("ingest.respect_robots") {
		cfg.Ingest.RespectRobots = viper.GetBool("ingest.respect_robots")
	}
	if viper.IsSet("ingest.rate_per_host") {
		cfg.Ingest.RatePerHost = viper.GetFloat64("ingest.rate_per_host")
	}
	if viper.IsSet("ingest.concurrency") {
		cfg.Ingest.Concurrency = viper.GetInt("ingest.concurrency")
	}

	if viper.IsSet("retrieval.top_k") {
		cfg.Retrieval.TopK = viper.GetInt("retrieval.top_k")
	}

	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.memory_ttl") {
		cfg.Cache.MemoryTTL = viper.GetDuration("cache.memory_ttl")
	}
	if viper.IsSet("cache.disk_ttl") {
		cfg.Cache.DiskTTL = viper.GetDuration("cache.disk_ttl")
	}

	if viper.IsSet("archive.enabled") {
		cfg.Archive.Enabled = viper.GetBool("archive.enabled")
	}
	if viper.IsSet("archive.type") {
		cfg.Archive.Type = viper.GetString("archive.type")
	}
	if viper.IsSet("archive.local_path") {
		cfg.Archive.LocalPath = viper.GetString("archive.local_path")
	}
	if viper.IsSet("archive.s3_bucket") {
		cfg.Archive.S3Bucket = viper.GetString("archive.s3_bucket")
	}
	if viper.IsSet("archive.s3_region") {
		cfg.Archive.S3Region = viper.GetString("archive.s3_region")
	}

	if viper.IsSet("output.verbose") {
		cfg.Output.Verbose = viper.GetBool("output.verbose")
	}
}

// applyEnvKeys fills credentials from the conventional environment
// variables when the config left them empty.
func applyEnvKeys(cfg *model.Config) {
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	}

	if cfg.Embeddings.APIKey == "" && strings.EqualFold(cfg.Embeddings.Provider, "openai") {
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Embeddings.BaseURL == "" && strings.EqualFold(cfg.Embeddings.Provider, "ollama") {
		cfg.Embeddings.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "gemini", "google":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// newApp wires the component stack from configuration. The LLM backend is
// lazy: misconfiguration surfaces on first use, and answers degrade to
// extractive fallbacks. Callers own Close.
func newApp(ctx context.Context, cfg *model.Config) (*app, error) {
	st, err := store.New(ctx, cfg.Store, cfg.Embeddings.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	byteCache, err := cache.New(cfg.Cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
		byteCache = nil
	}

	embedder, err := embed.New(cfg.Embeddings, byteCache)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init embeddings: %w", err)
	}

	var backend llm.Backend
	if strings.TrimSpace(cfg.LLM.Provider) != "" {
		llmConfig := llm.ConfigFromModel(cfg.LLM)
		backend = llm.NewLazy(llmConfig.Provider, func() (llm.Backend, error) {
			return llm.NewBackend(llmConfig)
		})
	}
	grounder := ground.New(backend, cfg.LLM.Model)

	arc, err := archive.New(cfg.Archive)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}

	fetcher := ingest.NewFetcher(cfg.Ingest, byteCache)

	return &app{
		config:   cfg,
		store:    st,
		service:  rag.New(st, embedder, grounder, cfg),
		ingestor: ingest.New(embedder, st, arc, fetcher, cfg.Ingest),
	}, nil
}

// Close releases held connections.
func (a *app) Close() {
	a.store.Close()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
