package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/credilex/parecer/internal/ingest"
)

var (
	ingestCollection  string
	ingestChunkSize   int
	ingestOverlap     int
	ingestSource      string
	ingestConcurrency int
	ingestTimeout     time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Segment, embed and index documents",
	Long: `Ingest splits documents into sentence-aligned chunks, embeds them in
passage mode, and upserts them into the vector store under deterministic
ids, so re-ingesting the same source updates chunks in place.

Example:
  parecer ingest text "O crédito transitou em julgado em 2023." --source contrato
  parecer ingest file ./sentenca.txt --collection processos
  parecer ingest url https://example.com/acordao
  parecer ingest batch urls.txt --concurrency 8`,
}

var ingestTextCmd = &cobra.Command{
	Use:   "text <text>",
	Short: "Ingest a document passed as an argument",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestText,
}

var ingestFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Ingest a local text file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestFile,
}

var ingestURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Fetch a page and ingest its visible text",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestURL,
}

var ingestBatchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Ingest many URLs from a file in parallel",
	Long: `Batch reads URLs from a file (one per line, # comments allowed) and
ingests them concurrently with bounded workers. Fetches respect
robots.txt and the per-host rate limit.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestBatch,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestTextCmd)
	ingestCmd.AddCommand(ingestFileCmd)
	ingestCmd.AddCommand(ingestURLCmd)
	ingestCmd.AddCommand(ingestBatchCmd)

	ingestCmd.PersistentFlags().StringVarP(&ingestCollection, "collection", "c", "", "target collection (default from config)")
	ingestCmd.PersistentFlags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in characters (default from config)")
	ingestCmd.PersistentFlags().IntVar(&ingestOverlap, "overlap", -1, "chunk overlap in characters (default from config)")
	ingestCmd.PersistentFlags().DurationVar(&ingestTimeout, "timeout", 5*time.Minute, "overall ingestion timeout")

	ingestTextCmd.Flags().StringVar(&ingestSource, "source", "", "source label for chunk ids (default \"manual\")")
	ingestBatchCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "concurrent workers (default from config)")
}

func runIngestText(cmd *cobra.Command, args []string) error {
	return ingestOne(func(ctx context.Context, a *app) (*ingest.Result, error) {
		return a.ingestor.IngestText(ctx, ingest.TextRequest{
			Collection: ingestCollection,
			Text:       args[0],
			Source:     ingestSource,
			ChunkSize:  ingestChunkSize,
			Overlap:    ingestOverlap,
		})
	})
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	return ingestOne(func(ctx context.Context, a *app) (*ingest.Result, error) {
		return a.ingestor.IngestText(ctx, ingest.TextRequest{
			Collection: ingestCollection,
			Text:       string(data),
			Source:     filepath.Base(path),
			ChunkSize:  ingestChunkSize,
			Overlap:    ingestOverlap,
		})
	})
}

func runIngestURL(cmd *cobra.Command, args []string) error {
	return ingestOne(func(ctx context.Context, a *app) (*ingest.Result, error) {
		return a.ingestor.IngestURL(ctx, ingest.URLRequest{
			Collection: ingestCollection,
			URL:        args[0],
			ChunkSize:  ingestChunkSize,
			Overlap:    ingestOverlap,
		})
	})
}

// ingestOne wires the app, runs a single ingestion and prints its result.
func ingestOne(run func(ctx context.Context, a *app) (*ingest.Result, error)) error {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := run(ctx, a)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Indexed %d chunks into %q\n", result.Added, result.Collection)
		if result.ArchivePath != "" {
			fmt.Fprintf(os.Stderr, "✓ Archived raw document at %s\n", result.ArchivePath)
		}
	}

	return printJSON(result)
}

func runIngestBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg := loadConfig()

	concurrency := ingestConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Ingest.Concurrency
	}
	collection := ingestCollection
	if collection == "" {
		collection = cfg.Ingest.Collection
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Parecer Batch Ingestion\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Collection:   %s\n", collection)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", ingestTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	processor := ingest.NewBatchProcessor(a.ingestor, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading URLs from file...\n")
	results, err := processor.IngestFile(ctx, collection, file)
	if err != nil {
		return fmt.Errorf("batch ingest: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "\n")

	successCount := 0
	failureCount := 0
	totalChunks := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.URL, result.Error)
			continue
		}
		successCount++
		totalChunks += result.Result.Added
		fmt.Fprintf(os.Stderr, "✓ %s (%d chunks)\n", result.URL, result.Result.Added)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d URLs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Chunks:    %d\n", totalChunks)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
