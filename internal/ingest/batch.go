package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// URLJob ingests a single URL as part of a batch
type URLJob struct {
	URL        string
	Collection string
	Ingestor   *Ingestor
}

// Execute runs the ingestion for this job's URL
func (j *URLJob) Execute(ctx context.Context) JobResult {
	result, err := j.Ingestor.IngestURL(ctx, URLRequest{
		Collection: j.Collection,
		URL:        j.URL,
	})
	return &URLResult{
		URL:    j.URL,
		Result: result,
		Error:  err,
	}
}

// URLResult is the outcome of ingesting one URL
type URLResult struct {
	URL    string
	Result *Result
	Error  error
}

// GetError returns the error from the result
func (r *URLResult) GetError() error {
	return r.Error
}

// BatchProcessor ingests many URLs concurrently with bounded workers
type BatchProcessor struct {
	ingestor    *Ingestor
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(ingestor *Ingestor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		ingestor:    ingestor,
		concurrency: concurrency,
	}
}

// IngestURLs ingests the URLs concurrently into the collection. Jobs are
// submitted from a separate goroutine so URL lists larger than the queue
// buffer cannot stall the workers.
func (b *BatchProcessor) IngestURLs(ctx context.Context, collection string, urls []string) []*URLResult {
	if len(urls) == 0 {
		return []*URLResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for _, url := range urls {
			pool.Submit(&URLJob{
				URL:        url,
				Collection: collection,
				Ingestor:   b.ingestor,
			})
		}
		pool.Close()
	}()

	urlResults := make([]*URLResult, 0, len(urls))
	for result := range pool.Results() {
		urlResults = append(urlResults, result.(*URLResult))
	}
	return urlResults
}

// IngestFile reads a URL list file and ingests its URLs concurrently
func (b *BatchProcessor) IngestFile(ctx context.Context, collection string, filePath string) ([]*URLResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.IngestURLs(ctx, collection, urls), nil
}

// ReadURLsFromFile reads URLs from a file, one per line. Blank lines and
// lines starting with # are skipped; duplicates keep their first position.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return urls, nil
}
