package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/credilex/parecer/internal/cache"
	"github.com/credilex/parecer/internal/model"
)

// ErrRobotsDisallowed indicates the target site's robots.txt forbids the fetch
var ErrRobotsDisallowed = errors.New("ingest: fetch disallowed by robots.txt")

// Fetcher retrieves pages for ingestion. Every fetch passes the robots gate
// (when enabled) and the per-host rate limiter; raw bodies are cached so
// repeated ingestion of a URL skips the network.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	limiter    *HostLimiter
	cache      cache.Cache
}

// NewFetcher creates a fetcher from ingestion configuration. The cache may
// be nil when caching is disabled.
func NewFetcher(config model.IngestConfig, c cache.Cache) *Fetcher {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "parecer/0.1"
	}
	maxBytes := config.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	var robots *RobotsChecker
	if config.RespectRobots {
		robots = NewRobotsChecker(userAgent, 10*time.Second)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		robots:    robots,
		limiter:   NewHostLimiter(config.RatePerHost, 1),
		cache:     c,
	}
}

// FetchText retrieves the URL and returns the page's visible text
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	// Cached bodies cost the host nothing, so they skip the rate limiter
	cacheKey := cache.Key("fetch", rawURL)
	if f.cache != nil {
		if body, found := f.cache.Get(cacheKey); found {
			return ExtractText(body)
		}
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", err
	}

	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		_ = f.cache.Set(cacheKey, body, 0)
	}
	return ExtractText(body)
}

// fetch retrieves the raw body, capped at maxBytes
func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// ExtractText returns the visible text of an HTML document: text nodes
// joined by single spaces, skipping script, style, noscript and iframe
// subtrees. Plain text input passes through whitespace-normalized.
func ExtractText(body []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), nil
}
