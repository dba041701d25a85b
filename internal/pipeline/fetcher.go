package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pagewarden/pagewarden/internal/cache"
	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/util"
)

// Fetcher retrieves page HTML for auditing, with robots.txt politeness and
// an optional fetch cache in front of the network.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a Fetcher from HTTP config. Robots checking and caching
// are optional; pass nil to disable either.
func NewFetcher(cfg model.HTTPConfig, robots *util.RobotsChecker, store cache.Cache, cacheTTL time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    robots,
		store:     store,
		cacheTTL:  cacheTTL,
	}
}

// fetchSleepFunc is swapped out in tests to skip backoff waits.
var fetchSleepFunc = time.Sleep

const maxFetchAttempts = 3

// FetchResult contains the fetched HTML and metadata.
type FetchResult struct {
	HTML        string
	FinalURL    string
	StatusCode  int
	ContentType string
	FromCache   bool
}

// FetchWithRetry fetches with backoff on transient failures. Permanent
// failures (4xx other than 429, bad URLs) fail immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < maxFetchAttempts {
			fetchSleepFunc(time.Duration(attempt) * time.Second)
		}
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether a fetch failure is worth retrying:
// server-side errors, rate limiting and connection-level failures.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"status: 500", "status: 502", "status: 503", "status: 504", "status: 429",
		"connection refused", "connection reset",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Fetch retrieves HTML content from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.store != nil {
		if body, ok := f.store.Get(cache.PageKey(rawURL)); ok {
			return &FetchResult{
				HTML:      string(body),
				FinalURL:  rawURL,
				FromCache: true,
			}, nil
		}
	}

	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read body with size limit
	limitedReader := io.LimitReader(resp.Body, f.maxBytes)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.store != nil {
		_ = f.store.Set(cache.PageKey(rawURL), body, f.cacheTTL)
	}

	return &FetchResult{
		HTML:        string(body),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
