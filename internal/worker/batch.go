package worker

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pagewarden/pagewarden/internal/extract"
	"github.com/pagewarden/pagewarden/internal/model"
)

// Auditor runs a full audit over one URL. Satisfied by pipeline.Pipeline.
type Auditor interface {
	AuditURL(ctx context.Context, url string, mode extract.Mode) (*model.AnalysisResult, error)
}

// AuditJob is one URL audit on the batch pool.
type AuditJob struct {
	URL     string
	Mode    extract.Mode
	Auditor Auditor
	Limiter *Limiter
	Delay   time.Duration
}

// Execute implements Job. Per-host rate limiting keeps batch runs polite to
// the audited sites.
func (j *AuditJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.WaitWithDelay(ctx, hostOf(j.URL), j.Delay); err != nil {
			return &AuditResult{URL: j.URL, Error: err}
		}
	}

	result, err := j.Auditor.AuditURL(ctx, j.URL, j.Mode)
	if err != nil {
		return &AuditResult{URL: j.URL, Error: err}
	}
	return &AuditResult{URL: j.URL, Result: result}
}

// AuditResult is the outcome of one batch entry.
type AuditResult struct {
	URL    string
	Result *model.AnalysisResult
	Error  error
}

// GetError implements Result.
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchProcessor audits multiple URLs concurrently.
type BatchProcessor struct {
	auditor     Auditor
	mode        extract.Mode
	concurrency int
	limiter     *Limiter
	delay       time.Duration
}

// NewBatchProcessor creates a batch processor. ratePerSecond and delay
// throttle per-host fetch pressure; zero disables throttling.
func NewBatchProcessor(auditor Auditor, mode extract.Mode, concurrency int, ratePerSecond float64, delay time.Duration) *BatchProcessor {
	var limiter *Limiter
	if ratePerSecond > 0 {
		limiter = NewLimiter(ratePerSecond, 1)
	}

	return &BatchProcessor{
		auditor:     auditor,
		mode:        mode,
		concurrency: concurrency,
		limiter:     limiter,
		delay:       delay,
	}
}

// ProcessURLs audits the given URLs concurrently.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AuditResult {
	if len(urls) == 0 {
		return []*AuditResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, u := range urls {
		pool.Submit(&AuditJob{
			URL:     u,
			Mode:    b.mode,
			Auditor: b.auditor,
			Limiter: b.limiter,
			Delay:   b.delay,
		})
	}

	results := pool.Wait()

	auditResults := make([]*AuditResult, 0, len(results))
	for _, result := range results {
		if r, ok := result.(*AuditResult); ok {
			auditResults = append(auditResults, r)
		}
	}
	return auditResults
}

// ProcessFile reads URLs from a file and audits them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AuditResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file, one per line, skipping blanks,
// comments and duplicates.
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

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
