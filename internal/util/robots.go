package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker enforces robots.txt politeness for audited URLs.
type RobotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	agent      string
}

// NewRobotsChecker creates a checker matching against the given user agent.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		agent:      productToken(userAgent),
	}
}

// Allowed reports whether the URL may be fetched. An unreachable robots.txt
// allows by default; a denying one blocks the audit fetch.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.robotsFor(ctx, parsed)
	if err != nil {
		return true, nil
	}

	// Rules match on the full request target, query string included.
	path := parsed.Path
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return data.TestAgent(path, r.agent), nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, page *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[page.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", page.Scheme, page.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[page.Host] = data
	r.mu.Unlock()
	return data, nil
}

// productToken extracts the product name from a full User-Agent string for
// robots.txt group matching.
func productToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	return strings.Split(fields[0], "/")[0]
}
