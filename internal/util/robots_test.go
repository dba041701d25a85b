package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Pagewarden/0.2", 5*time.Second)
	ctx := context.Background()

	allowed, err := checker.Allowed(ctx, server.URL+"/public/page")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Error("public path should be allowed")
	}

	allowed, err = checker.Allowed(ctx, server.URL+"/private/page")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if allowed {
		t.Error("disallowed path should be blocked")
	}
}

func TestRobotsQueryStringMatched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /results?\n"))
		}
	}))
	defer server.Close()

	checker := NewRobotsChecker("Pagewarden/0.2", 5*time.Second)
	ctx := context.Background()

	allowed, err := checker.Allowed(ctx, server.URL+"/results")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Error("bare path should be allowed")
	}

	allowed, err = checker.Allowed(ctx, server.URL+"/results?q=casino")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if allowed {
		t.Error("query form should be blocked by the ? rule")
	}
}

func TestRobotsUnreachableAllowsByDefault(t *testing.T) {
	checker := NewRobotsChecker("Pagewarden/0.2", 500*time.Millisecond)

	allowed, err := checker.Allowed(context.Background(), "http://127.0.0.1:1/page")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Error("unreachable robots.txt should allow by default")
	}
}

func TestRobotsCachedPerHost(t *testing.T) {
	var fetches int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt64(&fetches, 1)
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
		}
	}))
	defer server.Close()

	checker := NewRobotsChecker("Pagewarden/0.2", 5*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := checker.Allowed(ctx, server.URL+"/page"); err != nil {
			t.Fatalf("Allowed: %v", err)
		}
	}
	if n := atomic.LoadInt64(&fetches); n != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", n)
	}
}

func TestProductToken(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Pagewarden/0.2 (+https://github.com/pagewarden/pagewarden)", "Pagewarden"},
		{"SimpleBot", "SimpleBot"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := productToken(tt.ua); got != tt.want {
			t.Errorf("productToken(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}
