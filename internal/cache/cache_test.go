package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestPageKeyStable(t *testing.T) {
	a := PageKey("https://example.com/page")
	b := PageKey("https://example.com/page")
	c := PageKey("https://example.com/other")

	if a != b {
		t.Error("same URL should produce the same key")
	}
	if a == c {
		t.Error("different URLs should produce different keys")
	}
	if !strings.HasPrefix(a, "pagewarden:v1:") {
		t.Errorf("key = %q, want versioned prefix", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("unexpected hit for missing key")
	}

	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("value")) {
		t.Errorf("Get = %q, %v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("key survived Delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("entry survived its TTL")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("page", []byte("<html>cached</html>"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, found := c.Get("page")
	if !found || !bytes.Equal(val, []byte("<html>cached</html>")) {
		t.Errorf("Get = %q, %v", val, found)
	}

	if err := c.Delete("page"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("page"); found {
		t.Error("key survived Delete")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("entry survived its TTL")
	}
}

func TestDiskCacheClear(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("key survived Clear")
	}
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Wipe memory: the next Get must come from disk and repopulate memory.
	if err := c.memory.Clear(); err != nil {
		t.Fatalf("Clear memory: %v", err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("disk fallback Get = %q, %v", val, found)
	}

	if _, found := c.memory.Get("k"); !found {
		t.Error("disk hit not promoted to memory")
	}
}

func TestLayeredCacheDefaultDirPersists(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := NewLayeredCache(time.Minute, "", time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set with default dir: %v", err)
	}

	// A second cache stands in for a fresh process: the entry must come
	// back from disk, not memory.
	fresh := NewLayeredCache(time.Minute, "", time.Minute)
	val, found := fresh.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("default-dir entry not persisted: %q, %v", val, found)
	}
}

func TestLayeredCacheMiss(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)
	if _, found := c.Get("nope"); found {
		t.Error("unexpected hit")
	}
}
