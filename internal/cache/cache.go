package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores fetched page bytes between audit runs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey generates a stable cache key for an audited URL.
func PageKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "pagewarden:v1:" + hex.EncodeToString(hash[:])
}
