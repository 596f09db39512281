// Package cache provides the edge tier's response cache backends.
package cache

import (
	"net/http"
	"time"
)

// Entry is one cached response, keyed by canonical request URL.
type Entry struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	StoredAt   time.Time
	ExpiresAt  time.Time
}

// StoreStats contains storage-level statistics.
type StoreStats struct {
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`  // 0 if N/A (e.g., Redis)
	Evictions int64 `json:"evictions"` // 0 if not tracked (e.g., Redis)
}

// Store abstracts the cache storage backend. Keys are canonical request
// URLs, so entries for the same path on two hosts never collide.
type Store interface {
	Get(key string) (*Entry, bool)
	Set(key string, entry *Entry)
	Delete(key string)
	DeleteByPrefix(prefix string)
	Purge()
	Stats() StoreStats
}
