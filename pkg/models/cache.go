package models

import "time"

// CacheEntry stores the results of one search under its cache key.
type CacheEntry struct {
	Key       string         `json:"key"`
	Results   []SearchResult `json:"results"`
	Timestamp int64          `json:"timestamp"` // epoch millis
}

// Fresh reports whether the entry is still valid at now for the given timeout.
func (e CacheEntry) Fresh(now time.Time, timeout time.Duration) bool {
	return now.Sub(FromMillis(e.Timestamp)) < timeout
}

// CacheStats reports cache tier contents.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Stale   int64 `json:"stale"`
}
