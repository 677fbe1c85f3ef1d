// Package transcript holds the audio-id -> spoken-text cache used to
// re-hydrate assistant audio messages on chat follow-up turns.
package transcript

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize and DefaultTTL match the upstream's bounded map: enough to
// cover a burst of concurrent chat sessions without growing unbounded.
const (
	DefaultSize = 4096
	DefaultTTL  = time.Hour
)

// Entry is one audio-id -> text mapping, with the wall-clock time it expires.
type Entry struct {
	Text      string
	ExpiresAt time.Time
}

// Cache maps a generated audio_id to the text that was spoken when that
// audio was synthesized, bounded in size and entry lifetime.
type Cache struct {
	lru *lru.LRU[string, Entry]
	ttl time.Duration
}

// New builds a Cache holding at most size entries, each expiring ttl after
// insertion.
func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		lru: lru.NewLRU[string, Entry](size, nil, ttl),
		ttl: ttl,
	}
}

// Put inserts text under audioID, returning the entry's expiry time.
func (c *Cache) Put(audioID, text string) time.Time {
	expiresAt := time.Now().Add(c.ttl)
	c.lru.Add(audioID, Entry{Text: text, ExpiresAt: expiresAt})
	return expiresAt
}

// Get returns the cached text for audioID, or ok=false if absent or expired.
func (c *Cache) Get(audioID string) (string, bool) {
	e, ok := c.lru.Get(audioID)
	if !ok {
		return "", false
	}
	return e.Text, true
}
