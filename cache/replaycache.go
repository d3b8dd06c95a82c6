package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/renameforge/renameforge/core"
)

// ReplaceResultCache caches adapter.Replace(source) results keyed by
// (pattern, flags, source), grounded on the teacher's bigcache-backed
// file-content cache in cache/intelligent.go. A preview re-run with an
// unchanged pattern over a large item set reuses prior replacement
// output instead of recomputing it.
type ReplaceResultCache struct {
	store *bigcache.BigCache
	mu    sync.Mutex // guards stats; bigcache itself is safe for concurrent use
	hits  int64
	misses int64
}

const (
	cacheMarkerMatched    = 1
	cacheMarkerNoMatch    = 0
	cacheMarkerHeaderSize = 1
)

// NewReplaceResultCache creates a cache whose entries expire after ttl.
func NewReplaceResultCache(ttl time.Duration) (*ReplaceResultCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl / 2
	cfg.Verbose = false

	store, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, &core.CacheError{Op: "init", Key: "replace-result", Err: err}
	}

	return &ReplaceResultCache{store: store}, nil
}

func key(pattern string, flags uint32, source string) string {
	return fmt.Sprintf("%d|%s|%s", flags, pattern, source)
}

// Get returns a previously cached replacement for (pattern, flags,
// source), along with whether it was a match and whether it was
// present in the cache at all.
func (c *ReplaceResultCache) Get(pattern string, flags uint32, source string) (replaced string, matched bool, found bool) {
	raw, err := c.store.Get(key(pattern, flags, source))
	if err != nil {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()

	if len(raw) == 0 {
		return "", false, false
	}
	marker := raw[0]
	return string(raw[cacheMarkerHeaderSize:]), marker == cacheMarkerMatched, true
}

// Set stores a replacement result for (pattern, flags, source).
func (c *ReplaceResultCache) Set(pattern string, flags uint32, source, replaced string, matched bool) {
	marker := byte(cacheMarkerNoMatch)
	if matched {
		marker = cacheMarkerMatched
	}
	buf := make([]byte, 0, len(replaced)+cacheMarkerHeaderSize)
	buf = append(buf, marker)
	buf = append(buf, replaced...)

	_ = c.store.Set(key(pattern, flags, source), buf)
}

// HitRate returns the cache's hit ratio across its lifetime.
func (c *ReplaceResultCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Close releases the underlying bigcache resources.
func (c *ReplaceResultCache) Close() error {
	return c.store.Close()
}
