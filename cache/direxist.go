// Package cache backs the preview worker's EnumerateItems disambiguator
// and its regex-replacement reuse with TTL caches, grounded on
// scopweb-mcp-filesystem-go-ultra's cache/intelligent.go.
package cache

import (
	"os"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DirStats tracks hit/miss counters, mirroring the teacher's CacheStats.
type DirStats struct {
	mu     sync.RWMutex
	Hits   int64
	Misses int64
}

func (s *DirStats) hit() {
	s.mu.Lock()
	s.Hits++
	s.mu.Unlock()
}

func (s *DirStats) miss() {
	s.mu.Lock()
	s.Misses++
	s.mu.Unlock()
}

// HitRate returns Hits/(Hits+Misses), or 0 if there have been no accesses.
func (s *DirStats) HitRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// DirExistenceCache caches, per parent directory, the set of final
// path components currently present on disk. The preview worker's
// EnumerateItems disambiguator (spec.md §4.3.g) consults this instead
// of calling os.Stat once per candidate suffix.
type DirExistenceCache struct {
	entries *gocache.Cache
	stats   *DirStats
}

// NewDirExistenceCache creates a cache whose entries expire after ttl.
func NewDirExistenceCache(ttl time.Duration) *DirExistenceCache {
	return &DirExistenceCache{
		entries: gocache.New(ttl, ttl/2),
		stats:   &DirStats{},
	}
}

// Exists reports whether name is present as a final path component in
// dir, populating the cache from disk on a miss.
func (c *DirExistenceCache) Exists(dir, name string) bool {
	set := c.listing(dir)
	_, present := set[name]
	return present
}

// Invalidate drops the cached listing for dir, forcing the next Exists
// call to re-read the directory. Used by the fsnotify watcher in
// watcher.go when dir changes externally.
func (c *DirExistenceCache) Invalidate(dir string) {
	c.entries.Delete(dir)
}

func (c *DirExistenceCache) listing(dir string) map[string]struct{} {
	if cached, found := c.entries.Get(dir); found {
		c.stats.hit()
		return cached.(map[string]struct{})
	}

	c.stats.miss()
	set := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			set[e.Name()] = struct{}{}
		}
	}
	c.entries.Set(dir, set, gocache.DefaultExpiration)
	return set
}

// Stats returns the cache's hit/miss counters.
func (c *DirExistenceCache) Stats() *DirStats {
	return c.stats
}
