package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirExistenceCacheExistsReadsDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0o644))

	c := NewDirExistenceCache(time.Minute)
	assert.True(t, c.Exists(dir, "a.txt"))
	assert.False(t, c.Exists(dir, "missing.txt"))
}

func TestDirExistenceCacheCachesListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0o644))

	c := NewDirExistenceCache(time.Minute)
	assert.True(t, c.Exists(dir, "a.txt"))

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	assert.True(t, c.Exists(dir, "a.txt"), "a cached listing does not see the removal until invalidated")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestDirExistenceCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	c := NewDirExistenceCache(time.Minute)
	assert.False(t, c.Exists(dir, "a.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0o644))
	c.Invalidate(dir)
	assert.True(t, c.Exists(dir, "a.txt"), "invalidating forces a fresh read")
}

func TestDirStatsHitRate(t *testing.T) {
	stats := &DirStats{}
	assert.Equal(t, 0.0, stats.HitRate())

	stats.hit()
	stats.hit()
	stats.miss()
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 0.0001)
}

func TestDirExistenceCacheMissingDirectoryYieldsEmptySet(t *testing.T) {
	c := NewDirExistenceCache(time.Minute)
	assert.False(t, c.Exists(filepath.Join(t.TempDir(), "does-not-exist"), "a.txt"))
}
