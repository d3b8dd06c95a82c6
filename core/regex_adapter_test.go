package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegexAdapterReplace(t *testing.T) {
	a := NewDefaultRegexAdapter()
	a.SetPattern("a")
	a.SetReplacement("x")

	replaced, matched := a.Replace("a.txt")
	require.True(t, matched)
	assert.Equal(t, "x.txt", replaced)

	_, matched = a.Replace("b.txt")
	assert.False(t, matched)
}

func TestDefaultRegexAdapterCaptureGroups(t *testing.T) {
	a := NewDefaultRegexAdapter()
	a.SetPattern(`(\w+)_(\d+)`)
	a.SetReplacement("${2}_$1")

	replaced, matched := a.Replace("file_42")
	require.True(t, matched)
	assert.Equal(t, "42_file", replaced)
}

func TestDefaultRegexAdapterInvalidPatternYieldsNoMatch(t *testing.T) {
	a := NewDefaultRegexAdapter()
	a.SetPattern("(unterminated")

	_, matched := a.Replace("anything")
	assert.False(t, matched, "an invalid pattern yields no match rather than an error")
}

func TestDefaultRegexAdapterCaseSensitivity(t *testing.T) {
	a := NewDefaultRegexAdapter()
	a.SetPattern("ABC")
	a.SetReplacement("x")

	_, matched := a.Replace("abc.txt")
	assert.False(t, matched)

	a.SetCaseSensitive(false)
	replaced, matched := a.Replace("abc.txt")
	require.True(t, matched)
	assert.Equal(t, "x.txt", replaced)
}

func TestDefaultRegexAdapterFlagsNotifyOnlyOnChange(t *testing.T) {
	a := NewDefaultRegexAdapter()

	var notified int
	a.Advise(regexObserverFunc{onFlags: func(Flags) { notified++ }})

	a.SetFlags(NameOnly)
	a.SetFlags(NameOnly)
	a.SetFlags(ExtensionOnly)

	assert.Equal(t, 2, notified)
}

func TestDefaultRegexAdapterCacheKeyChangesWithConfiguration(t *testing.T) {
	a := NewDefaultRegexAdapter()
	k1 := a.CacheKey()

	a.SetPattern("a")
	k2 := a.CacheKey()
	assert.NotEqual(t, k1, k2)

	a.SetReplacement("b")
	k3 := a.CacheKey()
	assert.NotEqual(t, k2, k3)

	a.SetCaseSensitive(false)
	k4 := a.CacheKey()
	assert.NotEqual(t, k3, k4)
}

func TestDefaultRegexAdapterUnadvise(t *testing.T) {
	a := NewDefaultRegexAdapter()
	cookie := a.Advise(regexObserverFunc{})
	assert.True(t, a.Unadvise(cookie))
	assert.False(t, a.Unadvise(cookie))
}

func TestQuickTransform(t *testing.T) {
	replaced, err := QuickTransform("a", "x", "a.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "x.txt", replaced)

	replaced, err = QuickTransform("z", "x", "a.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", replaced, "no match returns the source unchanged")
}

// regexObserverFunc is a minimal RegexAdapterObserver for tests that only
// care about one callback.
type regexObserverFunc struct {
	onSearch  func(string)
	onReplace func(string)
	onFlags   func(Flags)
}

func (f regexObserverFunc) OnSearchTermChanged(term string) {
	if f.onSearch != nil {
		f.onSearch(term)
	}
}

func (f regexObserverFunc) OnReplaceTermChanged(term string) {
	if f.onReplace != nil {
		f.onReplace(term)
	}
}

func (f regexObserverFunc) OnFlagsChanged(flags Flags) {
	if f.onFlags != nil {
		f.onFlags(flags)
	}
}
