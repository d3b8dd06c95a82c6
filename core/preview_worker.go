package core

import (
	"context"
	"path/filepath"
)

// DirExistenceChecker is the disambiguator's view of a directory listing
// cache: Exists reports whether name is already a final path component
// inside dir. cache.DirExistenceCache satisfies this by structure; the
// interface lives here so core does not import the cache package for a
// single method.
type DirExistenceChecker interface {
	Exists(dir, name string) bool
}

// ReplaceCache is the preview worker's view of a replace-result cache.
// cache.ReplaceResultCache satisfies this by structure.
type ReplaceCache interface {
	Get(pattern string, flags uint32, source string) (replaced string, matched bool, found bool)
	Set(pattern string, flags uint32, source, replaced string, matched bool)
}

// PreviewWorker runs one cancellable pass over an ItemStore, computing
// each item's new_name from a RegexAdapter (spec.md §4.3, C5) — the Go
// replacement for SmartRenameManager.cpp's worker thread started by
// Rename(). It is driven by the Manager, never started directly by a
// caller.
type PreviewWorker struct {
	store       *ItemStore
	adapter     RegexAdapter
	dirCache    DirExistenceChecker // nil disables disk-backed disambiguation
	replayCache ReplaceCache        // nil disables replace-result caching
	messages    chan<- workerMessage
}

// NewPreviewWorker constructs a worker posting to messages. dirCache and
// replayCache may be nil.
func NewPreviewWorker(store *ItemStore, adapter RegexAdapter, dirCache DirExistenceChecker, replayCache ReplaceCache, messages chan<- workerMessage) *PreviewWorker {
	return &PreviewWorker{
		store:       store,
		adapter:     adapter,
		dirCache:    dirCache,
		replayCache: replayCache,
		messages:    messages,
	}
}

// Run executes the preview pass. It reads the item count once at the
// start (mirroring the original's single GetItemCount call ahead of its
// for-loop) and checks ctx at every iteration boundary, posting
// RegExCanceled and returning as soon as cancellation is observed —
// spec.md §4.3's "checked at iteration boundaries, not mid-item".
func (w *PreviewWorker) Run(ctx context.Context) {
	w.post(workerMessage{kind: workerRegExStarted})

	flags := w.adapter.Flags()
	itemCount := w.store.Len()

	var cacheKey string
	if w.replayCache != nil {
		cacheKey = w.adapter.CacheKey()
	}

	// claimed tracks, per parent directory, the final path components
	// already spoken for by an earlier item in this same run — disk
	// existence alone is not enough to satisfy two items that both
	// resolve to the same new name in one pass (two siblings renaming
	// to "c" must land on "c.txt" and "c (1).txt", even though neither
	// exists on disk yet).
	claimed := make(map[string]map[string]struct{})

	for i := 0; i < itemCount; i++ {
		select {
		case <-ctx.Done():
			w.post(workerMessage{kind: workerRegExCanceled})
			return
		default:
		}

		item, ok := w.store.GetByIndex(i)
		if !ok {
			break
		}

		candidate := w.computeCandidate(item, flags, cacheKey, claimed)

		prevName, hadPrev := item.NewName()
		var newName *string
		if candidate != "" {
			c := candidate
			newName = &c
		}
		item.setNewName(newName)

		changed := hadPrev != (newName != nil) || (newName != nil && prevName != *newName)
		if changed {
			w.post(workerMessage{kind: workerItemUpdated, itemID: item.ID()})
		}
	}

	w.post(workerMessage{kind: workerRegExCompleted})
}

// computeCandidate returns the item's new final path component, or ""
// if the item should not be renamed.
func (w *PreviewWorker) computeCandidate(item *Item, flags Flags, cacheKey string, claimed map[string]map[string]struct{}) string {
	source := sourceString(item, flags)
	if source == "" {
		return ""
	}

	replaced, matched := w.replace(cacheKey, source)
	if !matched {
		return ""
	}

	candidate := composeName(item, flags, replaced)
	if candidate == "" || candidate == item.OriginalName() {
		return ""
	}
	if err := ValidateFinalComponent(candidate); err != nil {
		return ""
	}

	if flags.has(EnumerateItems) {
		candidate = w.disambiguate(item, candidate, claimed)
	}

	return candidate
}

// sourceString selects the substring the adapter operates on, truncated
// to MaxComponentLength (spec.md §4.3's overlong-source edge case).
func sourceString(item *Item, flags Flags) string {
	var s string
	switch {
	case flags.has(NameOnly):
		s = Stem(item.OriginalName())
	case flags.has(ExtensionOnly):
		s = ExtensionNoDot(item.OriginalName())
	default:
		s = item.OriginalName()
	}

	if len(s) > MaxComponentLength {
		s = s[:MaxComponentLength]
	}
	return s
}

// composeName rebuilds the full final path component from a replaced
// substring, per spec.md §4.3.e's composition rules:
//   - NameOnly: the replaced stem plus the original extension
//   - ExtensionOnly: the original stem plus "." plus the replaced
//     extension, always — an empty replacement yields a literal
//     trailing-dot name ("stem."), matching
//     SmartRenameManager.cpp's unconditional stem+"."+newName
//     composition rather than special-casing it away
//   - otherwise: the replaced string is already the whole final
//     component
func composeName(item *Item, flags Flags, replaced string) string {
	switch {
	case flags.has(NameOnly):
		ext := filepath.Ext(item.OriginalName())
		return replaced + ext
	case flags.has(ExtensionOnly):
		stem := Stem(item.OriginalName())
		return stem + "." + replaced
	default:
		return replaced
	}
}

func (w *PreviewWorker) replace(cacheKey, source string) (string, bool) {
	if w.replayCache != nil {
		if replaced, matched, found := w.replayCache.Get(cacheKey, uint32(w.adapter.Flags()), source); found {
			return replaced, matched
		}
	}

	replaced, matched := w.adapter.Replace(source)

	if w.replayCache != nil {
		w.replayCache.Set(cacheKey, uint32(w.adapter.Flags()), source, replaced, matched)
	}
	return replaced, matched
}

func (w *PreviewWorker) disambiguate(item *Item, candidate string, claimed map[string]map[string]struct{}) string {
	parent := item.ParentPath()
	set, ok := claimed[parent]
	if !ok {
		set = make(map[string]struct{})
		claimed[parent] = set
	}

	exists := func(name string) bool {
		if _, taken := set[name]; taken {
			return true
		}
		if w.dirCache != nil {
			return w.dirCache.Exists(parent, name)
		}
		return false
	}

	result := disambiguateName(candidate, exists)
	set[result] = struct{}{}
	return result
}

func (w *PreviewWorker) post(msg workerMessage) {
	if w.messages == nil {
		return
	}
	w.messages <- msg
}
