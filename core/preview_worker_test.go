package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPreview(t *testing.T, store *ItemStore, adapter RegexAdapter) []workerMessage {
	t.Helper()
	messages := make(chan workerMessage, 64)
	worker := NewPreviewWorker(store, adapter, nil, nil, messages)

	go func() {
		defer close(messages)
		worker.Run(context.Background())
	}()

	var collected []workerMessage
	for msg := range messages {
		collected = append(collected, msg)
	}
	return collected
}

// S1: NameOnly, "a" -> "x" on the stem only.
func TestPreviewWorkerNameOnly(t *testing.T) {
	store := NewItemStore("")
	store.Append(NewItem(1, "/tmp", "a.txt", false, ItemHandle{}))
	store.Append(NewItem(2, "/tmp", "b.txt", false, ItemHandle{}))

	adapter := NewDefaultRegexAdapter()
	adapter.SetPattern("a")
	adapter.SetReplacement("x")
	adapter.SetFlags(NameOnly)

	messages := runPreview(t, store, adapter)

	require.Len(t, messages, 3)
	assert.Equal(t, workerRegExStarted, messages[0].kind)
	assert.Equal(t, workerItemUpdated, messages[1].kind)
	assert.Equal(t, 1, messages[1].itemID)
	assert.Equal(t, workerRegExCompleted, messages[2].kind)

	item1, _ := store.GetByID(1)
	newName, ok := item1.NewName()
	require.True(t, ok)
	assert.Equal(t, "x.txt", newName)

	item2, _ := store.GetByID(2)
	_, ok = item2.NewName()
	assert.False(t, ok, "b.txt's stem does not match and stays unrenamed")
}

// S2: ExtensionOnly, "txt" -> "md" on every item.
func TestPreviewWorkerExtensionOnly(t *testing.T) {
	store := NewItemStore("")
	store.Append(NewItem(1, "/tmp", "a.txt", false, ItemHandle{}))
	store.Append(NewItem(2, "/tmp", "b.txt", false, ItemHandle{}))

	adapter := NewDefaultRegexAdapter()
	adapter.SetPattern("txt")
	adapter.SetReplacement("md")
	adapter.SetFlags(ExtensionOnly)

	messages := runPreview(t, store, adapter)

	require.Len(t, messages, 4)
	assert.Equal(t, workerRegExStarted, messages[0].kind)
	assert.Equal(t, workerItemUpdated, messages[1].kind)
	assert.Equal(t, 1, messages[1].itemID)
	assert.Equal(t, workerItemUpdated, messages[2].kind)
	assert.Equal(t, 2, messages[2].itemID)
	assert.Equal(t, workerRegExCompleted, messages[3].kind)

	item1, _ := store.GetByID(1)
	n1, _ := item1.NewName()
	assert.Equal(t, "a.md", n1)

	item2, _ := store.GetByID(2)
	n2, _ := item2.NewName()
	assert.Equal(t, "b.md", n2)
}

// ExtensionOnly with a pattern that empties the extension composes a
// literal trailing-dot name rather than dropping the dot, matching
// SmartRenameManager.cpp's unconditional stem+"."+newName composition.
func TestPreviewWorkerExtensionOnlyEmptyReplacementKeepsDot(t *testing.T) {
	store := NewItemStore("")
	store.Append(NewItem(1, "/tmp", "a.txt", false, ItemHandle{}))

	adapter := NewDefaultRegexAdapter()
	adapter.SetPattern(".+")
	adapter.SetReplacement("")
	adapter.SetFlags(ExtensionOnly)

	runPreview(t, store, adapter)

	item, _ := store.GetByID(1)
	newName, ok := item.NewName()
	require.True(t, ok)
	assert.Equal(t, "a.", newName)
}

// S3: EnumerateItems, two siblings both named "a.txt" whose replaced stem
// collides within the same preview run must disambiguate against each
// other, not just against disk.
func TestPreviewWorkerEnumerateItemsDisambiguatesWithinRun(t *testing.T) {
	store := NewItemStore("")
	store.Append(NewItem(1, "/tmp", "a.txt", false, ItemHandle{}))
	store.Append(NewItem(2, "/tmp", "a.txt", false, ItemHandle{}))

	adapter := NewDefaultRegexAdapter()
	adapter.SetPattern("a")
	adapter.SetReplacement("a") // identity: no new name expected yet
	adapter.SetFlags(EnumerateItems)

	messages := runPreview(t, store, adapter)
	assert.Len(t, messages, 2, "identity replacement produces no updates, only Started/Completed")

	item1, _ := store.GetByID(1)
	_, ok := item1.NewName()
	assert.False(t, ok)

	// Now replace "a" -> "c": both items collide on "c.txt" and must
	// disambiguate against each other within this single run.
	adapter.SetReplacement("c")
	messages = runPreview(t, store, adapter)

	var updated []int
	for _, msg := range messages {
		if msg.kind == workerItemUpdated {
			updated = append(updated, msg.itemID)
		}
	}
	assert.ElementsMatch(t, []int{1, 2}, updated)

	item1, _ = store.GetByID(1)
	item2, _ := store.GetByID(2)
	n1, _ := item1.NewName()
	n2, _ := item2.NewName()

	assert.NotEqual(t, n1, n2, "both items must resolve to distinct names")
	assert.ElementsMatch(t, []string{"c.txt", "c (1).txt"}, []string{n1, n2})
}

func TestPreviewWorkerCancellationAtIterationBoundary(t *testing.T) {
	store := NewItemStore("")
	store.Append(NewItem(1, "/tmp", "a.txt", false, ItemHandle{}))

	adapter := NewDefaultRegexAdapter()
	adapter.SetPattern("a")
	adapter.SetReplacement("x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	messages := make(chan workerMessage, 8)
	worker := NewPreviewWorker(store, adapter, nil, nil, messages)
	go func() {
		defer close(messages)
		worker.Run(ctx)
	}()

	var collected []workerMessage
	for msg := range messages {
		collected = append(collected, msg)
	}

	require.Len(t, collected, 2)
	assert.Equal(t, workerRegExStarted, collected[0].kind)
	assert.Equal(t, workerRegExCanceled, collected[1].kind)

	item, _ := store.GetByID(1)
	_, ok := item.NewName()
	assert.False(t, ok, "a canceled run never touches item state")
}
