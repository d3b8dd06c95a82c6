package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// CommitWorker collects the items an ItemStore marks should_rename and
// hands them to a FileRenamer as one batch (spec.md §4.4, C6) — the Go
// stand-in for SmartRenameManager.cpp's s_fileOpWorkerThread, which
// collects the same set and drives a single IFileOperation.
type CommitWorker struct {
	store    *ItemStore
	renamer  FileRenamer
	messages chan<- workerMessage
}

// NewCommitWorker constructs a worker posting to messages.
func NewCommitWorker(store *ItemStore, renamer FileRenamer, messages chan<- workerMessage) *CommitWorker {
	return &CommitWorker{store: store, renamer: renamer, messages: messages}
}

// Run collects every should_rename item under flags and submits them to
// the renamer in one batch. It posts RenameStarted just before handing
// the batch to the renamer and RenameCompleted once the renamer
// returns, regardless of per-item
// outcome (spec.md §4.4 — commit is a single start/complete event pair,
// not one per item).
func (w *CommitWorker) Run(ctx context.Context, flags Flags) (*RenameBatchResult, error) {
	var entries []RenameEntry
	for _, item := range w.store.Snapshot() {
		if !w.store.ShouldRename(item, flags) {
			continue
		}
		newName, ok := item.NewName()
		if !ok {
			continue
		}
		entries = append(entries, RenameEntry{Handle: item.Handle(), NewName: newName})
	}

	// spec.md §8 invariant 6: zero eligible items is a failure that
	// emits neither RenameStarted nor RenameCompleted, so the check
	// happens before the first post, not after.
	if len(entries) == 0 {
		return nil, &NoWorkError{}
	}

	w.post(workerMessage{kind: workerRenameStarted})
	result, err := w.renamer.Rename(ctx, entries)
	w.post(workerMessage{kind: workerRenameCompleted, result: result})
	return result, err
}

func (w *CommitWorker) post(msg workerMessage) {
	if w.messages == nil {
		return
	}
	w.messages <- msg
}

// DefaultFileRenamer executes renames concurrently with a bounded
// worker pool, grounded on
// core/batch_rename.go::executeRenameOperations's ants.Pool/WaitGroup/
// mutex-guarded-aggregation shape. Unlike IFileOperation it has no undo
// journal of its own (spec.md's Non-goals exclude one); a collision at
// rename time is resolved the same way preview-time EnumerateItems
// collisions are, via disambiguateName, when RenamerOptions.RenameOnCollision
// is set.
type DefaultFileRenamer struct {
	pool    *ants.Pool
	options RenamerOptions
}

// NewDefaultFileRenamer creates a renamer backed by a pool of the given
// size (ants.WithPreAlloc mirrors the teacher's pool construction).
func NewDefaultFileRenamer(poolSize int, options RenamerOptions) (*DefaultFileRenamer, error) {
	pool, err := ants.NewPool(poolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, &AllocationError{Op: "commit worker pool", Err: err}
	}
	return &DefaultFileRenamer{pool: pool, options: options}, nil
}

// Rename implements FileRenamer.
func (r *DefaultFileRenamer) Rename(ctx context.Context, entries []RenameEntry) (*RenameBatchResult, error) {
	result := &RenameBatchResult{OperationID: uuid.NewString()}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range entries {
		entry := entries[i]
		wg.Add(1)

		err := r.pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				mu.Lock()
				result.Failed++
				result.Errors = append(result.Errors, &ContextError{Op: "rename", Details: ctx.Err().Error()})
				mu.Unlock()
				return
			}

			newName := entry.NewName
			if r.options.RenameOnCollision {
				newName = r.resolveCollision(entry)
			}
			newPath := filepath.Join(filepath.Dir(entry.Handle.Path), newName)

			err := os.Rename(entry.Handle.Path, newPath)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, &PathError{Op: "rename", Path: entry.Handle.Path, Err: err})
			} else {
				result.Succeeded++
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("submit rename task: %w", err))
			mu.Unlock()
		}
	}

	wg.Wait()
	return result, nil
}

// resolveCollision re-disambiguates against the destination directory's
// current disk state, for the window between preview and commit in
// which another process may have claimed the previewed name.
func (r *DefaultFileRenamer) resolveCollision(entry RenameEntry) string {
	parent := filepath.Dir(entry.Handle.Path)
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(parent, name))
		return err == nil
	}
	return disambiguateName(entry.NewName, exists)
}

// Release returns the worker pool's goroutines. Call once the renamer
// is no longer needed.
func (r *DefaultFileRenamer) Release() {
	r.pool.Release()
}
