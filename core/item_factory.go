package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ItemFactory is the external collaborator of spec.md §6: Create()
// produces a new Item. The Manager neither calls nor holds one (it has
// no item-factory accessor); it is exposed so a caller can populate the
// Manager's item store.
type ItemFactory interface {
	Create(parentPath, name string, isFolder bool) *Item
}

// idSequence hands out stable, unique ids for items created by the
// default factory (spec.md §3: "id never changes after creation").
type idSequence struct {
	next int
}

func (s *idSequence) nextID() int {
	s.next++
	return s.next
}

// DefaultItemFactory creates Items for real filesystem entries, each
// carrying a UUID-based handle (SPEC_FULL.md's DOMAIN STACK: promoting
// google/uuid from an indirect, teacher-unused dependency to a
// directly exercised one, standing in for "a handle to a shell/OS
// item").
type DefaultItemFactory struct {
	ids idSequence
}

// NewDefaultItemFactory creates a factory whose ids start at 1.
func NewDefaultItemFactory() *DefaultItemFactory {
	return &DefaultItemFactory{}
}

func (f *DefaultItemFactory) Create(parentPath, name string, isFolder bool) *Item {
	handle := ItemHandle{ID: uuid.NewString(), Path: filepath.Join(parentPath, name)}
	return NewItem(f.ids.nextID(), parentPath, name, isFolder, handle)
}

// EnumerateDirectory walks path (recursively if recursive is true) and
// creates an Item for every directory and for every file whose name
// matches filePattern ("" for no filter), grounded on
// core/batch_rename.go::collectFilesForRename. filePattern is turned
// into a regular expression by escaping "." and replacing "*" with
// ".*"; every other character keeps its regular-expression meaning.
func EnumerateDirectory(factory ItemFactory, path string, recursive bool, filePattern string) ([]*Item, error) {
	var patternRegex *regexp.Regexp
	if filePattern != "" {
		regexPattern := "^" + strings.ReplaceAll(strings.ReplaceAll(filePattern, ".", `\.`), "*", ".*") + "$"
		var err error
		patternRegex, err = regexp.Compile(regexPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}

	if !info.IsDir() {
		if patternRegex != nil && !patternRegex.MatchString(filepath.Base(path)) {
			return nil, nil
		}
		item := factory.Create(filepath.Dir(path), filepath.Base(path), false)
		return []*Item{item}, nil
	}

	var items []*Item
	walkFn := func(currentPath string, d os.FileInfo, err error) error {
		if err != nil {
			return nil // continue on error, per the teacher's walkFn
		}
		if currentPath == path {
			return nil
		}
		if !recursive && filepath.Dir(currentPath) != path {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if patternRegex != nil && !d.IsDir() && !patternRegex.MatchString(d.Name()) {
			return nil
		}

		items = append(items, factory.Create(filepath.Dir(currentPath), d.Name(), d.IsDir()))
		return nil
	}

	if err := filepath.Walk(path, walkFn); err != nil {
		return nil, err
	}
	return items, nil
}

// FileRenamer is the external collaborator of spec.md §6: a batch
// rename of (handle, new_final_component) entries. Its configuration
// (RenamerOptions) covers collision-renaming and an owner window only;
// there is no allow-undo or elevation-prompt setting. It is the Go
// stand-in for IFileOperation in
// original_source/SmartRenameManager.cpp.
type FileRenamer interface {
	// Rename performs the renames in entries. Per-item failures are
	// aggregated by the renamer, not surfaced individually (spec.md §7
	// — "RenameItemFailure ... aggregated by the primitive, not the
	// manager"); the returned error is non-nil only if the batch could
	// not be attempted at all.
	Rename(ctx context.Context, entries []RenameEntry) (*RenameBatchResult, error)
}

// RenameEntry pairs an item handle with the final path component to
// rename it to.
type RenameEntry struct {
	Handle  ItemHandle
	NewName string
}

// RenameBatchResult reports the outcome of one batch rename.
type RenameBatchResult struct {
	OperationID string
	Succeeded   int
	Failed      int
	Errors      []error
}

// RenamerOptions carries two of the FOF_* settings the original passes
// to IFileOperation — rename-on-collision and the owner window — as
// plain Go configuration rather than Win32 bit flags. It has no
// allow-undo or elevation-prompt option.
type RenamerOptions struct {
	RenameOnCollision bool
	OwnerWindow       uintptr // opaque; the view layer's concern, unused by DefaultFileRenamer
}
