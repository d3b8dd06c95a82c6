package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Flags is the bitset of rename configuration options (spec.md §3).
type Flags uint32

const (
	// NameOnly restricts the regex to the stem of the filename.
	NameOnly Flags = 1 << iota
	// ExtensionOnly restricts the regex to the extension (no leading dot).
	ExtensionOnly
	// EnumerateItems disambiguates colliding new names with a numeric counter.
	EnumerateItems
	// ExcludeFolders removes folders from the rename set.
	ExcludeFolders
	// ExcludeFiles removes files from the rename set.
	ExcludeFiles
	// ExcludeSubfolderItems removes items whose parent is not the base path.
	ExcludeSubfolderItems
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// ItemHandle is the stand-in for a shell/OS item handle: a stable,
// comparable identity a FileRenamer can use to address the underlying
// filesystem entry at commit time.
type ItemHandle struct {
	ID   string
	Path string
}

// Item is one candidate rename target (spec.md §3, C1).
//
// id, OriginalName and ParentPath never change after construction.
// NewName is nil when the item contributes nothing at commit.
type Item struct {
	id           int
	originalName string
	parentPath   string
	isFolder     bool
	handle       ItemHandle

	newName  *string
	selected bool
}

// NewItem constructs an Item. id must be unique within the owning
// ItemStore's session.
func NewItem(id int, parentPath, originalName string, isFolder bool, handle ItemHandle) *Item {
	return &Item{
		id:           id,
		originalName: originalName,
		parentPath:   parentPath,
		isFolder:     isFolder,
		handle:       handle,
		selected:     true,
	}
}

func (it *Item) ID() int             { return it.id }
func (it *Item) OriginalName() string { return it.originalName }
func (it *Item) ParentPath() string   { return it.parentPath }
func (it *Item) IsFolder() bool       { return it.isFolder }
func (it *Item) Handle() ItemHandle   { return it.handle }

// FullPath returns the item's current on-disk path.
func (it *Item) FullPath() string {
	return filepath.Join(it.parentPath, it.originalName)
}

// NewName returns the current computed new name, or "" with ok=false
// if the item has no pending rename.
func (it *Item) NewName() (string, bool) {
	if it.newName == nil {
		return "", false
	}
	return *it.newName, true
}

// setNewName is called by the preview worker only. nil clears the preview.
func (it *Item) setNewName(name *string) {
	it.newName = name
}

// Selected reports whether the user has selected this item for
// consideration (spec.md's "supplemented" selected-item accounting,
// see SPEC_FULL.md).
func (it *Item) Selected() bool { return it.selected }

// SetSelected updates the user-selection flag.
func (it *Item) SetSelected(selected bool) { it.selected = selected }

// Reset clears the item's computed new name, returning it to "no
// rename" without removing it from the store (SPEC_FULL.md's
// supplemented per-item Reset, grounded on ISmartRenameItem::Reset).
func (it *Item) Reset() {
	it.newName = nil
}

// ShouldRename implements the should_rename(flags) predicate of
// spec.md §3, including the per-flag exclusion filters of §3/§4.4.
func (it *Item) ShouldRename(flags Flags) bool {
	if it.newName == nil {
		return false
	}
	if *it.newName == it.originalName {
		return false
	}
	if flags.has(ExcludeFolders) && it.isFolder {
		return false
	}
	if flags.has(ExcludeFiles) && !it.isFolder {
		return false
	}
	return true
}

// Stem returns the final path component without its extension.
func Stem(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext)
}

// ExtensionNoDot returns the final path component's extension with the
// leading dot stripped, or "" if there is none.
func ExtensionNoDot(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimPrefix(ext, ".")
}

// ValidateFinalComponent rejects candidate names containing path
// separators, per spec.md §3's invariant that new_name is always a
// valid final path component.
func ValidateFinalComponent(name string) error {
	if name == "" {
		return fmt.Errorf("empty final path component")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q is not a valid final path component", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%q is not a valid final path component", name)
	}
	return nil
}
