package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemDefaults(t *testing.T) {
	item := NewItem(1, "/tmp/dir", "a.txt", false, ItemHandle{ID: "h1", Path: "/tmp/dir/a.txt"})

	assert.Equal(t, 1, item.ID())
	assert.Equal(t, "a.txt", item.OriginalName())
	assert.Equal(t, "/tmp/dir", item.ParentPath())
	assert.False(t, item.IsFolder())
	assert.True(t, item.Selected())
	assert.Equal(t, "/tmp/dir/a.txt", item.FullPath())

	_, ok := item.NewName()
	assert.False(t, ok)
}

func TestItemSetNewNameAndReset(t *testing.T) {
	item := NewItem(1, "/tmp", "a.txt", false, ItemHandle{})
	name := "x.txt"
	item.setNewName(&name)

	got, ok := item.NewName()
	require.True(t, ok)
	assert.Equal(t, "x.txt", got)

	item.Reset()
	_, ok = item.NewName()
	assert.False(t, ok)
}

func TestItemShouldRename(t *testing.T) {
	item := NewItem(1, "/tmp", "a.txt", false, ItemHandle{})

	assert.False(t, item.ShouldRename(0), "no pending new name")

	same := "a.txt"
	item.setNewName(&same)
	assert.False(t, item.ShouldRename(0), "new name equal to original is not a rename")

	changed := "b.txt"
	item.setNewName(&changed)
	assert.True(t, item.ShouldRename(0))
	assert.False(t, item.ShouldRename(ExcludeFiles), "ExcludeFiles drops non-folder items")
	assert.True(t, item.ShouldRename(ExcludeFolders), "ExcludeFolders does not drop a file")

	folder := NewItem(2, "/tmp", "d", true, ItemHandle{})
	folderNew := "e"
	folder.setNewName(&folderNew)
	assert.False(t, folder.ShouldRename(ExcludeFolders))
	assert.True(t, folder.ShouldRename(ExcludeFiles))
}

func TestItemSelection(t *testing.T) {
	item := NewItem(1, "/tmp", "a.txt", false, ItemHandle{})
	assert.True(t, item.Selected())
	item.SetSelected(false)
	assert.False(t, item.Selected())
}

func TestStemAndExtensionNoDot(t *testing.T) {
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, "gz", ExtensionNoDot("archive.tar.gz"))
	assert.Equal(t, "", ExtensionNoDot("noext"))
	assert.Equal(t, "noext", Stem("noext"))
}

func TestValidateFinalComponent(t *testing.T) {
	require.NoError(t, ValidateFinalComponent("a.txt"))

	for _, bad := range []string{"", "a/b", "a\\b", ".", ".."} {
		assert.Error(t, ValidateFinalComponent(bad), "expected %q to be rejected", bad)
	}
}
