package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addness-teambase/ai-file-search/internal/config"
)

func testConfig(roots ...string) config.IndexConfig {
	return config.IndexConfig{
		Roots:       roots,
		Extensions:  []string{"pdf", "docx", "txt", "md", "csv"},
		SkipDirs:    []string{"node_modules", ".git", ".Trash"},
		FolderDepth: 3,
	}
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestScanFiltersAndOrders(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	touch(t, filepath.Join(root, "old.txt"), base)
	touch(t, filepath.Join(root, "newer.pdf"), base.Add(10*time.Minute))
	touch(t, filepath.Join(root, "sub", "nested.docx"), base.Add(5*time.Minute))
	// Outside the allow-list.
	touch(t, filepath.Join(root, "photo.png"), base.Add(20*time.Minute))
	// Hidden file and hidden dir.
	touch(t, filepath.Join(root, ".secret.txt"), base)
	touch(t, filepath.Join(root, ".cache", "cached.txt"), base)
	// Deny-listed dir.
	touch(t, filepath.Join(root, "node_modules", "readme.md"), base)

	ix := New(testConfig(root))
	files := ix.Scan()

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"newer.pdf", "nested.docx", "old.txt"}, names)

	for _, f := range files {
		assert.Contains(t, []string{"pdf", "docx", "txt", "md", "csv"}, f.Extension)
		assert.NotContains(t, f.Path, "node_modules")
		assert.NotContains(t, f.Path, "/.")
	}
}

func TestScanCacheIdempotentUntilInvalidated(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	touch(t, filepath.Join(root, "a.txt"), base)

	ix := New(testConfig(root))
	first := ix.Scan()

	// A new file without invalidation is not observed.
	touch(t, filepath.Join(root, "b.txt"), base.Add(time.Minute))
	second := ix.Scan()
	assert.Empty(t, cmp.Diff(first, second))

	// Invalidation forces a re-walk that sees the change.
	ix.Invalidate()
	third := ix.Scan()
	assert.Len(t, third, 2)
	assert.NotEmpty(t, cmp.Diff(first, third))
}

func TestScanMissingRootYieldsNothing(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, filepath.Join(root, "a.txt"), base)

	ix := New(testConfig(root, filepath.Join(root, "does-not-exist")))
	files := ix.Scan()
	assert.Len(t, files, 1)
}

func TestRecentCapsCount(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(root, string(rune('a'+i))+".txt"), base.Add(time.Duration(i)*time.Minute))
	}

	ix := New(testConfig(root))
	recent := ix.Recent(3)
	require.Len(t, recent, 3)
	// Newest first.
	assert.True(t, recent[0].ModTime.After(recent[2].ModTime))
}

func TestScanFoldersBoundedDepth(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "l1", "l2", "l3", "l4"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden"), 0755))

	ix := New(testConfig(root))
	folders := ix.ScanFolders()

	var names []string
	for _, f := range folders {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "l1")
	assert.Contains(t, names, "l2")
	assert.Contains(t, names, "l3")
	assert.NotContains(t, names, "l4") // beyond depth 3
	assert.NotContains(t, names, "node_modules")
	assert.NotContains(t, names, ".hidden")
}

func TestListChildrenOrdering(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "beta"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Alpha"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0755))
	touch(t, filepath.Join(root, "older.txt"), base)
	touch(t, filepath.Join(root, "newest.md"), base.Add(time.Minute))
	touch(t, filepath.Join(root, "skipped.bin"), base)

	ix := New(testConfig(root))
	listing := ix.ListChildren(root)

	require.Len(t, listing.Folders, 2)
	assert.Equal(t, "Alpha", listing.Folders[0].Name)
	assert.Equal(t, "beta", listing.Folders[1].Name)

	require.Len(t, listing.Files, 2)
	assert.Equal(t, "newest.md", listing.Files[0].Name)
	assert.Equal(t, "older.txt", listing.Files[1].Name)
}

func TestListChildrenCollatedFolderOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"写真", "Archive", "請求書", "drafts"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0755))
	}

	ix := New(testConfig(root))
	listing := ix.ListChildren(root)

	require.Len(t, listing.Folders, 4)
	var names []string
	for _, f := range listing.Folders {
		names = append(names, f.Name)
	}
	// Collated order: Latin names case-insensitively first, then kanji by
	// the ja tailoring, not by raw code point.
	assert.Equal(t, []string{"Archive", "drafts", "写真", "請求書"}, names)
}

func TestListChildrenUnreadablePath(t *testing.T) {
	ix := New(testConfig(t.TempDir()))
	listing := ix.ListChildren("/definitely/not/a/path")
	assert.Empty(t, listing.Folders)
	assert.Empty(t, listing.Files)
}

func TestListAllChildrenIgnoresAllowList(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, filepath.Join(root, "anything.xyz"), base)

	ix := New(testConfig(root))
	assert.Empty(t, ix.ListChildren(root).Files)
	assert.Len(t, ix.ListAllChildren(root).Files, 1)
}

func TestTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "projects"), 0755))

	ix := New(testConfig(root, "/missing-root"))
	tree := ix.Tree()
	require.Len(t, tree, 1)
	assert.Equal(t, filepath.Base(root), tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "projects", tree[0].Children[0].Name)
}
