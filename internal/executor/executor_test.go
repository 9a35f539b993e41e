package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addness-teambase/ai-file-search/internal/config"
	"github.com/addness-teambase/ai-file-search/internal/index"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
}

func newTestExecutor(t *testing.T, root string) (*Executor, *index.Index) {
	t.Helper()
	ix := index.New(config.IndexConfig{
		Roots:      []string{root},
		Extensions: []string{"txt"},
	})
	return New(ix), ix
}

func TestExecuteOrderAndIsolation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	exec, _ := newTestExecutor(t, root)
	results := exec.Execute([]Action{
		{Kind: KindCreateFolder, BasePath: root, Destination: "Sorted"},
		{Kind: KindMove, SourcePath: filepath.Join(root, "missing.txt"), BasePath: root, Destination: "Sorted"},
		{Kind: KindMove, SourcePath: filepath.Join(root, "a.txt"), BasePath: root, Destination: "Sorted"},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "missing source is a per-action failure")
	assert.NoError(t, results[2].Err, "failure earlier in the batch does not abort later actions")
	assert.FileExists(t, filepath.Join(root, "Sorted", "a.txt"))
}

func TestExecuteCreateFolderIdempotent(t *testing.T) {
	root := t.TempDir()
	exec, _ := newTestExecutor(t, root)

	a := Action{Kind: KindCreateFolder, BasePath: root, Destination: "Archive"}
	assert.NoError(t, exec.Execute([]Action{a})[0].Err)
	assert.NoError(t, exec.Execute([]Action{a})[0].Err)
	assert.DirExists(t, filepath.Join(root, "Archive"))
}

func TestExecuteRenameAndDelete(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "draft.txt"))
	writeFile(t, filepath.Join(root, "junk.txt"))

	exec, _ := newTestExecutor(t, root)
	results := exec.Execute([]Action{
		{Kind: KindRename, SourcePath: filepath.Join(root, "draft.txt"), Destination: "final.txt"},
		{Kind: KindDelete, SourcePath: filepath.Join(root, "junk.txt")},
	})

	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.FileExists(t, filepath.Join(root, "final.txt"))
	assert.NoFileExists(t, filepath.Join(root, "draft.txt"))
	assert.NoFileExists(t, filepath.Join(root, "junk.txt"))
}

func TestExecuteInvalidatesIndexOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))

	exec, ix := newTestExecutor(t, root)
	require.Len(t, ix.Scan(), 1)

	exec.Execute([]Action{
		{Kind: KindMove, SourcePath: filepath.Join(root, "a.txt"), BasePath: root, Destination: "Box"},
	})

	// Moved into a subdirectory, so the fresh walk still finds one file but
	// at the new path.
	files := ix.Scan()
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "Box", "a.txt"), files[0].Path)
}

func TestExecuteCollectSkipsNameCollision(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Trip", "photo.txt"))
	writeFile(t, filepath.Join(root, "inbox", "photo.txt"))
	writeFile(t, filepath.Join(root, "inbox", "notes.txt"))

	exec, _ := newTestExecutor(t, root)
	out, err := exec.ExecuteCollect(root, "Trip", []string{
		filepath.Join(root, "inbox", "photo.txt"),
		filepath.Join(root, "inbox", "notes.txt"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Moved)
	assert.Equal(t, 1, out.Skipped)
	assert.FileExists(t, filepath.Join(root, "inbox", "photo.txt"),
		"the colliding file stays where it was")
	assert.FileExists(t, filepath.Join(root, "Trip", "notes.txt"))
}

func TestExecuteCollectCaseInsensitiveCollision(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Docs", "Report.txt"))
	writeFile(t, filepath.Join(root, "inbox", "report.txt"))

	exec, _ := newTestExecutor(t, root)
	out, err := exec.ExecuteCollect(root, "Docs", []string{
		filepath.Join(root, "inbox", "report.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, CollectOutcome{Moved: 0, Skipped: 1}, out)
}

func TestExecuteCollectNeverLosesFiles(t *testing.T) {
	root := t.TempDir()
	var inputs []string
	names := []string{"a.txt", "b.txt", "c.txt", "a.txt"}
	for i, name := range names {
		path := filepath.Join(root, "inbox", string(rune('0'+i)), name)
		writeFile(t, path)
		inputs = append(inputs, path)
	}
	// One input vanishes before the batch runs.
	gone := filepath.Join(root, "inbox", "gone.txt")
	inputs = append(inputs, gone)

	exec, _ := newTestExecutor(t, root)
	out, err := exec.ExecuteCollect(root, "All", inputs)
	require.NoError(t, err)

	// Every surviving input is accounted for exactly once.
	assert.Equal(t, len(names), out.Moved+out.Skipped)
	assert.Equal(t, 3, out.Moved, "second a.txt collides with the first")
	assert.Equal(t, 1, out.Skipped)
}

func TestExecuteCollectCreatesFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "loose.txt"))

	exec, _ := newTestExecutor(t, root)
	out, err := exec.ExecuteCollect(root, "Fresh", []string{filepath.Join(root, "loose.txt")})
	require.NoError(t, err)
	assert.Equal(t, CollectOutcome{Moved: 1, Skipped: 0}, out)
	assert.FileExists(t, filepath.Join(root, "Fresh", "loose.txt"))
}

func TestExecuteUnknownKind(t *testing.T) {
	exec, _ := newTestExecutor(t, t.TempDir())
	results := exec.Execute([]Action{{Kind: "shred"}})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
