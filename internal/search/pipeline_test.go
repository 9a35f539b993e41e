package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addness-teambase/ai-file-search/internal/config"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/llm"
)

// fakeLLM routes every request through fn.
type fakeLLM struct {
	fn func(req llm.Request) (string, error)
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	return f.fn(req)
}

var errServiceDown = errors.New("service unavailable")

func downLLM() *fakeLLM {
	return &fakeLLM{fn: func(llm.Request) (string, error) { return "", errServiceDown }}
}

func testIndex(t *testing.T, names ...string) *index.Index {
	t.Helper()
	root := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i, name := range names {
		path := filepath.Join(root, name)
		content := "content of " + name + " with plenty of additional descriptive text inside"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	return index.New(config.IndexConfig{
		Roots:       []string{root},
		Extensions:  []string{"pdf", "txt", "md", "csv", "docx"},
		SkipDirs:    []string{".git"},
		FolderDepth: 3,
	})
}

func testPipeline(ix *index.Index, client llm.Client) *Pipeline {
	return NewPipeline(ix, client, config.SearchConfig{MaxListed: 800, MaxResults: 100})
}

func TestSearchEmptyQuery(t *testing.T) {
	p := testPipeline(testIndex(t, "a.txt"), downLLM())
	_, err := p.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchNoFiles(t *testing.T) {
	p := testPipeline(testIndex(t), downLLM())
	_, err := p.Search(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestSearchLocalFallbackWhenServiceUnavailable(t *testing.T) {
	p := testPipeline(testIndex(t, "invoice_2023.pdf", "notes.txt"), downLLM())

	resp, err := p.Search(context.Background(), "invoice")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, resp.Mode)
	require.Len(t, resp.Results, 1)

	got := resp.Results[0]
	assert.Equal(t, "invoice_2023.pdf", got.Name)
	// Summaries degrade to the canned text, never empty.
	assert.Contains(t, got.Summary, "invoice_2023.pdf")
	assert.Contains(t, got.Summary, "PDF")
	assert.Contains(t, got.Summary, "invoice")
}

func TestSearchAIMode(t *testing.T) {
	client := &fakeLLM{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "File search.") {
			// Entries are mtime-desc: index 0 = c.md, 1 = b.txt, 2 = a.txt.
			return "The relevant entries are [2, 0] based on my analysis.", nil
		}
		return "A detailed summary of the document in question.", nil
	}}
	p := testPipeline(testIndex(t, "a.txt", "b.txt", "c.md"), client)

	resp, err := p.Search(context.Background(), "project notes")
	require.NoError(t, err)
	assert.Equal(t, ModeAI, resp.Mode)
	require.Len(t, resp.Results, 2)
	// Output order matches the model's ranking.
	assert.Equal(t, "a.txt", resp.Results[0].Name)
	assert.Equal(t, "c.md", resp.Results[1].Name)
	assert.Equal(t, "A detailed summary of the document in question.", resp.Results[0].Summary)
	assert.Positive(t, resp.Results[0].TextChars)
}

func TestSearchAIIgnoresOutOfRangeIndices(t *testing.T) {
	client := &fakeLLM{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "File search.") {
			return "[99, -3, 0]", nil
		}
		return "A sufficiently long generated summary.", nil
	}}
	p := testPipeline(testIndex(t, "a.txt"), client)

	resp, err := p.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, ModeAI, resp.Mode)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.txt", resp.Results[0].Name)
}

func TestSearchCascadesOnUnparsableResponse(t *testing.T) {
	client := &fakeLLM{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "File search.") {
			return "I'm sorry, I can't help with that.", nil
		}
		return "A sufficiently long generated summary.", nil
	}}
	p := testPipeline(testIndex(t, "invoice.pdf"), client)

	resp, err := p.Search(context.Background(), "invoice")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, resp.Mode)
	require.Len(t, resp.Results, 1)
}

func TestSearchCascadesOnEmptyShortlist(t *testing.T) {
	client := &fakeLLM{fn: func(req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "File search.") {
			return "[]", nil
		}
		return "A sufficiently long generated summary.", nil
	}}
	p := testPipeline(testIndex(t, "invoice.pdf"), client)

	resp, err := p.Search(context.Background(), "invoice")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, resp.Mode)
	require.Len(t, resp.Results, 1)
}

func TestSearchZeroMatchesBothPathsIsEmptyNotError(t *testing.T) {
	p := testPipeline(testIndex(t, "notes.txt"), downLLM())

	resp, err := p.Search(context.Background(), "quarterly")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, resp.Mode)
	assert.Empty(t, resp.Results)
}

func TestSearchFoldersGetFixedLabel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Receipts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "receipt_scan.txt"), []byte("scan"), 0644))
	ix := index.New(config.IndexConfig{
		Roots:       []string{root},
		Extensions:  []string{"txt"},
		SkipDirs:    []string{".git"},
		FolderDepth: 3,
	})
	p := testPipeline(ix, downLLM())

	resp, err := p.Search(context.Background(), "receipt")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	var folder *Result
	for i := range resp.Results {
		if resp.Results[i].IsFolder {
			folder = &resp.Results[i]
		}
	}
	require.NotNil(t, folder)
	assert.Equal(t, "Receipts", folder.Name)
	assert.Equal(t, folderSummary, folder.Summary)
	assert.Zero(t, folder.TextChars)
}
