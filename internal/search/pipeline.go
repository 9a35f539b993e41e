// Package search resolves free-text queries against the filesystem index.
// The primary path asks the language service to shortlist relevant entries;
// any service failure, unparsable response, or empty shortlist falls
// through to a deterministic local keyword ranking, so a degraded service
// means less precise results rather than none.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/config"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/jsonx"
	"github.com/addness-teambase/ai-file-search/internal/llm"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

// Mode records which ranking produced a result set.
type Mode string

const (
	ModeAI    Mode = "ai"
	ModeLocal Mode = "local"
)

var (
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrNoFiles is returned when the index holds no eligible files.
	ErrNoFiles = errors.New("no files found under the watched directories")
)

// folderSummary is the fixed label folders carry in place of an extracted
// summary.
const folderSummary = "A folder under your watched directories. Open it to browse its contents."

const searchTemperature = 0.1

// Result is one search hit, always carrying a non-empty summary.
type Result struct {
	Name      string
	Path      string
	Extension string // empty for folders
	IsFolder  bool
	Size      int64
	ModTime   time.Time
	Summary   string
	TextChars int // extracted characters the summary was built from
}

// Pipeline executes searches against the index.
type Pipeline struct {
	index      *index.Index
	client     llm.Client
	summarizer *Summarizer
	maxListed  int
	maxResults int
	logger     *zap.Logger
}

// Response is one completed search.
type Response struct {
	Results []Result
	Mode    Mode
}

// listItem is one candidate offered to either ranking.
type listItem struct {
	name   string
	folder bool
	file   index.FileEntry
	dir    index.FolderEntry
}

// NewPipeline builds the search pipeline.
func NewPipeline(ix *index.Index, client llm.Client, cfg config.SearchConfig) *Pipeline {
	return &Pipeline{
		index:      ix,
		client:     client,
		summarizer: NewSummarizer(client),
		maxListed:  cfg.MaxListed,
		maxResults: cfg.MaxResults,
		logger:     logging.Named("search"),
	}
}

// Search resolves query. User-input problems (blank query, empty index)
// come back as ErrEmptyQuery / ErrNoFiles; service problems never surface,
// they degrade to local ranking. Zero matches in both paths is a valid
// empty response, not an error.
func (p *Pipeline) Search(ctx context.Context, query string) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, ErrEmptyQuery
	}

	files := p.index.Scan()
	if len(files) == 0 {
		return Response{}, ErrNoFiles
	}

	items := p.candidates(files)

	results, ok := p.aiSearch(ctx, query, items)
	if ok {
		return Response{Results: results, Mode: ModeAI}, nil
	}
	return Response{Results: p.localSearch(ctx, query, items), Mode: ModeLocal}, nil
}

// candidates merges files and folders into the capped numbered pool.
func (p *Pipeline) candidates(files []index.FileEntry) []listItem {
	items := make([]listItem, 0, len(files))
	for _, f := range files {
		items = append(items, listItem{name: f.Name, file: f})
	}
	for _, d := range p.index.ScanFolders() {
		items = append(items, listItem{name: d.Name, folder: true, dir: d})
	}
	if len(items) > p.maxListed {
		items = items[:p.maxListed]
	}
	return items
}

// aiSearch asks the model for a shortlist of item indices. The second
// return value is false whenever execution should cascade to local ranking:
// service error, no parseable array, or an empty shortlist. An explicit
// empty shortlist deliberately cascades rather than short-circuiting; see
// DESIGN.md.
func (p *Pipeline) aiSearch(ctx context.Context, query string, items []listItem) ([]Result, bool) {
	var sb strings.Builder
	for i, item := range items {
		label := item.file.Extension
		if item.folder {
			label = "folder"
		}
		fmt.Fprintf(&sb, "%d: %s [%s]\n", i, item.name, label)
	}

	prompt := fmt.Sprintf(`File search. Pick the entries relevant to the query.

Query: "%s"

Entries:
%s
Return the numbers of at most %d relevant entries as a JSON array, most
relevant first. Example: [0, 3, 12]
Return [] if nothing is relevant.
Return only the array.`, query, sb.String(), p.maxResults)

	text, err := p.client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: searchTemperature,
	})
	if err != nil {
		p.logger.Warn("AI search failed, falling back to local", zap.Error(err))
		return nil, false
	}

	var indices []int
	if err := jsonx.FirstArray(text, &indices); err != nil {
		p.logger.Warn("AI search response had no index array", zap.String("response", snippet(text)))
		return nil, false
	}
	if len(indices) == 0 {
		return nil, false
	}

	var picked []listItem
	for _, i := range indices {
		if i >= 0 && i < len(items) {
			picked = append(picked, items[i])
		}
		if len(picked) == p.maxResults {
			break
		}
	}
	if len(picked) == 0 {
		return nil, false
	}
	return p.summarizeAll(ctx, query, picked), true
}

// localSearch is the deterministic fallback ranking.
func (p *Pipeline) localSearch(ctx context.Context, query string, items []listItem) []Result {
	matched := rankLocal(query, items, p.maxResults)
	picked := make([]listItem, len(matched))
	for i, m := range matched {
		picked[i] = m.item
	}
	return p.summarizeAll(ctx, query, picked)
}

// summarizeAll enriches every picked item, strictly sequentially: one
// in-flight language-service call at a time, and output order matching the
// ranking.
func (p *Pipeline) summarizeAll(ctx context.Context, query string, picked []listItem) []Result {
	results := make([]Result, 0, len(picked))
	for _, item := range picked {
		if item.folder {
			results = append(results, Result{
				Name:     item.dir.Name,
				Path:     item.dir.Path,
				IsFolder: true,
				ModTime:  item.dir.ModTime,
				Summary:  folderSummary,
			})
			continue
		}
		summary, used := p.summarizer.Summarize(ctx, item.file, query)
		results = append(results, Result{
			Name:      item.file.Name,
			Path:      item.file.Path,
			Extension: item.file.Extension,
			Size:      item.file.Size,
			ModTime:   item.file.ModTime,
			Summary:   summary,
			TextChars: used,
		})
	}
	return results
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
