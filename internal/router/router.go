// Package router is the top level of the chat loop. Each incoming message
// goes to the active session if one exists, otherwise through the intent
// classifier and out to the search pipeline, the index, a new session, or
// a plain conversational reply. The router owns all cross-turn mutable
// state: the session slots, the last search results, and the folder the
// shell currently has open.
package router

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/executor"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/intent"
	"github.com/addness-teambase/ai-file-search/internal/llm"
	"github.com/addness-teambase/ai-file-search/internal/logging"
	"github.com/addness-teambase/ai-file-search/internal/search"
	"github.com/addness-teambase/ai-file-search/internal/session"
)

const (
	chatTemperature = 0.4
	recentLimit     = 20
)

// Reply is one turn's answer.
type Reply struct {
	Text string
	// Results is set when the turn ran a search or listed files.
	Results []search.Result
	// Mode records which search path produced Results, when they came
	// from a search.
	Mode search.Mode
}

// Router dispatches chat messages. Safe for use from multiple goroutines,
// though turns are serialized: one message is processed to completion
// before the next begins.
type Router struct {
	index      *index.Index
	pipeline   *search.Pipeline
	classifier *intent.Classifier
	client     llm.Client
	exec       *executor.Executor
	logger     *zap.Logger

	mu           sync.Mutex
	organize     *session.Organize
	collect      *session.Collect
	lastResults  []search.Result
	activeFolder string
}

// New wires a Router over the shared components.
func New(ix *index.Index, pipeline *search.Pipeline, classifier *intent.Classifier, client llm.Client, exec *executor.Executor) *Router {
	return &Router{
		index:      ix,
		pipeline:   pipeline,
		classifier: classifier,
		client:     client,
		exec:       exec,
		logger:     logging.Named("router"),
	}
}

// SetActiveFolder records the folder the shell currently has open. It is
// offered to collect sessions as "here" and used when an organize request
// names no folder.
func (r *Router) SetActiveFolder(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeFolder = path
}

// LastResults returns the most recent search result set.
func (r *Router) LastResults() []search.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]search.Result, len(r.lastResults))
	copy(out, r.lastResults)
	return out
}

// Handle processes one chat message to completion.
func (r *Router) Handle(ctx context.Context, message string) Reply {
	r.mu.Lock()
	defer r.mu.Unlock()

	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{Text: "Say something like: find my tax documents."}
	}

	// An active session owns the chat input outright. At most one session
	// exists at a time.
	if r.organize != nil {
		return r.handleOrganizeTurn(ctx, message)
	}
	if r.collect != nil {
		reply := r.collect.Handle(ctx, message)
		if reply.Done {
			r.collect = nil
		}
		return Reply{Text: reply.Text}
	}

	in := r.classifier.ClassifyChat(ctx, message, intent.Context{
		ActiveFolder:   r.activeFolder,
		HasLastResults: len(r.lastResults) > 0,
	})
	r.logger.Debug("routed message", zap.String("action", string(in.Action)))

	switch in.Action {
	case intent.ActionSearch:
		return r.runSearch(ctx, in, message)
	case intent.ActionListFiles:
		return r.listRecent()
	case intent.ActionOrganize:
		return r.startOrganize(in)
	case intent.ActionCollect:
		return r.startCollect()
	default:
		return r.chat(ctx, in, message)
	}
}

func (r *Router) handleOrganizeTurn(ctx context.Context, message string) Reply {
	reply := r.organize.Handle(ctx, message)
	if reply.Done {
		r.organize = nil
	}
	if len(reply.Actions) == 0 {
		return Reply{Text: reply.Text}
	}

	results := r.exec.Execute(reply.Actions)
	applied, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		applied++
	}
	text := fmt.Sprintf("%s\nApplied %d change(s).", reply.Text, applied)
	if failed > 0 {
		text += fmt.Sprintf(" %d change(s) failed; see the log for details.", failed)
	}
	return Reply{Text: text}
}

func (r *Router) runSearch(ctx context.Context, in intent.ChatIntent, message string) Reply {
	query := in.Query
	if query == "" {
		query = message
	}
	resp, err := r.pipeline.Search(ctx, query)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return Reply{Text: "What should I search for?"}
	case errors.Is(err, search.ErrNoFiles):
		return Reply{Text: "I don't see any files under your watched folders yet."}
	case err != nil:
		r.logger.Warn("search failed", zap.Error(err))
		return Reply{Text: "The search didn't go through. Please try again."}
	}

	results := resp.Results
	if in.FileType != "" {
		results = filterByType(results, in.FileType)
	}
	r.lastResults = results

	if len(results) == 0 {
		return Reply{Text: fmt.Sprintf("No files matched %q.", query), Mode: resp.Mode}
	}
	return Reply{
		Text:    fmt.Sprintf("Found %d result(s) for %q.", len(results), query),
		Results: results,
		Mode:    resp.Mode,
	}
}

func (r *Router) listRecent() Reply {
	files := r.index.Recent(recentLimit)
	if len(files) == 0 {
		return Reply{Text: "I don't see any files under your watched folders yet."}
	}
	results := make([]search.Result, 0, len(files))
	for _, f := range files {
		results = append(results, search.Result{
			Name:      f.Name,
			Path:      f.Path,
			Extension: f.Extension,
			Size:      f.Size,
			ModTime:   f.ModTime,
			Summary:   fmt.Sprintf("Recently modified %s file.", strings.ToUpper(f.Extension)),
		})
	}
	r.lastResults = results
	return Reply{
		Text:    fmt.Sprintf("Here are your %d most recently modified files.", len(results)),
		Results: results,
	}
}

func (r *Router) startOrganize(in intent.ChatIntent) Reply {
	folder := r.resolveFolder(in.FolderPath)
	if folder == "" {
		return Reply{Text: "Which folder should I organize? Open it first or name one of your watched folders."}
	}
	r.organize = session.NewOrganize(r.index, r.client, r.classifier, folder)
	return Reply{Text: r.organize.Prompt()}
}

func (r *Router) startCollect() Reply {
	var files []string
	for _, res := range r.lastResults {
		if res.IsFolder {
			continue
		}
		files = append(files, res.Path)
	}
	if len(files) == 0 {
		return Reply{Text: "There is nothing to collect yet. Run a search first, then ask me to gather the results."}
	}
	r.collect = session.NewCollect(r.index, r.exec, r.classifier, files, r.activeFolder)
	return Reply{Text: r.collect.Prompt()}
}

func (r *Router) chat(ctx context.Context, in intent.ChatIntent, message string) Reply {
	if in.Reply != "" {
		return Reply{Text: in.Reply}
	}
	text, err := r.client.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf("You are a friendly file assistant. Reply briefly to: %s", message),
		Temperature: chatTemperature,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		return Reply{Text: "I can search your files, list recent ones, organize a folder, or collect search results into one place. What would you like?"}
	}
	return Reply{Text: strings.TrimSpace(text)}
}

// resolveFolder maps a proposed folder to something on disk: an exact
// path, a watched root, or a known subfolder by case-insensitive name.
// Falls back to the folder the shell has open.
func (r *Router) resolveFolder(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return r.activeFolder
	}
	if filepath.IsAbs(value) {
		for _, root := range r.index.Roots() {
			if value == root || strings.HasPrefix(value, root+string(filepath.Separator)) {
				return value
			}
		}
		return ""
	}
	want := strings.ToLower(value)
	for _, root := range r.index.Roots() {
		if strings.Contains(strings.ToLower(filepath.Base(root)), want) {
			return root
		}
	}
	for _, folder := range r.index.ScanFolders() {
		if strings.EqualFold(folder.Name, value) {
			return folder.Path
		}
	}
	return ""
}

func filterByType(results []search.Result, fileType string) []search.Result {
	want := strings.ToLower(strings.TrimPrefix(fileType, "."))
	var out []search.Result
	for _, res := range results {
		if !res.IsFolder && strings.ToLower(res.Extension) == want {
			out = append(out, res)
		}
	}
	return out
}
