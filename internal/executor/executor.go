// Package executor applies file mutations decided by the organize and
// collect flows. Every mutation is checked against the disk immediately
// before it runs, failures are captured per action, and the index cache is
// invalidated exactly once per batch.
package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

// Kind identifies one mutation type.
type Kind string

const (
	KindMove         Kind = "move"
	KindRename       Kind = "rename"
	KindDelete       Kind = "delete"
	KindCreateFolder Kind = "create_folder"
)

// Action is one ordered mutation request.
type Action struct {
	Kind        Kind
	SourcePath  string // absolute path of the file acted on (move, rename, delete)
	Destination string // folder name for move/create_folder, new name for rename
	BasePath    string // folder the Destination is resolved under
}

// ActionResult records the outcome of one Action.
type ActionResult struct {
	Action Action
	Err    error
}

// CollectOutcome reports how a collect batch went.
type CollectOutcome struct {
	Moved   int
	Skipped int
}

// Executor runs action batches against the filesystem.
type Executor struct {
	index  *index.Index
	logger *zap.Logger
}

// New returns an Executor that invalidates ix after each batch.
func New(ix *index.Index) *Executor {
	return &Executor{index: ix, logger: logging.Named("executor")}
}

// Execute applies actions strictly in order. A failed action is recorded
// and the batch continues. The index cache is invalidated once at the end
// regardless of outcomes.
func (e *Executor) Execute(actions []Action) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, a := range actions {
		err := e.apply(a)
		if err != nil {
			e.logger.Warn("action failed",
				zap.String("kind", string(a.Kind)),
				zap.String("source", a.SourcePath),
				zap.Error(err))
		}
		results = append(results, ActionResult{Action: a, Err: err})
	}
	if e.index != nil {
		e.index.Invalidate()
	}
	return results
}

func (e *Executor) apply(a Action) error {
	switch a.Kind {
	case KindCreateFolder:
		if a.Destination == "" {
			return fmt.Errorf("create_folder: no destination name")
		}
		return os.MkdirAll(filepath.Join(a.BasePath, a.Destination), 0o755)

	case KindMove:
		if err := checkSource(a.SourcePath); err != nil {
			return err
		}
		dest := filepath.Join(a.BasePath, a.Destination)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("move: create destination: %w", err)
		}
		return os.Rename(a.SourcePath, filepath.Join(dest, filepath.Base(a.SourcePath)))

	case KindRename:
		if err := checkSource(a.SourcePath); err != nil {
			return err
		}
		if a.Destination == "" {
			return fmt.Errorf("rename: no new name")
		}
		return os.Rename(a.SourcePath, filepath.Join(filepath.Dir(a.SourcePath), a.Destination))

	case KindDelete:
		if err := checkSource(a.SourcePath); err != nil {
			return err
		}
		return os.Remove(a.SourcePath)

	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}

func checkSource(path string) error {
	if path == "" {
		return fmt.Errorf("no source path")
	}
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("source missing: %w", err)
	}
	return nil
}

// ExecuteCollect moves files into basePath/folderName, creating the folder
// if absent. A file whose name already exists there (case-insensitive) is
// skipped, never overwritten. Files that vanished from disk since the
// snapshot are ignored. Duplicate detection is by name only; two distinct
// files sharing a name count as the same file.
func (e *Executor) ExecuteCollect(basePath, folderName string, files []string) (CollectOutcome, error) {
	var out CollectOutcome
	dest := filepath.Join(basePath, folderName)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return out, fmt.Errorf("create collect folder: %w", err)
	}

	present := map[string]bool{}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return out, fmt.Errorf("read collect folder: %w", err)
	}
	for _, entry := range entries {
		present[strings.ToLower(entry.Name())] = true
	}

	for _, src := range files {
		if _, err := os.Lstat(src); err != nil {
			e.logger.Warn("collect source gone", zap.String("path", src))
			continue
		}
		name := filepath.Base(src)
		key := strings.ToLower(name)
		if present[key] {
			out.Skipped++
			continue
		}
		if err := os.Rename(src, filepath.Join(dest, name)); err != nil {
			e.logger.Warn("collect move failed", zap.String("path", src), zap.Error(err))
			out.Skipped++
			continue
		}
		present[key] = true
		out.Moved++
	}

	if e.index != nil {
		e.index.Invalidate()
	}
	return out, nil
}
