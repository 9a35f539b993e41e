package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/executor"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/intent"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

// CollectStep is the collect flow's position.
type CollectStep string

const (
	CollectNaming         CollectStep = "naming"
	CollectExistingFolder CollectStep = "existing_folder"
	CollectLocation       CollectStep = "location"
	CollectConfirm        CollectStep = "confirm"
)

// Collect consolidates a snapshot of search-result files into one folder.
// It gathers a folder name, detects clashes with folders that already
// exist under the watched roots, resolves a location, and only mutates the
// disk after an explicit confirmation. The classifier merely proposes
// names and locations; the session re-validates every value itself.
type Collect struct {
	ID                 uuid.UUID
	step               CollectStep
	files              []string
	currentFolder      string
	folderName         string
	targetPath         string
	existingFolderPath string

	index      *index.Index
	exec       *executor.Executor
	classifier *intent.Classifier
	logger     *zap.Logger
}

// NewCollect opens a collect session over a snapshot of file paths.
// currentFolder, when non-empty, is offered as the "here" location.
func NewCollect(ix *index.Index, exec *executor.Executor, classifier *intent.Classifier, files []string, currentFolder string) *Collect {
	snapshot := make([]string, len(files))
	copy(snapshot, files)
	id := uuid.New()
	return &Collect{
		ID:            id,
		step:          CollectNaming,
		files:         snapshot,
		currentFolder: currentFolder,
		index:         ix,
		exec:          exec,
		classifier:    classifier,
		logger: logging.Named("session.collect").With(
			zap.String("session", id.String()),
			zap.Int("files", len(snapshot))),
	}
}

// Step exposes the current position for the router and tests.
func (c *Collect) Step() CollectStep { return c.step }

// FolderName is the name settled so far, if any.
func (c *Collect) FolderName() string { return c.folderName }

// TargetPath is the location settled so far, if any.
func (c *Collect) TargetPath() string { return c.targetPath }

// Prompt is the opening question for the session's first turn.
func (c *Collect) Prompt() string {
	return fmt.Sprintf("I'll gather those %d file(s) into one folder. What should it be called?", len(c.files))
}

// Handle advances the session by one message.
func (c *Collect) Handle(ctx context.Context, message string) Reply {
	switch c.step {
	case CollectNaming:
		return c.handleNaming(ctx, message)
	case CollectExistingFolder:
		return c.handleExistingFolder(ctx, message)
	case CollectLocation:
		return c.handleLocation(ctx, message)
	case CollectConfirm:
		return c.handleConfirm(ctx, message)
	default:
		return Reply{Text: c.Prompt()}
	}
}

func (c *Collect) handleNaming(ctx context.Context, message string) Reply {
	in := c.classifier.ClassifySession(ctx, message, string(c.step),
		[]intent.SessionAction{intent.SessionCancel, intent.SessionProvideName})
	switch in.Action {
	case intent.SessionCancel:
		return c.cancel()
	case intent.SessionProvideName:
	default:
		return Reply{Text: "What should the folder be called?"}
	}

	name := strings.TrimSpace(in.Value)
	if name == "" {
		return Reply{Text: "What should the folder be called?"}
	}
	c.folderName = name

	// A place named in the same breath settles the location up front, so a
	// clash-free name goes straight to confirmation.
	if in.Location != "" {
		if loc := c.resolveLocation(in.Location); loc != "" {
			c.targetPath = loc
		}
	}

	if match := c.findExistingFolder(name); match != "" {
		c.existingFolderPath = match
		c.step = CollectExistingFolder
		return Reply{Text: fmt.Sprintf("A folder named %q already exists at %s. Should I put the files there?",
			filepath.Base(match), match)}
	}
	if c.targetPath != "" {
		c.step = CollectConfirm
		return Reply{Text: c.confirmPrompt()}
	}
	c.step = CollectLocation
	return c.locationPrompt()
}

func (c *Collect) handleExistingFolder(ctx context.Context, message string) Reply {
	in := c.classifier.ClassifySession(ctx, message, string(c.step),
		[]intent.SessionAction{intent.SessionConfirm, intent.SessionChange, intent.SessionCancel})
	switch in.Action {
	case intent.SessionConfirm:
		// Adopt the folder as found on disk, including its casing.
		c.folderName = filepath.Base(c.existingFolderPath)
		c.targetPath = filepath.Dir(c.existingFolderPath)
		c.existingFolderPath = ""
		c.step = CollectConfirm
		return Reply{Text: c.confirmPrompt()}
	case intent.SessionChange, intent.SessionCancel:
		// Declining the match keeps the chosen name and asks for a
		// location for a fresh folder.
		c.existingFolderPath = ""
		if c.targetPath != "" {
			c.step = CollectConfirm
			return Reply{Text: c.confirmPrompt()}
		}
		c.step = CollectLocation
		return c.locationPrompt()
	default:
		return Reply{Text: fmt.Sprintf("Should I use the existing folder at %s?", c.existingFolderPath)}
	}
}

func (c *Collect) handleLocation(ctx context.Context, message string) Reply {
	in := c.classifier.ClassifySession(ctx, message, string(c.step),
		[]intent.SessionAction{intent.SessionCancel, intent.SessionProvideLocation})
	switch in.Action {
	case intent.SessionCancel:
		return c.cancel()
	case intent.SessionProvideLocation:
	default:
		return c.locationPrompt()
	}

	loc := c.resolveLocation(in.Value)
	if loc == "" {
		return Reply{Text: fmt.Sprintf("I don't know that location. %s", c.locationChoices())}
	}
	c.targetPath = loc
	c.step = CollectConfirm
	return Reply{Text: c.confirmPrompt()}
}

func (c *Collect) handleConfirm(ctx context.Context, message string) Reply {
	in := c.classifier.ClassifySession(ctx, message, string(c.step),
		[]intent.SessionAction{intent.SessionConfirm, intent.SessionChangeName,
			intent.SessionChangeLocation, intent.SessionCancel})
	switch in.Action {
	case intent.SessionConfirm:
		out, err := c.exec.ExecuteCollect(c.targetPath, c.folderName, c.files)
		if err != nil {
			c.logger.Warn("collect batch failed", zap.Error(err))
			return Reply{Text: fmt.Sprintf("I couldn't create %s: %v.", filepath.Join(c.targetPath, c.folderName), err), Done: true}
		}
		text := fmt.Sprintf("Done. Moved %d file(s) into %s.", out.Moved, filepath.Join(c.targetPath, c.folderName))
		if out.Skipped > 0 {
			text += fmt.Sprintf(" Skipped %d duplicate(s).", out.Skipped)
		}
		return Reply{Text: text, Done: true, Outcome: &out}

	case intent.SessionChangeName:
		if v := strings.TrimSpace(in.Value); v != "" {
			c.folderName = v
			return Reply{Text: c.confirmPrompt()}
		}
		c.step = CollectNaming
		return Reply{Text: "What should the folder be called instead?"}

	case intent.SessionChangeLocation:
		if v := strings.TrimSpace(in.Value); v != "" {
			if loc := c.resolveLocation(v); loc != "" {
				c.targetPath = loc
				return Reply{Text: c.confirmPrompt()}
			}
		}
		c.step = CollectLocation
		return c.locationPrompt()

	case intent.SessionCancel:
		return c.cancel()

	default:
		return Reply{Text: c.confirmPrompt()}
	}
}

// findExistingFolder scans the watched roots for a folder whose name
// overlaps the requested one, case-insensitive substring in either
// direction. Exact-name matches win over partial ones.
func (c *Collect) findExistingFolder(name string) string {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return ""
	}
	var exact, partial []string
	for _, folder := range c.index.ScanFolders() {
		have := strings.ToLower(folder.Name)
		switch {
		case have == want:
			exact = append(exact, folder.Path)
		case strings.Contains(have, want) || strings.Contains(want, have):
			partial = append(partial, folder.Path)
		}
	}
	sort.Strings(exact)
	sort.Strings(partial)
	if len(exact) > 0 {
		return exact[0]
	}
	if len(partial) > 0 {
		return partial[0]
	}
	return ""
}

// resolveLocation maps a proposed location to a watched root or the
// caller's current folder. Matching is case-insensitive substring in
// either direction on the root's base name.
func (c *Collect) resolveLocation(value string) string {
	want := strings.ToLower(strings.TrimSpace(value))
	if want == "" {
		return ""
	}
	if c.currentFolder != "" && (strings.Contains(want, "current") || strings.Contains(want, "here") ||
		strings.EqualFold(want, filepath.Base(c.currentFolder))) {
		return c.currentFolder
	}
	for _, root := range c.index.Roots() {
		have := strings.ToLower(filepath.Base(root))
		if have == want || strings.Contains(have, want) || strings.Contains(want, have) {
			return root
		}
	}
	return ""
}

func (c *Collect) confirmPrompt() string {
	return fmt.Sprintf("I'll move %d file(s) into %s. Go ahead?",
		len(c.files), filepath.Join(c.targetPath, c.folderName))
}

func (c *Collect) locationPrompt() Reply {
	return Reply{Text: fmt.Sprintf("Where should %q go? %s", c.folderName, c.locationChoices())}
}

func (c *Collect) locationChoices() string {
	var names []string
	for _, root := range c.index.Roots() {
		names = append(names, filepath.Base(root))
	}
	choices := strings.Join(names, ", ")
	if c.currentFolder != "" {
		choices += ", or here"
	}
	return "Options: " + choices + "."
}

func (c *Collect) cancel() Reply {
	return Reply{Text: "Okay, I've cancelled the collection. Your files are untouched.", Done: true}
}
