package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/executor"
	"github.com/addness-teambase/ai-file-search/internal/index"
	"github.com/addness-teambase/ai-file-search/internal/intent"
	"github.com/addness-teambase/ai-file-search/internal/jsonx"
	"github.com/addness-teambase/ai-file-search/internal/llm"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

// OrganizeStep is the organize flow's position.
type OrganizeStep string

const (
	OrganizeHearing    OrganizeStep = "hearing"
	OrganizeSuggesting OrganizeStep = "suggesting"
	OrganizeConfirm    OrganizeStep = "confirm"
	OrganizeExecuting  OrganizeStep = "executing"
)

// Suggestion is one proposed change to the folder being organized.
type Suggestion struct {
	Action      string // move, rename, delete or create_folder
	Target      string // name or list index of the item acted on
	Destination string // folder name for move/create_folder, new name for rename
	Reason      string
}

const (
	maxSuggestions      = 10
	suggestTemperature  = 0.4
	planMaxOutputTokens = 1000
)

// Organize runs the reorganize conversation for one folder. The first
// message becomes the user's preferences and immediately produces a plan;
// the plan is only ever handed out after an explicit confirmation.
type Organize struct {
	ID          uuid.UUID
	step        OrganizeStep
	folderPath  string
	preferences string
	summary     string
	suggestions []Suggestion
	items       []snapshotItem

	index      *index.Index
	client     llm.Client
	classifier *intent.Classifier
	logger     *zap.Logger
}

// snapshotItem is one folder child captured at suggestion time. Plans act
// on these paths, never on a re-scanned live view.
type snapshotItem struct {
	name     string
	path     string
	isFolder bool
}

// NewOrganize opens an organize session over folderPath.
func NewOrganize(ix *index.Index, client llm.Client, classifier *intent.Classifier, folderPath string) *Organize {
	id := uuid.New()
	return &Organize{
		ID:         id,
		step:       OrganizeHearing,
		folderPath: folderPath,
		index:      ix,
		client:     client,
		classifier: classifier,
		logger: logging.Named("session.organize").With(
			zap.String("session", id.String()),
			zap.String("folder", folderPath)),
	}
}

// Step exposes the current position for the router and tests.
func (o *Organize) Step() OrganizeStep { return o.step }

// FolderPath is the folder this session reorganizes.
func (o *Organize) FolderPath() string { return o.folderPath }

// Prompt is the opening question for the session's first turn.
func (o *Organize) Prompt() string {
	return fmt.Sprintf("How would you like %s organized? For example: by file type, by project, or by date.", o.folderPath)
}

// Handle advances the session by one message.
func (o *Organize) Handle(ctx context.Context, message string) Reply {
	switch o.step {
	case OrganizeHearing:
		in := o.classifier.ClassifySession(ctx, message, string(o.step),
			[]intent.SessionAction{intent.SessionCancel})
		if in.Action == intent.SessionCancel {
			return o.cancel()
		}
		o.preferences = strings.TrimSpace(message)
		return o.suggest(ctx)

	case OrganizeConfirm:
		in := o.classifier.ClassifySession(ctx, message, string(o.step),
			[]intent.SessionAction{intent.SessionConfirm, intent.SessionChange, intent.SessionCancel})
		switch in.Action {
		case intent.SessionCancel:
			return o.cancel()
		case intent.SessionConfirm:
			o.step = OrganizeExecuting
			return Reply{
				Text:    fmt.Sprintf("On it. Applying %d change(s) to %s.", len(o.suggestions), o.folderPath),
				Actions: o.plan(),
			}
		case intent.SessionChange:
			o.step = OrganizeHearing
			o.preferences = ""
			o.suggestions = nil
			return Reply{Text: "Okay, scrapping that plan. How should the folder be organized instead?"}
		default:
			// Extra free text refines the preferences and regenerates.
			o.preferences = strings.TrimSpace(o.preferences + "\n" + message)
			return o.suggest(ctx)
		}

	case OrganizeExecuting:
		return Reply{Text: message, Done: true}

	default:
		return Reply{Text: o.Prompt()}
	}
}

// suggest snapshots the folder, asks the language service for a plan, and
// moves to the confirmation step. Any service or parse failure ends the
// session with an error message; there is no partial plan.
func (o *Organize) suggest(ctx context.Context) Reply {
	listing := o.index.ListAllChildren(o.folderPath)
	o.items = o.items[:0]
	for _, f := range listing.Folders {
		o.items = append(o.items, snapshotItem{name: f.Name, path: f.Path, isFolder: true})
	}
	for _, f := range listing.Files {
		o.items = append(o.items, snapshotItem{name: f.Name, path: f.Path})
	}
	if len(o.items) == 0 {
		return Reply{Text: fmt.Sprintf("%s is empty, there is nothing to organize.", o.folderPath), Done: true}
	}

	o.step = OrganizeSuggesting
	text, err := o.client.Generate(ctx, llm.Request{
		Prompt:          o.planPrompt(),
		Temperature:     suggestTemperature,
		MaxOutputTokens: planMaxOutputTokens,
	})
	if err != nil {
		o.logger.Warn("suggestion generation failed", zap.Error(err))
		return Reply{Text: "I couldn't put a plan together right now. Please try again in a moment.", Done: true}
	}

	var p wirePlan
	if err := jsonx.FirstObject(text, &p); err != nil {
		o.logger.Warn("suggestion response had no usable JSON")
		return Reply{Text: "I couldn't put a plan together right now. Please try again in a moment.", Done: true}
	}

	o.summary = strings.TrimSpace(p.Summary)
	o.suggestions = o.adoptSuggestions(p.Suggestions)
	if len(o.suggestions) == 0 {
		return Reply{Text: fmt.Sprintf("I looked at %s but have no changes to suggest for those preferences.", o.folderPath), Done: true}
	}

	o.step = OrganizeConfirm
	return Reply{Text: o.renderPlan()}
}

// adoptSuggestions keeps only suggestions whose action is known and whose
// target resolves inside the snapshot, capped at maxSuggestions.
func (o *Organize) adoptSuggestions(raw []wireSuggestion) []Suggestion {
	var kept []Suggestion
	for _, w := range raw {
		if len(kept) == maxSuggestions {
			break
		}
		s := Suggestion{
			Action:      strings.ToLower(strings.TrimSpace(w.Action)),
			Target:      targetString(w.Target),
			Destination: strings.TrimSpace(w.Destination),
			Reason:      strings.TrimSpace(w.Reason),
		}
		switch s.Action {
		case "create_folder":
			if s.Destination == "" {
				continue
			}
		case "move", "rename":
			if s.Destination == "" {
				continue
			}
			if _, ok := o.resolveTarget(s.Target); !ok {
				continue
			}
		case "delete":
			if _, ok := o.resolveTarget(s.Target); !ok {
				continue
			}
		default:
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// plan converts the confirmed suggestions into executor actions, in order.
func (o *Organize) plan() []executor.Action {
	var actions []executor.Action
	for _, s := range o.suggestions {
		switch s.Action {
		case "create_folder":
			actions = append(actions, executor.Action{
				Kind:        executor.KindCreateFolder,
				BasePath:    o.folderPath,
				Destination: s.Destination,
			})
			continue
		}
		path, ok := o.resolveTarget(s.Target)
		if !ok {
			continue
		}
		switch s.Action {
		case "move":
			actions = append(actions, executor.Action{
				Kind:        executor.KindMove,
				SourcePath:  path,
				BasePath:    o.folderPath,
				Destination: s.Destination,
			})
		case "rename":
			actions = append(actions, executor.Action{
				Kind:        executor.KindRename,
				SourcePath:  path,
				Destination: s.Destination,
			})
		case "delete":
			actions = append(actions, executor.Action{
				Kind:       executor.KindDelete,
				SourcePath: path,
			})
		}
	}
	return actions
}

// resolveTarget maps a suggestion target, either an item name or its
// number in the prompt listing, to a snapshot path.
func (o *Organize) resolveTarget(target string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}
	for _, item := range o.items {
		if strings.EqualFold(item.name, target) {
			return item.path, true
		}
	}
	if i, err := strconv.Atoi(target); err == nil && i >= 0 && i < len(o.items) {
		return o.items[i].path, true
	}
	return "", false
}

func (o *Organize) planPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You reorganize folders. The folder %s contains:\n", o.folderPath)
	for i, item := range o.items {
		label := "file"
		if item.isFolder {
			label = "folder"
		}
		fmt.Fprintf(&sb, "%d: %s [%s]\n", i, item.name, label)
	}
	fmt.Fprintf(&sb, `
The user wants: %s

Propose at most %d changes. Allowed actions:
- "move": move an item into a folder; "destination" is the folder name.
- "rename": rename an item; "destination" is the new name.
- "delete": remove an item. Suggest only for obvious clutter.
- "create_folder": create a folder; "destination" is its name.
"target" is the item's name or its number from the list above.

Return ONLY a JSON object:
{"summary": "<one sentence>", "suggestions": [{"action": "...", "target": "...", "destination": "...", "reason": "..."}]}`,
		o.preferences, maxSuggestions)
	return sb.String()
}

func (o *Organize) renderPlan() string {
	var sb strings.Builder
	if o.summary != "" {
		sb.WriteString(o.summary)
		sb.WriteString("\n\n")
	}
	for i, s := range o.suggestions {
		fmt.Fprintf(&sb, "%d. %s %s", i+1, s.Action, s.Target)
		if s.Destination != "" {
			fmt.Fprintf(&sb, " -> %s", s.Destination)
		}
		if s.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", s.Reason)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\nShall I go ahead?")
	return sb.String()
}

func (o *Organize) cancel() Reply {
	return Reply{Text: "Okay, I've cancelled the reorganization.", Done: true}
}

// wirePlan is the shape the language service is asked for. Targets arrive
// as either names or bare numbers depending on the model's mood.
type wirePlan struct {
	Summary     string           `json:"summary"`
	Suggestions []wireSuggestion `json:"suggestions"`
}

type wireSuggestion struct {
	Action      string          `json:"action"`
	Target      json.RawMessage `json:"target"`
	Destination string          `json:"destination"`
	Reason      string          `json:"reason"`
}

func targetString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
