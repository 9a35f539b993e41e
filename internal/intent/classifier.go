package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/addness-teambase/ai-file-search/internal/jsonx"
	"github.com/addness-teambase/ai-file-search/internal/llm"
	"github.com/addness-teambase/ai-file-search/internal/logging"
)

const classifyTemperature = 0.1

// Classifier maps free text to structured intents via the language service.
type Classifier struct {
	client llm.Client
	logger *zap.Logger
}

// NewClassifier returns a Classifier backed by client.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client, logger: logging.Named("intent")}
}

// ClassifyChat decides what a top-level chat message asks for. It never
// fails: a service error or a response without a JSON object degrades to
// the keyword fallback, whose catch-all is the conversational "chat" action.
func (c *Classifier) ClassifyChat(ctx context.Context, message string, cctx Context) ChatIntent {
	prompt := chatPrompt(message, cctx)
	text, err := c.client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: classifyTemperature,
	})
	if err != nil {
		c.logger.Warn("chat classification failed, using keyword fallback", zap.Error(err))
		return fallbackChat(message)
	}

	var out ChatIntent
	if err := jsonx.FirstObject(text, &out); err != nil || !validChatAction(out.Action) {
		c.logger.Warn("chat classification returned no usable JSON",
			zap.String("response", snippet(text)))
		return fallbackChat(message)
	}
	return out
}

// ClassifySession decides what an in-session message means at the given
// step. allowed lists the step's action vocabulary; the model is asked to
// favor recognizing affirmative or cancelling intent over exact wording.
func (c *Classifier) ClassifySession(ctx context.Context, message, step string, allowed []SessionAction) SessionIntent {
	prompt := sessionPrompt(message, step, allowed)
	text, err := c.client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: classifyTemperature,
	})
	if err != nil {
		c.logger.Warn("session classification failed, using keyword fallback", zap.Error(err))
		return fallbackSession(message, allowed)
	}

	var out SessionIntent
	if err := jsonx.FirstObject(text, &out); err != nil || !allowedAction(out.Action, allowed) {
		c.logger.Warn("session classification returned no usable JSON",
			zap.String("response", snippet(text)))
		return fallbackSession(message, allowed)
	}
	out.Value = strings.TrimSpace(out.Value)
	out.Location = strings.TrimSpace(out.Location)
	return out
}

func chatPrompt(message string, cctx Context) string {
	var sb strings.Builder
	sb.WriteString(`You route messages for a file assistant. Decide what the user wants.

Actions:
- "search": find files matching a query. Set "query" to the search terms and
  "file_type" to an extension filter if one is implied (e.g. "pdf").
- "list_files": show recently modified files.
- "organize": tidy up a folder. Set "folder_path" if the message names one.
- "collect": gather the previous search results into a new folder.
- "chat": anything else. Set "reply" to a short, helpful answer.

Rules:
- Requests to find, look for, or locate something are "search".
- Requests to tidy, clean up, sort, or reorganize are "organize".
- Requests to gather, consolidate, or move found files together are "collect".
- When unsure, prefer "chat".
`)
	if cctx.ActiveFolder != "" {
		fmt.Fprintf(&sb, "\nThe user currently has this folder open: %s\n", cctx.ActiveFolder)
	}
	if cctx.HasLastResults {
		sb.WriteString("\nA previous search result set exists, so \"collect\" is possible.\n")
	}
	fmt.Fprintf(&sb, `
Message: "%s"

Return ONLY a JSON object with keys: action, query, file_type, folder_path, reply.`, message)
	return sb.String()
}

func sessionPrompt(message, step string, allowed []SessionAction) string {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Sprintf(`You interpret a user's reply inside a multi-step file operation.

Current step: %s
Possible actions: %s

Rules:
- Favor the user's intent over exact wording: "sounds good", "go for it" and
  similar are "confirm"; "forget it", "never mind" and similar are "cancel".
- For provide_name / provide_location, set "value" to the name or location
  the user supplied, stripped of filler words.
- For provide_name, if the same reply also names a place for the folder
  (such as Desktop, Documents, Downloads, or "here"), set "location" to it.
- For change_name / change_location, set "value" to the replacement if one
  was given.
- If the reply fits none of the actions, use "other".

Reply: "%s"

Return ONLY a JSON object with keys: action, value, location.`, step, strings.Join(names, ", "), message)
}

// fallbackChat is the deterministic keyword substitute for chat routing.
// Conservative: anything unrecognized is a plain chat message.
func fallbackChat(message string) ChatIntent {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "organize", "tidy", "clean up", "reorganize", "sort out"):
		return ChatIntent{Action: ActionOrganize}
	case containsAny(lower, "collect", "gather", "consolidate", "put them", "move them"):
		return ChatIntent{Action: ActionCollect}
	case containsAny(lower, "recent files", "latest files", "list files", "show files"):
		return ChatIntent{Action: ActionListFiles}
	case containsAny(lower, "find", "search", "look for", "locate", "where is"):
		return ChatIntent{Action: ActionSearch, Query: stripSearchWords(message)}
	default:
		return ChatIntent{Action: ActionChat}
	}
}

var sessionKeywords = map[SessionAction][]string{
	SessionConfirm:        {"yes", "ok", "okay", "sure", "confirm", "go ahead", "do it", "yep", "sounds good", "please do"},
	SessionCancel:         {"cancel", "stop", "quit", "abort", "never mind", "forget it", "no thanks"},
	SessionChange:         {"change", "different", "instead", "redo", "not that", "something else"},
	SessionChangeName:     {"rename", "different name", "another name", "change the name"},
	SessionChangeLocation: {"different place", "different location", "somewhere else", "change the location"},
}

// fallbackSession matches fixed keyword sets per action, in the order the
// step lists its vocabulary, so more specific actions can shadow generic
// ones. If nothing matches and the step accepts a provided value, the whole
// message is the value.
func fallbackSession(message string, allowed []SessionAction) SessionIntent {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, action := range allowed {
		for _, kw := range sessionKeywords[action] {
			if strings.Contains(lower, kw) {
				return SessionIntent{Action: action}
			}
		}
	}
	for _, action := range allowed {
		if action == SessionProvideName || action == SessionProvideLocation {
			return SessionIntent{Action: action, Value: strings.TrimSpace(message)}
		}
	}
	return SessionIntent{Action: SessionOther}
}

func stripSearchWords(message string) string {
	query := strings.TrimSpace(message)
	for _, prefix := range []string{"find", "search for", "search", "look for", "locate", "where is"} {
		if len(query) > len(prefix) && strings.EqualFold(query[:len(prefix)], prefix) {
			query = strings.TrimSpace(query[len(prefix):])
			break
		}
	}
	return query
}

func validChatAction(a ChatAction) bool {
	switch a {
	case ActionSearch, ActionListFiles, ActionOrganize, ActionCollect, ActionChat:
		return true
	}
	return false
}

func allowedAction(a SessionAction, allowed []SessionAction) bool {
	for _, candidate := range allowed {
		if a == candidate {
			return true
		}
	}
	return a == SessionOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
