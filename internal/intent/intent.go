// Package intent turns raw chat messages into structured action decisions.
// Two classifiers share one pattern: a rule-described prompt whose response
// must contain one JSON object, with a deterministic keyword fallback when
// the language service is unavailable or unparsable. The fallback is a
// degraded substitute: it recognizes fixed keyword sets where the model
// recognizes intent.
package intent

// ChatAction is a top-level routing decision.
type ChatAction string

const (
	ActionSearch    ChatAction = "search"
	ActionListFiles ChatAction = "list_files"
	ActionOrganize  ChatAction = "organize"
	ActionCollect   ChatAction = "collect"
	ActionChat      ChatAction = "chat"
)

// ChatIntent is the structured form of one chat message.
type ChatIntent struct {
	Action     ChatAction `json:"action"`
	Query      string     `json:"query,omitempty"`
	FileType   string     `json:"file_type,omitempty"`
	FolderPath string     `json:"folder_path,omitempty"`
	Reply      string     `json:"reply,omitempty"`
}

// SessionAction is a decision inside an organize or collect flow.
type SessionAction string

const (
	SessionConfirm         SessionAction = "confirm"
	SessionChange          SessionAction = "change"
	SessionCancel          SessionAction = "cancel"
	SessionProvideName     SessionAction = "provide_name"
	SessionProvideLocation SessionAction = "provide_location"
	SessionChangeName      SessionAction = "change_name"
	SessionChangeLocation  SessionAction = "change_location"
	SessionOther           SessionAction = "other"
)

// SessionIntent is the structured form of one in-session message.
type SessionIntent struct {
	Action SessionAction `json:"action"`
	Value  string        `json:"value,omitempty"`

	// Location carries a place named alongside a provided folder name, so
	// "call it Receipts and put it in Downloads" settles both in one turn.
	Location string `json:"location,omitempty"`
}

// Context is what the chat classifier knows beyond the message itself.
type Context struct {
	ActiveFolder   string // folder currently open in the shell, if any
	HasLastResults bool   // whether a prior search result set exists
}
