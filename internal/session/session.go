// Package session implements the two multi-turn flows: organize, which
// turns free-text preferences for a folder into a structured action plan,
// and collect, which gathers a name and location for consolidating a prior
// search result set. Both are explicit state machines; a message that fits
// no transition at the current step repeats the step's prompt rather than
// guessing. At most one session owns the chat input at a time, which the
// router enforces.
package session

import "github.com/addness-teambase/ai-file-search/internal/executor"

// Reply is what one session turn hands back to the router.
type Reply struct {
	// Text is shown to the user.
	Text string
	// Done reports that the session ended this turn (completed or
	// cancelled); the router must release the session slot.
	Done bool
	// Actions is the plan an organize session emits on confirmation. The
	// router runs it through the executor.
	Actions []executor.Action
	// Outcome is set when a collect session ran its batch this turn.
	Outcome *executor.CollectOutcome
}
