// Package conversation implements the turn-taking state machine that sits
// between the user and the assistant engine.
//
// A Manager takes one utterance at a time through interpretation, then
// either asks a clarifying question, collects missing parameters over
// several turns, or hands the intent to the engine for execution. While an
// intent executes the Manager is also the engine's dialog, so confirmation
// prompts go through the same transcript and state machine.
package conversation

// State is the dialogue state of a Manager.
type State string

const (
	StateIdle                State = "idle"
	StateListening           State = "listening"
	StateProcessing          State = "processing"
	StateClarifying          State = "clarifying"
	StateExecuting           State = "executing"
	StateWaitingConfirmation State = "waiting_confirmation"
	StateMultiTurn           State = "multi_turn"
)

func (s State) String() string {
	return string(s)
}

// subDialogue reports whether s is awaiting a reply that Abandon may drop.
func (s State) subDialogue() bool {
	switch s {
	case StateClarifying, StateWaitingConfirmation, StateMultiTurn:
		return true
	}
	return false
}
