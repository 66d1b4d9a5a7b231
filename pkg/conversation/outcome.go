package conversation

import (
	"errors"

	"github.com/methmouth/Robot/pkg/intent"
)

var (
	// ErrNotStarted is returned by Enqueue before Start.
	ErrNotStarted = errors.New("conversation: not started")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("conversation: closed")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("conversation: already started")

	// ErrNoVoice is returned by Listen on a Manager without voice.
	ErrNoVoice = errors.New("conversation: no voice")
)

// OutcomeKind says how an utterance was settled.
type OutcomeKind string

const (
	// OutcomeExecuted means the intent ran to completion.
	OutcomeExecuted OutcomeKind = "executed"

	// OutcomeFailed means execution stopped at a failing step.
	OutcomeFailed OutcomeKind = "failed"

	// OutcomeDeclined means the user did not confirm the intent.
	OutcomeDeclined OutcomeKind = "declined"

	// OutcomeAbandoned means a sub-dialogue was cancelled.
	OutcomeAbandoned OutcomeKind = "abandoned"

	// OutcomeNoResponse means a question went unanswered.
	OutcomeNoResponse OutcomeKind = "no_response"

	// OutcomeUnresolved means clarification gave up.
	OutcomeUnresolved OutcomeKind = "unresolved"

	// OutcomeDropped means the utterance was queued but never processed.
	OutcomeDropped OutcomeKind = "dropped"
)

// Outcome is the result of processing one utterance.
type Outcome struct {
	Kind OutcomeKind

	// Utterance is the text that was finally interpreted, including any
	// clarification.
	Utterance string

	// Intent is the last interpretation, with collected slots merged in.
	Intent *intent.Intent

	// Result is set when the intent reached execution.
	Result *intent.Result

	// Clarifications counts the clarifying questions asked.
	Clarifications int

	// Err is set for dropped utterances.
	Err error
}

// Success reports whether the intent was executed successfully.
func (o *Outcome) Success() bool {
	return o != nil && o.Kind == OutcomeExecuted
}
