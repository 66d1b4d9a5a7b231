// Package voice defines the speech capability the assistant talks through
// and a line-oriented console stand-in for it.
package voice

import (
	"context"
	"errors"
)

var (
	// ErrNoInput is returned by ListenOnce when nothing was heard before
	// the listen timeout.
	ErrNoInput = errors.New("no input heard")

	// ErrInputClosed is returned once the input source is exhausted.
	ErrInputClosed = errors.New("input closed")
)

// IO is the voice transport: synthesis on one side, recognition on the other.
type IO interface {
	// Speak says text aloud.
	Speak(ctx context.Context, text string) error

	// ListenOnce blocks until one utterance is recognized, the provider
	// timeout elapses (ErrNoInput) or ctx is done.
	ListenOnce(ctx context.Context) (string, error)

	// ListenContinuous invokes fn for every recognized utterance until ctx
	// is done or the input is closed.
	ListenContinuous(ctx context.Context, fn func(text string)) error
}
