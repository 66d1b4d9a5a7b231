package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/intent"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The session id is attached to every line.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for greetings and turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithOnStateChange registers fn to observe every state transition. fn
// runs synchronously on the transitioning goroutine and must not call
// back into the Manager.
func WithOnStateChange(fn func(old, new State)) Option {
	return func(m *Manager) {
		m.onStateChange = fn
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.sessionID = id
		}
	}
}

// WithReplyTimeout bounds how long a question waits for its answer while
// Listen owns the voice input. Default: voice.DefaultListenTimeout
func WithReplyTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.replyTimeout = d
	}
}

// WithFrameSource sets where Listen gets the screen frame sent along with
// each heard utterance.
func WithFrameSource(fn func(ctx context.Context) *intent.Snapshot) Option {
	return func(m *Manager) {
		m.frames = fn
	}
}
