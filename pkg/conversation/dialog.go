package conversation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/dialog"
	"github.com/methmouth/Robot/pkg/voice"
)

var _ dialog.Dialog = (*Manager)(nil)

// Say speaks text and appends it to the transcript.
func (m *Manager) Say(ctx context.Context, text string) {
	m.record(SpeakerAssistant, text, nil)
	if m.io == nil {
		return
	}
	if err := m.io.Speak(ctx, text); err != nil {
		m.logger.Warn("speak failed", zap.String("text", text), zap.Error(err))
	}
}

// Confirm asks whether to go ahead with action. An unclear reply is
// re-asked once; silence, abandonment or a second unclear reply count as no.
//
// Inside an execution the Manager returns to StateExecuting afterwards,
// otherwise to StateIdle.
func (m *Manager) Confirm(ctx context.Context, action string) bool {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.cancelSub = cancel
	m.abandoned = false
	after := StateIdle
	if m.executing {
		after = StateExecuting
	}
	m.mu.Unlock()

	m.setState(StateWaitingConfirmation)
	ok := dialog.RunConfirmation(subCtx, confirmExchange{m}, action)

	m.mu.Lock()
	m.cancelSub = nil
	abandoned := m.abandoned
	m.mu.Unlock()

	if abandoned {
		return false
	}
	m.setState(after)
	m.logger.Info("confirmation settled", zap.String("action", action), zap.Bool("confirmed", ok))
	return ok
}

type confirmExchange struct{ m *Manager }

// Say implements dialog.Exchange. Every line of a confirmation is a question.
func (x confirmExchange) Say(ctx context.Context, text string) {
	x.m.expectReply()
	x.m.Say(ctx, text)
}

// Hear implements dialog.Exchange.
func (x confirmExchange) Hear(ctx context.Context) (string, bool) {
	return x.m.hear(ctx, map[string]any{"confirmation": true})
}

// expectReply marks that a reply is about to be awaited, so a line Listen
// hears from now on answers it. Call it before asking the question.
func (m *Manager) expectReply() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.listening {
		return
	}
	select {
	case <-m.replies:
	default:
	}
	m.awaiting = true
}

// hear waits for one reply and records it. While Listen owns the voice
// input the reply is taken from what Listen hears; otherwise the voice is
// asked directly.
func (m *Manager) hear(ctx context.Context, metadata map[string]any) (string, bool) {
	var (
		reply string
		err   error
	)

	m.mu.Lock()
	routed := m.listening
	m.mu.Unlock()

	switch {
	case routed:
		reply, err = m.awaitReply(ctx)
	case m.io != nil:
		reply, err = m.io.ListenOnce(ctx)
	default:
		err = voice.ErrNoInput
	}

	if err != nil {
		if !errors.Is(err, voice.ErrNoInput) && !errors.Is(err, context.Canceled) {
			m.logger.Debug("listen ended", zap.Error(err))
		}
		return "", false
	}
	m.record(SpeakerUser, reply, metadata)
	return reply, true
}

func (m *Manager) awaitReply(ctx context.Context) (string, error) {
	defer func() {
		m.mu.Lock()
		m.awaiting = false
		m.mu.Unlock()
	}()

	var timeout <-chan time.Time
	if m.replyTimeout > 0 {
		t := time.NewTimer(m.replyTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case reply := <-m.replies:
		return reply, nil
	case <-timeout:
		return "", voice.ErrNoInput
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// offerReply hands text to a pending question. It reports false when no
// question is waiting.
func (m *Manager) offerReply(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.awaiting {
		return false
	}
	select {
	case m.replies <- text:
		m.awaiting = false
		return true
	default:
		return false
	}
}
