package conversation_test

import (
	"context"
	"sync"
	"time"

	"github.com/methmouth/Robot/pkg/dialog"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/voice"
)

// fakeEngine answers interpretations from a script and records executions.
type fakeEngine struct {
	mu         sync.Mutex
	name       string
	routines   bool
	script     []*intent.Intent
	fallback   *intent.Intent
	heard      []string
	executed   []*intent.Intent
	result     *intent.Result
	askConfirm bool
}

func (e *fakeEngine) Interpret(_ context.Context, utterance string, _ *intent.Snapshot) *intent.Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heard = append(e.heard, utterance)
	if len(e.script) > 0 {
		in := e.script[0]
		e.script = e.script[1:]
		return in.Clone()
	}
	if e.fallback != nil {
		return e.fallback.Clone()
	}
	return intent.Fallback(utterance)
}

func (e *fakeEngine) Execute(ctx context.Context, in *intent.Intent, dlg dialog.Dialog) *intent.Result {
	e.mu.Lock()
	e.executed = append(e.executed, in.Clone())
	ask := e.askConfirm || in.RequiresConfirmation
	result := e.result
	e.mu.Unlock()

	if ask && !dlg.Confirm(ctx, in.Action) {
		return intent.Cancelled()
	}
	if result != nil {
		return result
	}
	return &intent.Result{Success: true}
}

func (e *fakeEngine) AssistantName() string {
	if e.name == "" {
		return "Atlas"
	}
	return e.name
}

func (e *fakeEngine) HasRoutines() bool { return e.routines }

func (e *fakeEngine) interpretations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.heard...)
}

func (e *fakeEngine) executions() []*intent.Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*intent.Intent(nil), e.executed...)
}

// scriptedVoice replays replies to ListenOnce and records speech. Once the
// replies run out ListenOnce reports silence.
type scriptedVoice struct {
	mu      sync.Mutex
	replies []string
	spoken  []string
	block   bool
	lines   chan string
}

var _ voice.IO = (*scriptedVoice)(nil)

func (v *scriptedVoice) Speak(_ context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spoken = append(v.spoken, text)
	return nil
}

func (v *scriptedVoice) ListenOnce(ctx context.Context) (string, error) {
	v.mu.Lock()
	if len(v.replies) > 0 {
		r := v.replies[0]
		v.replies = v.replies[1:]
		v.mu.Unlock()
		return r, nil
	}
	block := v.block
	v.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "", voice.ErrNoInput
}

// ListenContinuous delivers every line sent on lines until it is closed.
func (v *scriptedVoice) ListenContinuous(ctx context.Context, fn func(string)) error {
	for {
		select {
		case line, ok := <-v.lines:
			if !ok {
				return nil
			}
			fn(line)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (v *scriptedVoice) said() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.spoken...)
}

func (v *scriptedVoice) lastSaid() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.spoken) == 0 {
		return ""
	}
	return v.spoken[len(v.spoken)-1]
}

func clockAt(hour int) func() time.Time {
	at := time.Date(2024, 6, 3, hour, 0, 0, 0, time.Local)
	return func() time.Time { return at }
}

func confident(action string, params map[string]any) *intent.Intent {
	return &intent.Intent{
		Category:   intent.CategoryAppControl,
		Action:     action,
		Confidence: 0.9,
		Parameters: params,
	}
}
