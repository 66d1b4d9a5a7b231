package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/methmouth/Robot/pkg/core"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/storage"
	"github.com/methmouth/Robot/pkg/voice"
)

// memStore is an in-memory SnapshotStore that records every save.
type memStore struct {
	mu      sync.Mutex
	current *storage.Snapshot
	saves   []*storage.Snapshot
	loadErr error
	saveErr error
	closed  bool
}

func (s *memStore) Load(context.Context) (*storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.current == nil {
		return nil, storage.ErrSnapshotNotFound
	}
	return s.current, nil
}

func (s *memStore) Save(_ context.Context, snap *storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.current = snap
	s.saves = append(s.saves, snap)
	return nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *memStore) last() *storage.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// fixedClock returns a clock pinned to the given local hour and minute.
func fixedClock(hour, minute int) func() time.Time {
	at := time.Date(2024, 6, 3, hour, minute, 0, 0, time.Local)
	return func() time.Time { return at }
}

func newEngine(t *testing.T, opts ...core.Option) (*core.Engine, *memStore) {
	t.Helper()
	store := &memStore{}
	return newEngineWithStore(t, store, opts...), store
}

func newEngineWithStore(t *testing.T, store storage.SnapshotStore, opts ...core.Option) *core.Engine {
	t.Helper()
	base := []core.Option{core.WithStore(store), core.WithOracle(nil), core.WithClock(fixedClock(9, 0))}
	engine, err := core.NewEngine(nil, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// fakeVoice records everything spoken.
type fakeVoice struct {
	mu     sync.Mutex
	spoken []string
}

var _ voice.IO = (*fakeVoice)(nil)

func (v *fakeVoice) Speak(_ context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spoken = append(v.spoken, text)
	return nil
}

func (v *fakeVoice) ListenOnce(context.Context) (string, error) {
	return "", voice.ErrNoInput
}

func (v *fakeVoice) ListenContinuous(context.Context, func(string)) error {
	return nil
}

func (v *fakeVoice) lines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.spoken...)
}

// scriptedDialog answers confirmations with a fixed reply.
type scriptedDialog struct {
	mu      sync.Mutex
	confirm bool
	said    []string
	asked   []string
}

func (d *scriptedDialog) Say(_ context.Context, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.said = append(d.said, text)
}

func (d *scriptedDialog) Confirm(_ context.Context, action string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asked = append(d.asked, action)
	return d.confirm
}

// recordingExecutor logs primitive calls and can fail on demand.
type recordingExecutor struct {
	mu       sync.Mutex
	calls    []string
	failOn   string
	notFound bool
}

func (e *recordingExecutor) record(call string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if e.failOn != "" && call == e.failOn {
		return errors.New("device unavailable")
	}
	return nil
}

func (e *recordingExecutor) OpenApp(_ context.Context, app string) error {
	return e.record("open " + app)
}

func (e *recordingExecutor) Click(_ context.Context, x, y int) error {
	return e.record(fmt.Sprintf("click %d,%d", x, y))
}

func (e *recordingExecutor) FindElement(_ context.Context, description string) (int, int, bool, error) {
	if err := e.record("find " + description); err != nil {
		return 0, 0, false, err
	}
	if e.notFound {
		return 0, 0, false, nil
	}
	return 10, 20, true, nil
}

func (e *recordingExecutor) TypeText(_ context.Context, text string) error {
	return e.record("type " + text)
}

func (e *recordingExecutor) Scroll(_ context.Context, direction string) error {
	return e.record("scroll " + direction)
}

func (e *recordingExecutor) Search(_ context.Context, query string) error {
	return e.record("search " + query)
}

func (e *recordingExecutor) Navigate(_ context.Context, destination string) error {
	return e.record("navigate " + destination)
}

func (e *recordingExecutor) history() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func step(kind intent.ActionKind, params map[string]any) intent.Step {
	return intent.Step{Action: kind, Params: params}
}
