package conversation_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/conversation"
	"github.com/methmouth/Robot/pkg/core"
	"github.com/methmouth/Robot/pkg/dialog"
	"github.com/methmouth/Robot/pkg/executor"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/oracle"
	"github.com/methmouth/Robot/pkg/storage/file"
)

// capturingCoordinator records what reaches the real coordinator.
type capturingCoordinator struct {
	*core.Coordinator

	mu       sync.Mutex
	executed []*intent.Intent
}

func (c *capturingCoordinator) Execute(ctx context.Context, in *intent.Intent, dlg dialog.Dialog) *intent.Result {
	c.mu.Lock()
	c.executed = append(c.executed, in.Clone())
	c.mu.Unlock()
	return c.Coordinator.Execute(ctx, in, dlg)
}

func TestReminderThroughEngine(t *testing.T) {
	store, err := file.NewStore(&file.Config{Path: filepath.Join(t.TempDir(), "memory.json")})
	require.NoError(t, err)

	var requests []string
	orc := oracle.Func(func(_ context.Context, req *oracle.Request) (*intent.Intent, error) {
		requests = append(requests, req.Utterance)
		return &intent.Intent{
			Category:          intent.CategoryProductivity,
			Action:            "set_reminder",
			Confidence:        0.9,
			SuggestedResponse: "Sure.",
		}, nil
	})

	engine, err := core.NewEngine(nil, core.WithStore(store), core.WithOracle(orc), core.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { require.NoError(t, engine.Close()) }()

	coord := &capturingCoordinator{Coordinator: core.NewCoordinator(engine, executor.NewDryRun(zap.NewNop()),
		core.WithStepPacing(0),
		core.WithRoutinePacing(0),
		core.WithFollowUpDelay(0),
	)}
	v := &scriptedVoice{replies: []string{"call mom", "tomorrow at 6"}}
	m := conversation.NewManager(coord, v)

	out := m.ProcessUtterance(context.Background(), "remind me to call mom", nil)

	require.True(t, out.Success(), out.Kind)
	assert.Equal(t, []string{"remind me to call mom"}, requests)
	require.Len(t, coord.executed, 1)
	assert.Equal(t, "set_reminder", coord.executed[0].Action)
	assert.Equal(t, map[string]any{"task": "call mom", "when": "tomorrow at 6"}, coord.executed[0].Parameters)
	assert.Equal(t, []string{
		"What to remind you of?", "When?", conversation.SlotsCompleteLine, "Sure.", conversation.DoneLine,
	}, v.said())

	assert.Equal(t, []string{"set_reminder"}, engine.Context().RecentActions)
	memories := engine.ShortTermMemory()
	require.Len(t, memories, 1)
	assert.Equal(t, "remind me to call mom", memories[0].Content["input"])
	assert.Equal(t, conversation.StateIdle, m.State())
}
