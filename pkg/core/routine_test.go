package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methmouth/Robot/pkg/core"
	"github.com/methmouth/Robot/pkg/intent"
)

func TestDetectRoutineLifecycle(t *testing.T) {
	v := &fakeVoice{}
	engine, store := newEngine(t, core.WithVoice(v))
	ctx := context.Background()
	actions := []string{"open_news", "open_mail", "open_calendar"}

	name, matched := engine.DetectRoutine(ctx, actions, "morning")
	assert.False(t, matched)
	assert.Empty(t, name)

	routines := engine.Routines()
	require.Len(t, routines, 1)
	assert.Equal(t, "routine_morning_0", routines[0].Name)
	assert.Equal(t, 1, routines[0].Occurrences)
	assert.InDelta(t, 0.3, routines[0].Confidence, 1e-9)

	name, matched = engine.DetectRoutine(ctx, []string{"open_calendar", "open_news", "open_mail"}, "morning")
	assert.True(t, matched)
	assert.Equal(t, "routine_morning_0", name)
	assert.Empty(t, v.lines())

	name, matched = engine.DetectRoutine(ctx, actions, "morning")
	assert.True(t, matched)
	r, _ := engine.Routine(name)
	assert.Equal(t, 3, r.Occurrences)
	assert.InDelta(t, 0.5, r.Confidence, 1e-9)
	assert.True(t, r.SuggestedAutomation)
	require.Len(t, v.lines(), 1)
	assert.Contains(t, v.lines()[0], "routine morning 0")

	engine.DetectRoutine(ctx, actions, "morning")
	assert.Len(t, v.lines(), 1, "suggestion is offered once")

	engine.Flush()
	assert.Equal(t, 4, store.saveCount())
}

func TestDetectRoutineIgnoresOtherWindowsAndShortSequences(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()
	actions := []string{"a", "b", "c"}

	engine.DetectRoutine(ctx, actions, "morning")
	_, matched := engine.DetectRoutine(ctx, actions, "evening")
	assert.False(t, matched)

	_, matched = engine.DetectRoutine(ctx, []string{"x", "y"}, "night")
	assert.False(t, matched)

	routines := engine.Routines()
	require.Len(t, routines, 2)
	assert.Equal(t, "routine_morning_0", routines[0].Name)
	assert.Equal(t, "routine_evening_1", routines[1].Name)
	assert.True(t, engine.HasRoutines())
}

func TestCreateShortcut(t *testing.T) {
	engine, store := newEngine(t)

	r, err := engine.CreateShortcut("  Work Mode ", []intent.Step{
		step(intent.ActionOpenApp, map[string]any{"package": "slack"}),
		step(intent.ActionWait, map[string]any{"seconds": 1}),
	})
	require.NoError(t, err)
	assert.Equal(t, "work mode", r.Name)
	assert.Equal(t, "work mode", r.VoiceTrigger)
	assert.Equal(t, core.ShortcutWindow, r.TimeWindow)
	assert.Zero(t, r.Occurrences)
	assert.Equal(t, 1.0, r.Confidence)
	assert.True(t, r.Automated)
	assert.Equal(t, []string{"open_app", "wait"}, r.Actions)

	_, err = engine.CreateShortcut("work mode", []intent.Step{step(intent.ActionScroll, nil)})
	require.NoError(t, err)
	require.Len(t, engine.Routines(), 1, "same name replaces")

	engine.Flush()
	require.NotNil(t, store.last())
	assert.Equal(t, "work mode", store.last().Routines[0].Name)
}

func TestCreateShortcutRejectsInvalidInput(t *testing.T) {
	engine, _ := newEngine(t)

	tests := []struct {
		name  string
		label string
		steps []intent.Step
	}{
		{"empty name", " ", []intent.Step{step(intent.ActionScroll, nil)}},
		{"no steps", "x", nil},
		{"unknown action", "x", []intent.Step{step("teleport", nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CreateShortcut(tt.label, tt.steps)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
	assert.False(t, engine.HasRoutines())
}
