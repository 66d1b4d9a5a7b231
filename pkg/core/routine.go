package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/intent"
)

// ShortcutWindow is the time window of user-defined shortcuts.
const ShortcutWindow = "anytime"

// AutomationSuggestion is spoken the first time a routine qualifies for
// automation.
const AutomationSuggestion = "I noticed you often do %s. Want me to automate it?"

// DetectRoutine feeds an observed action sequence to the routine detector.
//
// When the sequence reinforces a known routine in the same window, its name
// is returned with matched=true. Otherwise a long enough sequence is
// registered as a new routine and matched is false. Registry changes are
// persisted.
func (e *Engine) DetectRoutine(ctx context.Context, actions []string, timeWindow string) (string, bool) {
	e.mu.Lock()
	det := e.detector.Detect(e.routines, actions, timeWindow)
	switch {
	case det.Matched != nil:
		e.scheduleSaveLocked()
	case det.Created != nil:
		e.routines = append(e.routines, det.Created)
		e.scheduleSaveLocked()
	}
	e.mu.Unlock()

	if det.Created != nil {
		e.logger.Info("new routine registered",
			zap.String("routine", det.Created.Name),
			zap.String("window", timeWindow),
			zap.Strings("actions", det.Created.Actions))
		return "", false
	}
	if det.Matched == nil {
		return "", false
	}

	name := det.Matched.Name
	if det.SuggestAutomation {
		e.logger.Info("routine qualifies for automation",
			zap.String("routine", name), zap.Int("occurrences", det.Matched.Occurrences))
		e.speak(ctx, fmt.Sprintf(AutomationSuggestion, strings.ReplaceAll(name, "_", " ")))
	}
	return name, true
}

// Routines returns copies of the registered routines in registration order.
func (e *Engine) Routines() []Routine {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Routine, len(e.routines))
	for i, r := range e.routines {
		out[i] = *r.Clone()
	}
	return out
}

// HasRoutines reports whether any routine is registered.
func (e *Engine) HasRoutines() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.routines) > 0
}

// Routine returns a copy of the routine registered under name. Names are
// matched case-insensitively.
func (e *Engine) Routine(name string) (Routine, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r := e.findRoutineLocked(name); r != nil {
		return *r.Clone(), true
	}
	return Routine{}, false
}

func (e *Engine) findRoutineLocked(name string) *Routine {
	for _, r := range e.routines {
		if strings.EqualFold(r.Name, name) {
			return r
		}
	}
	return nil
}

// CreateShortcut registers a user-defined routine under the lower-cased
// name, replacing any routine of that name. The shortcut runs its steps
// when triggered by voice and is persisted.
func (e *Engine) CreateShortcut(name string, steps []intent.Step) (Routine, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || len(steps) == 0 {
		return Routine{}, NewEngineError("CreateShortcut", ErrInvalidInput)
	}
	actions := make([]string, len(steps))
	for i, s := range steps {
		if !s.Action.Valid() {
			return Routine{}, NewEngineError("CreateShortcut",
				fmt.Errorf("%w: step %d has unknown action %q", ErrInvalidInput, i, s.Action))
		}
		actions[i] = string(s.Action)
	}

	shortcut := &Routine{
		Name:         key,
		Actions:      actions,
		TimeWindow:   ShortcutWindow,
		Occurrences:  0,
		Confidence:   1.0,
		Automated:    true,
		VoiceTrigger: key,
		CreatedAt:    e.now(),
	}
	shortcut.Steps = (&Routine{Steps: steps}).Clone().Steps

	e.mu.Lock()
	replaced := false
	for i, r := range e.routines {
		if r.Name == key {
			e.routines[i] = shortcut
			replaced = true
			break
		}
	}
	if !replaced {
		e.routines = append(e.routines, shortcut)
	}
	e.scheduleSaveLocked()
	out := *shortcut.Clone()
	e.mu.Unlock()

	e.logger.Info("shortcut created", zap.String("shortcut", key), zap.Int("steps", len(steps)))
	return out, nil
}
