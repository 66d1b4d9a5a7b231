package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/daypart"
	"github.com/methmouth/Robot/pkg/dialog"
	"github.com/methmouth/Robot/pkg/executor"
	"github.com/methmouth/Robot/pkg/intent"
)

// Lines spoken by the coordinator.
const (
	CancelledLine       = "Okay, cancelled."
	ProblemLine         = "There was a problem: %v"
	FollowUpLine        = "By the way, you could also %s."
	RoutineUnknownLine  = "I don't know the routine %s."
	RoutineStartLine    = "Running routine %s."
	RoutineStepLine     = "Error in step: %s."
	RoutineDoneLine     = "Routine complete."
	ShortcutCreatedLine = "Shortcut %q created."
)

// routineObservationWindow is how many recent actions are compared with
// the routine registry after each successful execution.
const routineObservationWindow = 5

// MaxWait caps a single wait step.
const MaxWait = 5 * time.Minute

// ErrElementNotFound is reported when a click target cannot be located.
var ErrElementNotFound = errors.New("element not found")

// Coordinator executes intents and routines against the device.
//
// Example usage:
//
//	coord := core.NewCoordinator(engine, executor.NewDryRun(logger))
//	in := coord.Interpret(ctx, "open maps", nil)
//	result := coord.ExecuteIntent(ctx, in, nil)
type Coordinator struct {
	engine *Engine
	exec   executor.Executor
	logger *zap.Logger

	stepPacing    time.Duration
	routinePacing time.Duration
	followUpDelay time.Duration
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithStepPacing sets the pause after each executed step.
func WithStepPacing(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.stepPacing = d
	}
}

// WithRoutinePacing sets the pause between routine actions.
func WithRoutinePacing(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.routinePacing = d
	}
}

// WithFollowUpDelay sets the pause before a follow-up suggestion.
func WithFollowUpDelay(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.followUpDelay = d
	}
}

// WithCoordinatorLogger sets the logger. It defaults to the engine's.
func WithCoordinatorLogger(l *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a coordinator. Pacing defaults come from the
// engine configuration.
func NewCoordinator(engine *Engine, exec executor.Executor, opts ...CoordinatorOption) *Coordinator {
	cfg := engine.cfg.Engine
	c := &Coordinator{
		engine:        engine,
		exec:          exec,
		logger:        engine.logger,
		stepPacing:    time.Duration(cfg.StepPacingMs) * time.Millisecond,
		routinePacing: time.Duration(cfg.RoutinePacingMs) * time.Millisecond,
		followUpDelay: time.Duration(cfg.FollowUpDelayMs) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Engine returns the engine the coordinator drives.
func (c *Coordinator) Engine() *Engine {
	return c.engine
}

// Interpret understands utterance. See Engine.UnderstandIntent.
func (c *Coordinator) Interpret(ctx context.Context, utterance string, snapshot *intent.Snapshot) *intent.Intent {
	return c.engine.UnderstandIntent(ctx, utterance, snapshot)
}

// Execute runs in. It is ExecuteIntent under the name the conversation
// manager expects.
func (c *Coordinator) Execute(ctx context.Context, in *intent.Intent, dlg dialog.Dialog) *intent.Result {
	return c.ExecuteIntent(ctx, in, dlg)
}

// AssistantName returns the persona name, for greetings.
func (c *Coordinator) AssistantName() string {
	return c.engine.Personality().Name
}

// HasRoutines reports whether the engine knows any routine.
func (c *Coordinator) HasRoutines() bool {
	return c.engine.HasRoutines()
}

// ExecuteIntent carries out in.
//
// The suggested response is spoken first. An intent requiring confirmation
// runs only after dlg confirms it. Steps run in order and the first failing
// step aborts the rest; the result then carries the steps attempted so far.
// After full success the context updates are applied and the first
// follow-up suggestion is offered.
//
// A nil dlg speaks through the engine voice, or denies every confirmation
// when there is none.
func (c *Coordinator) ExecuteIntent(ctx context.Context, in *intent.Intent, dlg dialog.Dialog) *intent.Result {
	if in == nil {
		return &intent.Result{Reason: ErrInvalidInput.Error()}
	}
	dlg = c.dialogOr(dlg)
	log := c.logger.With(zap.String("action", in.Action))

	if in.SuggestedResponse != "" {
		dlg.Say(ctx, in.SuggestedResponse)
	}

	if in.RequiresConfirmation && !dlg.Confirm(ctx, in.Action) {
		log.Info("execution cancelled by user")
		dlg.Say(ctx, CancelledLine)
		return intent.Cancelled()
	}

	result := &intent.Result{}
	for i, step := range in.ExecutionSteps {
		err := c.runStep(ctx, step)
		if err == nil && c.stepPacing > 0 {
			err = sleep(ctx, c.stepPacing)
		}
		if err != nil {
			log.Warn("step failed", zap.Int("step", i), zap.String("kind", string(step.Action)), zap.Error(err))
			result.Steps = append(result.Steps, intent.StepResult{Step: step, Error: err.Error()})
			result.Reason = err.Error()
			dlg.Say(ctx, fmt.Sprintf(ProblemLine, err))
			return result
		}
		result.Steps = append(result.Steps, intent.StepResult{Step: step, Success: true})
	}
	result.Success = true

	c.engine.mu.Lock()
	if len(in.ContextUpdates) > 0 {
		c.engine.updateContextLocked(ContextUpdateFromMap(in.ContextUpdates))
	}
	for _, token := range executedTokens(in) {
		c.engine.recordActionLocked(token)
	}
	recent := lastN(c.engine.context.RecentActions, routineObservationWindow)
	c.engine.mu.Unlock()

	if len(recent) == routineObservationWindow && replayable(recent) {
		c.engine.DetectRoutine(ctx, recent, string(daypart.Of(c.engine.now())))
	}

	log.Info("intent executed", zap.Int("steps", len(result.Steps)))

	if len(in.FollowUpSuggestions) > 0 && in.FollowUpSuggestions[0] != "" {
		if err := sleep(ctx, c.followUpDelay); err == nil {
			dlg.Say(ctx, fmt.Sprintf(FollowUpLine, in.FollowUpSuggestions[0]))
		}
	}
	return result
}

// ExecuteRoutine runs the routine registered under name.
//
// Shortcuts run their steps. Learned routines run their action tokens:
// open_<app>, scroll_<direction>, wait_<seconds>, search:<query>,
// navigate:<destination> and type:<text>. The first unsupported token or
// failing step stops the routine.
func (c *Coordinator) ExecuteRoutine(ctx context.Context, name string, dlg dialog.Dialog) *intent.Result {
	dlg = c.dialogOr(dlg)

	routine, ok := c.engine.Routine(name)
	if !ok {
		c.logger.Info("routine not found", zap.String("routine", name),
			zap.Error(NewEngineError("ExecuteRoutine", ErrRoutineNotFound)))
		dlg.Say(ctx, fmt.Sprintf(RoutineUnknownLine, name))
		return &intent.Result{Reason: intent.ReasonRoutineNotFound}
	}

	type task struct {
		label string
		step  intent.Step
		err   error
	}
	var tasks []task
	if len(routine.Steps) > 0 {
		for _, s := range routine.Steps {
			tasks = append(tasks, task{label: string(s.Action), step: s})
		}
	} else {
		for _, token := range routine.Actions {
			s, err := ParseRoutineToken(token)
			tasks = append(tasks, task{label: token, step: s, err: err})
		}
	}

	dlg.Say(ctx, fmt.Sprintf(RoutineStartLine, routine.Name))
	log := c.logger.With(zap.String("routine", routine.Name))

	result := &intent.Result{}
	for i, t := range tasks {
		err := t.err
		if err == nil {
			err = c.runStep(ctx, t.step)
		}
		if err != nil {
			log.Warn("routine step failed", zap.Int("step", i), zap.String("token", t.label), zap.Error(err))
			result.Steps = append(result.Steps, intent.StepResult{Step: t.step, Error: err.Error()})
			result.Reason = err.Error()
			dlg.Say(ctx, fmt.Sprintf(RoutineStepLine, t.label))
			return result
		}
		result.Steps = append(result.Steps, intent.StepResult{Step: t.step, Success: true})

		if i < len(tasks)-1 && c.routinePacing > 0 {
			if err := sleep(ctx, c.routinePacing); err != nil {
				result.Reason = err.Error()
				return result
			}
		}
	}

	result.Success = true
	log.Info("routine complete", zap.Int("steps", len(result.Steps)))
	dlg.Say(ctx, RoutineDoneLine)
	return result
}

// CreateShortcut registers a shortcut and announces it.
func (c *Coordinator) CreateShortcut(ctx context.Context, name string, steps []intent.Step, dlg dialog.Dialog) (Routine, error) {
	r, err := c.engine.CreateShortcut(name, steps)
	if err != nil {
		return Routine{}, err
	}
	c.dialogOr(dlg).Say(ctx, fmt.Sprintf(ShortcutCreatedLine, r.Name))
	return r, nil
}

func (c *Coordinator) dialogOr(dlg dialog.Dialog) dialog.Dialog {
	if dlg != nil {
		return dlg
	}
	if v := c.engine.Voice(); v != nil {
		return dialog.NewVoiceDialog(v, c.logger)
	}
	return dialog.Silent{}
}

// runStep performs one step on the executor.
func (c *Coordinator) runStep(ctx context.Context, step intent.Step) error {
	switch step.Action {
	case intent.ActionOpenApp:
		app, ok := step.Text("package")
		if !ok {
			app, ok = step.Text("app")
		}
		if !ok {
			return missingParam(step, "package")
		}
		return c.exec.OpenApp(ctx, app)

	case intent.ActionClick:
		x, xok := step.Int("x")
		y, yok := step.Int("y")
		if xok && yok {
			return c.exec.Click(ctx, x, y)
		}
		desc, ok := step.Text("description")
		if !ok {
			return missingParam(step, "description")
		}
		x, y, found, err := c.exec.FindElement(ctx, desc)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrElementNotFound, desc)
		}
		return c.exec.Click(ctx, x, y)

	case intent.ActionTypeText:
		text, ok := step.Text("text")
		if !ok {
			return missingParam(step, "text")
		}
		return c.exec.TypeText(ctx, text)

	case intent.ActionWait:
		seconds, ok := step.Float("seconds")
		if !ok {
			seconds = 1
		}
		if math.IsNaN(seconds) || seconds < 0 {
			return fmt.Errorf("wait: invalid duration %v", seconds)
		}
		return sleep(ctx, waitDuration(seconds))

	case intent.ActionScroll:
		return c.exec.Scroll(ctx, step.TextOr("direction", "down"))

	case intent.ActionSearch:
		query, ok := step.Text("query")
		if !ok {
			return missingParam(step, "query")
		}
		return c.exec.Search(ctx, query)

	case intent.ActionNavigate:
		dest, ok := step.Text("destination")
		if !ok {
			return missingParam(step, "destination")
		}
		return c.exec.Navigate(ctx, dest)

	default:
		return fmt.Errorf("unsupported step action %q", step.Action)
	}
}

// RoutineToken is the inverse of ParseRoutineToken: it names step as a
// recent action that a learned routine can replay.
func RoutineToken(step intent.Step) (string, bool) {
	switch step.Action {
	case intent.ActionOpenApp:
		app, ok := step.Text("package")
		if !ok {
			app, ok = step.Text("app")
		}
		return "open_" + app, ok
	case intent.ActionClick:
		x, xok := step.Int("x")
		y, yok := step.Int("y")
		if xok && yok {
			return fmt.Sprintf("tap_%d_%d", x, y), true
		}
		desc, ok := step.Text("description")
		return "click:" + desc, ok
	case intent.ActionTypeText:
		text, ok := step.Text("text")
		return "type:" + text, ok
	case intent.ActionWait:
		seconds, ok := step.Float("seconds")
		if !ok {
			seconds = 1
		}
		return "wait_" + strconv.FormatFloat(seconds, 'f', -1, 64), true
	case intent.ActionScroll:
		return "scroll_" + step.TextOr("direction", "down"), true
	case intent.ActionSearch:
		query, ok := step.Text("query")
		return "search:" + query, ok
	case intent.ActionNavigate:
		dest, ok := step.Text("destination")
		return "navigate:" + dest, ok
	}
	return "", false
}

// executedTokens lists what a successful run of in adds to the recent
// actions: one token per step, or the intent action when it has no steps.
func executedTokens(in *intent.Intent) []string {
	if len(in.ExecutionSteps) == 0 {
		return []string{in.Action}
	}
	tokens := make([]string, 0, len(in.ExecutionSteps))
	for _, step := range in.ExecutionSteps {
		if token, ok := RoutineToken(step); ok {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func replayable(tokens []string) bool {
	for _, token := range tokens {
		if _, err := ParseRoutineToken(token); err != nil {
			return false
		}
	}
	return true
}

// ParseRoutineToken turns a learned routine action into a step.
func ParseRoutineToken(token string) (intent.Step, error) {
	if head, arg, ok := strings.Cut(token, ":"); ok && arg != "" {
		switch head {
		case "search":
			return intent.Step{Action: intent.ActionSearch, Params: map[string]any{"query": arg}}, nil
		case "navigate":
			return intent.Step{Action: intent.ActionNavigate, Params: map[string]any{"destination": arg}}, nil
		case "type":
			return intent.Step{Action: intent.ActionTypeText, Params: map[string]any{"text": arg}}, nil
		case "click":
			return intent.Step{Action: intent.ActionClick, Params: map[string]any{"description": arg}}, nil
		}
	}

	if rest, ok := strings.CutPrefix(token, "tap_"); ok {
		xs, ys, _ := strings.Cut(rest, "_")
		x, xerr := strconv.Atoi(xs)
		y, yerr := strconv.Atoi(ys)
		if xerr == nil && yerr == nil {
			return intent.Step{Action: intent.ActionClick, Params: map[string]any{"x": x, "y": y}}, nil
		}
	}

	switch {
	case strings.HasPrefix(token, "open_") && len(token) > len("open_"):
		return intent.Step{Action: intent.ActionOpenApp, Params: map[string]any{"package": token[len("open_"):]}}, nil
	case strings.HasPrefix(token, "scroll_") && len(token) > len("scroll_"):
		return intent.Step{Action: intent.ActionScroll, Params: map[string]any{"direction": token[len("scroll_"):]}}, nil
	case strings.HasPrefix(token, "wait_"):
		seconds, err := strconv.ParseFloat(token[len("wait_"):], 64)
		if err == nil && seconds >= 0 {
			return intent.Step{Action: intent.ActionWait, Params: map[string]any{"seconds": seconds}}, nil
		}
	}
	return intent.Step{}, fmt.Errorf("unsupported routine action %q", token)
}

// waitDuration converts a non-negative number of seconds, capped at MaxWait.
func waitDuration(seconds float64) time.Duration {
	if seconds >= MaxWait.Seconds() {
		return MaxWait
	}
	return time.Duration(seconds * float64(time.Second))
}

func missingParam(step intent.Step, name string) error {
	return fmt.Errorf("%s: missing %s", step.Action, name)
}

func lastN(items []string, n int) []string {
	if len(items) < n {
		return nil
	}
	return append([]string(nil), items[len(items)-n:]...)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
