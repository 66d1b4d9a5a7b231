package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/daypart"
	"github.com/methmouth/Robot/pkg/dialog"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/voice"
)

// Routing thresholds.
const (
	// ClarifyBelow is the confidence under which an intent is clarified.
	ClarifyBelow = 0.6

	// MaxClarifications bounds the clarifying questions per utterance.
	MaxClarifications = 2
)

// Lines spoken by the Manager.
const (
	GreetingWithRoutines = "%s. I'm %s. How can I help today?"
	GreetingFirstTime    = "%s. I'm %s, your personal assistant. What do you need?"
	MeaningsQuestion     = "I'm not sure if you want to %s. Which one?"
	RepromptQuestion     = "I didn't quite get that. Could you say it another way?"
	UnresolvedLine       = "Sorry, I still don't understand. Let's try again later."
	SlotsCompleteLine    = "Perfect, I have everything I need."
	AbandonLine          = "Okay, never mind."
	DoneLine             = "Done."
)

// IntentEngine is what the Manager needs from the assistant engine.
type IntentEngine interface {
	// Interpret turns an utterance into an intent. It never fails; an
	// unusable interpretation comes back as a low-confidence fallback.
	Interpret(ctx context.Context, utterance string, snapshot *intent.Snapshot) *intent.Intent

	// Execute runs in, asking dlg for confirmation when required.
	Execute(ctx context.Context, in *intent.Intent, dlg dialog.Dialog) *intent.Result

	// AssistantName is the name used in greetings.
	AssistantName() string

	// HasRoutines reports whether any routine has been learned.
	HasRoutines() bool
}

// Manager runs the conversation state machine for one user session.
//
// Example usage:
//
//	m := conversation.NewManager(coord, console, conversation.WithLogger(logger))
//	m.StartConversation(ctx)
//	outcome := m.ProcessUtterance(ctx, "remind me to call mom", nil)
type Manager struct {
	engine IntentEngine
	io     voice.IO
	logger *zap.Logger
	now    func() time.Time

	sessionID     string
	onStateChange func(old, new State)
	replyTimeout  time.Duration
	frames        func(ctx context.Context) *intent.Snapshot

	// procMu serializes ProcessUtterance.
	procMu sync.Mutex

	mu         sync.Mutex // guards everything below
	state      State
	transcript *transcript
	executing  bool
	abandoned  bool
	cancelSub  context.CancelFunc
	listening  bool
	awaiting   bool
	replies    chan string

	queue queue
}

// NewManager creates a Manager in StateIdle that talks through io.
func NewManager(engine IntentEngine, io voice.IO, opts ...Option) *Manager {
	m := &Manager{
		engine:       engine,
		io:           io,
		logger:       zap.NewNop(),
		now:          time.Now,
		sessionID:    uuid.NewString(),
		replyTimeout: voice.DefaultListenTimeout,
		state:        StateIdle,
		transcript:   newTranscript(TranscriptCapacity),
		replies:      make(chan string, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("session", m.sessionID))
	m.queue.init()
	return m
}

// SessionID returns the id of this conversation.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transcript returns a copy of the retained turns, oldest first.
func (m *Manager) Transcript() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript.snapshot()
}

// StartConversation moves to StateListening and greets the user.
func (m *Manager) StartConversation(ctx context.Context) {
	m.setState(StateListening)
	m.Say(ctx, m.greeting())
}

func (m *Manager) greeting() string {
	salutation := daypart.Salutation(m.now())
	name := m.engine.AssistantName()
	if m.engine.HasRoutines() {
		return fmt.Sprintf(GreetingWithRoutines, salutation, name)
	}
	return fmt.Sprintf(GreetingFirstTime, salutation, name)
}

// ProcessUtterance takes one utterance through interpretation,
// clarification, slot filling and execution. Calls are serialized; the
// Manager is back in StateIdle when it returns.
func (m *Manager) ProcessUtterance(ctx context.Context, utterance string, snapshot *intent.Snapshot) *Outcome {
	m.procMu.Lock()
	defer m.procMu.Unlock()

	m.mu.Lock()
	m.abandoned = false
	m.mu.Unlock()

	seq := m.record(SpeakerUser, utterance, nil)
	m.setState(StateProcessing)

	out := &Outcome{Utterance: utterance}
	in := m.interpret(ctx, seq, utterance, snapshot)

	for needsClarification(in) {
		if out.Clarifications == MaxClarifications {
			m.logger.Info("clarification gave up", zap.String("utterance", out.Utterance))
			m.Say(ctx, UnresolvedLine)
			return m.finish(out, OutcomeUnresolved, in)
		}
		out.Clarifications++

		reply, kind, ok := m.ask(ctx, StateClarifying, clarificationQuestion(in),
			map[string]any{"clarification": out.Clarifications})
		if !ok {
			return m.finish(out, kind, in)
		}

		m.setState(StateProcessing)
		out.Utterance = fmt.Sprintf("%s. Specifically: %s", out.Utterance, reply)
		in = m.interpret(ctx, 0, out.Utterance, snapshot)
	}

	if missing := MissingSlots(in); len(missing) > 0 {
		answers := make(map[string]any, len(missing))
		for _, slot := range missing {
			reply, kind, ok := m.ask(ctx, StateMultiTurn, slot.Prompt, map[string]any{"slot": slot.Key})
			if !ok {
				return m.finish(out, kind, in)
			}
			answers[slot.Key] = reply
		}
		in = in.WithParameters(answers)
		m.Say(ctx, SlotsCompleteLine)
	}

	return m.execute(ctx, out, in)
}

func (m *Manager) interpret(ctx context.Context, seq uint64, utterance string, snapshot *intent.Snapshot) *intent.Intent {
	in := m.engine.Interpret(ctx, utterance, snapshot)
	if in == nil {
		in = intent.Fallback(utterance)
	}
	if seq != 0 {
		m.mu.Lock()
		m.transcript.tag(seq, in.Action)
		m.mu.Unlock()
	}
	m.logger.Debug("utterance interpreted",
		zap.String("action", in.Action),
		zap.String("category", string(in.Category)),
		zap.Float64("confidence", in.Confidence),
		zap.Bool("fallback", in.Fallback))
	return in
}

func needsClarification(in *intent.Intent) bool {
	return in.Confidence < ClarifyBelow || in.Category == intent.CategoryAmbiguous
}

func clarificationQuestion(in *intent.Intent) string {
	var meanings []string
	for _, m := range in.PossibleMeanings {
		if m = strings.TrimSpace(m); m != "" {
			meanings = append(meanings, m)
		}
	}
	switch len(meanings) {
	case 0:
		return RepromptQuestion
	case 1:
		return fmt.Sprintf(MeaningsQuestion, meanings[0])
	default:
		return fmt.Sprintf(MeaningsQuestion,
			strings.Join(meanings[:len(meanings)-1], ", ")+" or "+meanings[len(meanings)-1])
	}
}

// ask poses question in state and waits for one reply. When no usable
// reply arrives it reports the outcome kind to settle with.
func (m *Manager) ask(ctx context.Context, state State, question string, metadata map[string]any) (string, OutcomeKind, bool) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.cancelSub = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.cancelSub = nil
		m.mu.Unlock()
	}()

	m.setState(state)
	m.expectReply()
	m.Say(subCtx, question)
	reply, ok := m.hear(subCtx, metadata)

	switch {
	case m.wasAbandoned():
		m.Say(ctx, AbandonLine)
		return "", OutcomeAbandoned, false
	case !ok:
		m.logger.Info("question went unanswered", zap.String("state", string(state)))
		return "", OutcomeNoResponse, false
	case dialog.IsCancel(reply):
		m.abandon(true)
		m.Say(ctx, AbandonLine)
		return "", OutcomeAbandoned, false
	}
	return reply, "", true
}

func (m *Manager) execute(ctx context.Context, out *Outcome, in *intent.Intent) *Outcome {
	m.mu.Lock()
	m.executing = true
	m.mu.Unlock()
	m.setState(StateExecuting)

	result := m.engine.Execute(ctx, in, m)

	m.mu.Lock()
	m.executing = false
	m.mu.Unlock()

	out.Result = result
	kind := OutcomeFailed
	switch {
	case result == nil:
	case result.Success:
		kind = OutcomeExecuted
		m.Say(ctx, DoneLine)
	case result.Reason == intent.ReasonUserCancelled:
		kind = OutcomeDeclined
	}
	return m.finish(out, kind, in)
}

func (m *Manager) finish(out *Outcome, kind OutcomeKind, in *intent.Intent) *Outcome {
	out.Kind = kind
	out.Intent = in
	m.setState(StateIdle)
	m.logger.Info("utterance settled", zap.String("outcome", string(kind)), zap.String("action", in.Action))
	return out
}

// Abandon drops the sub-dialogue in progress, if any, and returns to
// StateIdle. Partially collected answers are discarded; steps that already
// ran are not undone. It reports whether anything was abandoned.
func (m *Manager) Abandon() bool {
	return m.abandon(false)
}

func (m *Manager) abandon(force bool) bool {
	m.mu.Lock()
	if !force && !m.state.subDialogue() {
		m.mu.Unlock()
		return false
	}
	m.abandoned = true
	if m.cancelSub != nil {
		m.cancelSub()
	}
	m.mu.Unlock()

	m.setState(StateIdle)
	m.logger.Info("sub-dialogue abandoned")
	return true
}

func (m *Manager) wasAbandoned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abandoned
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	old := m.state
	m.state = s
	m.mu.Unlock()

	if old == s {
		return
	}
	m.logger.Debug("state changed", zap.String("from", string(old)), zap.String("to", string(s)))
	if m.onStateChange != nil {
		m.onStateChange(old, s)
	}
}

func (m *Manager) record(speaker Speaker, message string, metadata map[string]any) uint64 {
	md := map[string]any{"session_id": m.sessionID}
	for k, v := range metadata {
		md[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcript.add(Turn{
		Speaker:   speaker,
		Message:   message,
		Timestamp: m.now(),
		Metadata:  md,
	})
}
