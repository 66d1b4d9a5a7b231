package conversation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methmouth/Robot/pkg/conversation"
	"github.com/methmouth/Robot/pkg/intent"
)

type transitions struct {
	mu  sync.Mutex
	log []string
}

func (tr *transitions) record(old, new conversation.State) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.log = append(tr.log, fmt.Sprintf("%s>%s", old, new))
}

func (tr *transitions) list() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.log...)
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		name     string
		hour     int
		routines bool
		want     string
	}{
		{"first morning", 8, false, "Good morning. I'm Atlas, your personal assistant. What do you need?"},
		{"afternoon with routines", 14, true, "Good afternoon. I'm Atlas. How can I help today?"},
		{"night", 23, true, "Good evening. I'm Atlas. How can I help today?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &scriptedVoice{}
			m := conversation.NewManager(&fakeEngine{routines: tt.routines}, v, conversation.WithClock(clockAt(tt.hour)))

			m.StartConversation(context.Background())
			assert.Equal(t, conversation.StateListening, m.State())
			assert.Equal(t, []string{tt.want}, v.said())
		})
	}
}

func TestProcessUtteranceExecutes(t *testing.T) {
	engine := &fakeEngine{script: []*intent.Intent{confident("open_app", map[string]any{"app": "maps"})}}
	v := &scriptedVoice{}
	tr := &transitions{}
	m := conversation.NewManager(engine, v, conversation.WithOnStateChange(tr.record))

	out := m.ProcessUtterance(context.Background(), "open maps", nil)

	assert.Equal(t, conversation.OutcomeExecuted, out.Kind)
	assert.True(t, out.Success())
	require.Len(t, engine.executions(), 1)
	assert.Equal(t, []string{conversation.DoneLine}, v.said())
	assert.Equal(t, conversation.StateIdle, m.State())
	assert.Equal(t, []string{"idle>processing", "processing>executing", "executing>idle"}, tr.list())

	turns := m.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, conversation.SpeakerUser, turns[0].Speaker)
	assert.Equal(t, "open_app", turns[0].Intent)
	assert.Equal(t, m.SessionID(), turns[0].Metadata["session_id"])
}

func TestProcessUtteranceReportsFailure(t *testing.T) {
	engine := &fakeEngine{
		script: []*intent.Intent{confident("open_app", nil)},
		result: &intent.Result{Reason: "device unavailable"},
	}
	v := &scriptedVoice{}
	m := conversation.NewManager(engine, v)

	out := m.ProcessUtterance(context.Background(), "open it", nil)
	assert.Equal(t, conversation.OutcomeFailed, out.Kind)
	assert.Equal(t, "device unavailable", out.Result.Reason)
	assert.NotContains(t, v.said(), conversation.DoneLine)
	assert.Equal(t, conversation.StateIdle, m.State())
}

func TestClarification(t *testing.T) {
	ambiguous := &intent.Intent{
		Category:         intent.CategoryAppControl,
		Action:           "open",
		Confidence:       0.4,
		PossibleMeanings: []string{"open mail", "open maps", "open music"},
	}
	engine := &fakeEngine{script: []*intent.Intent{ambiguous, confident("open_app", map[string]any{"app": "maps"})}}
	v := &scriptedVoice{replies: []string{"maps"}}
	tr := &transitions{}
	m := conversation.NewManager(engine, v, conversation.WithOnStateChange(tr.record))

	out := m.ProcessUtterance(context.Background(), "open the m app", nil)

	assert.Equal(t, conversation.OutcomeExecuted, out.Kind)
	assert.Equal(t, 1, out.Clarifications)
	assert.Equal(t, "open the m app. Specifically: maps", out.Utterance)
	assert.Equal(t, []string{"open the m app", "open the m app. Specifically: maps"}, engine.interpretations())
	assert.Equal(t, "I'm not sure if you want to open mail, open maps or open music. Which one?", v.said()[0])
	assert.Contains(t, tr.list(), "processing>clarifying")
	assert.Contains(t, tr.list(), "clarifying>processing")
}

func TestClarificationRoutes(t *testing.T) {
	tests := []struct {
		name     string
		replies  []string
		want     conversation.OutcomeKind
		lastLine string
		asked    int
	}{
		{"no reply", nil, conversation.OutcomeNoResponse, conversation.RepromptQuestion, 1},
		{"cancel phrase", []string{"never mind"}, conversation.OutcomeAbandoned, conversation.AbandonLine, 1},
		{"still unclear", []string{"the thing", "you know"}, conversation.OutcomeUnresolved, conversation.UnresolvedLine, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			v := &scriptedVoice{replies: tt.replies}
			m := conversation.NewManager(engine, v)

			out := m.ProcessUtterance(context.Background(), "do the thing", nil)

			assert.Equal(t, tt.want, out.Kind)
			assert.Equal(t, tt.asked, out.Clarifications)
			assert.Equal(t, tt.lastLine, v.lastSaid())
			assert.Empty(t, engine.executions())
			assert.Equal(t, conversation.StateIdle, m.State())
		})
	}
}

func TestLowConfidenceAlwaysClarifies(t *testing.T) {
	for _, category := range []intent.Category{intent.CategorySettings, intent.CategoryPersonal, intent.CategoryMeta} {
		engine := &fakeEngine{script: []*intent.Intent{{Category: category, Action: "x", Confidence: 0.4}}}
		tr := &transitions{}
		m := conversation.NewManager(engine, &scriptedVoice{}, conversation.WithOnStateChange(tr.record))

		m.ProcessUtterance(context.Background(), "hmm", nil)
		assert.Contains(t, tr.list(), "processing>clarifying", category)
	}
}

func TestMultiTurnSendMessage(t *testing.T) {
	engine := &fakeEngine{script: []*intent.Intent{{
		Category:   intent.CategoryCommunication,
		Action:     "send_message",
		Confidence: 0.85,
		Parameters: map[string]any{},
	}}}
	v := &scriptedVoice{replies: []string{"Ana", "I'm running late", "WhatsApp"}}
	tr := &transitions{}
	m := conversation.NewManager(engine, v, conversation.WithOnStateChange(tr.record))

	out := m.ProcessUtterance(context.Background(), "send a message", nil)

	require.Equal(t, conversation.OutcomeExecuted, out.Kind)
	assert.Equal(t, []string{"Who to?", "What message?", "Which channel?", conversation.SlotsCompleteLine, conversation.DoneLine}, v.said())
	require.Len(t, engine.executions(), 1)
	assert.Equal(t, map[string]any{"contact": "Ana", "message": "I'm running late", "app": "WhatsApp"},
		engine.executions()[0].Parameters)
	assert.Equal(t, []string{"idle>processing", "processing>multi_turn", "multi_turn>executing", "executing>idle"}, tr.list())
}

func TestMultiTurnReminder(t *testing.T) {
	engine := &fakeEngine{script: []*intent.Intent{{
		Category:   intent.CategoryProductivity,
		Action:     "set_reminder",
		Confidence: 0.8,
		Parameters: map[string]any{},
	}}}
	v := &scriptedVoice{replies: []string{"call mom", "tomorrow at 6"}}
	m := conversation.NewManager(engine, v)

	out := m.ProcessUtterance(context.Background(), "remind me to call mom", nil)

	require.True(t, out.Success())
	assert.Equal(t, []string{"What to remind you of?", "When?"}, v.said()[:2])
	assert.Equal(t, map[string]any{"task": "call mom", "when": "tomorrow at 6"}, engine.executions()[0].Parameters)

	turns := m.Transcript()
	assert.Equal(t, "task", turns[2].Metadata["slot"])
}

func TestMultiTurnAsksOnlyMissingSlots(t *testing.T) {
	engine := &fakeEngine{script: []*intent.Intent{{
		Category:   intent.CategoryProductivity,
		Action:     "create_event",
		Confidence: 0.9,
		Parameters: map[string]any{"title": "Dentist", "date": " "},
	}}}
	v := &scriptedVoice{replies: []string{"Friday", "10am"}}
	m := conversation.NewManager(engine, v)

	out := m.ProcessUtterance(context.Background(), "dentist appointment", nil)

	require.True(t, out.Success())
	assert.Equal(t, []string{"What day?", "What time?"}, v.said()[:2])
	assert.Equal(t, map[string]any{"title": "Dentist", "date": "Friday", "time": "10am"}, out.Intent.Parameters)
}

func TestMultiTurnRepliesMentioningCancelWords(t *testing.T) {
	engine := &fakeEngine{script: []*intent.Intent{{
		Category:   intent.CategoryCommunication,
		Action:     "send_message",
		Confidence: 0.9,
		Parameters: map[string]any{},
	}}}
	v := &scriptedVoice{replies: []string{"Alice", "please stop by the store on your way home", "whatsapp"}}
	m := conversation.NewManager(engine, v)

	out := m.ProcessUtterance(context.Background(), "text Alice", nil)

	require.Equal(t, conversation.OutcomeExecuted, out.Kind)
	require.Len(t, engine.executions(), 1)
	assert.Equal(t, "please stop by the store on your way home", engine.executions()[0].Parameters["message"])
	assert.NotContains(t, v.said(), conversation.AbandonLine)
}

func TestClarificationReplyMentioningCancelWord(t *testing.T) {
	ambiguous := &intent.Intent{Category: intent.CategoryAmbiguous, Action: "clarify", Confidence: 0.3}
	engine := &fakeEngine{script: []*intent.Intent{ambiguous, confident("cancel_subscription", nil)}}
	v := &scriptedVoice{replies: []string{"I want to cancel my gym subscription"}}
	m := conversation.NewManager(engine, v)

	out := m.ProcessUtterance(context.Background(), "the gym thing", nil)

	assert.Equal(t, conversation.OutcomeExecuted, out.Kind)
	assert.Equal(t, []string{
		"the gym thing",
		"the gym thing. Specifically: I want to cancel my gym subscription",
	}, engine.interpretations())
}

func TestMultiTurnAbandoned(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
		want    conversation.OutcomeKind
	}{
		{"silence", []string{"Ana"}, conversation.OutcomeNoResponse},
		{"cancel phrase", []string{"Ana", "forget it"}, conversation.OutcomeAbandoned},
		{"spanish cancel", []string{"olvídalo"}, conversation.OutcomeAbandoned},
		{"cancel with filler", []string{"Ana", "no, stop please"}, conversation.OutcomeAbandoned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{script: []*intent.Intent{{
				Category: intent.CategoryCommunication, Action: "send_message", Confidence: 0.9,
			}}}
			m := conversation.NewManager(engine, &scriptedVoice{replies: tt.replies})

			out := m.ProcessUtterance(context.Background(), "text someone", nil)
			assert.Equal(t, tt.want, out.Kind)
			assert.Empty(t, engine.executions())
			assert.Equal(t, conversation.StateIdle, m.State())
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
		want    bool
		reasks  int
	}{
		{"spanish yes", []string{"sí dale"}, true, 0},
		{"spanish no", []string{"mejor no"}, false, 0},
		{"hedge then yes", []string{"quizás", "yes"}, true, 1},
		{"silence", nil, false, 0},
		{"never clear", []string{"hmm", "maybe", "yes"}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &scriptedVoice{replies: tt.replies}
			m := conversation.NewManager(&fakeEngine{}, v)

			got := m.Confirm(context.Background(), "turn off wifi")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Going to turn off wifi. Is that okay?", v.said()[0])

			reasks := 0
			for _, line := range v.said() {
				if line == "Not sure. Yes or no?" {
					reasks++
				}
			}
			assert.Equal(t, tt.reasks, reasks)
			assert.Equal(t, conversation.StateIdle, m.State())
		})
	}
}

func TestConfirmDuringExecution(t *testing.T) {
	in := confident("wifi_off", nil)
	in.RequiresConfirmation = true

	for _, tc := range []struct {
		reply string
		want  conversation.OutcomeKind
	}{
		{"yes", conversation.OutcomeExecuted},
		{"no", conversation.OutcomeDeclined},
	} {
		engine := &fakeEngine{script: []*intent.Intent{in}}
		tr := &transitions{}
		m := conversation.NewManager(engine, &scriptedVoice{replies: []string{tc.reply}}, conversation.WithOnStateChange(tr.record))

		out := m.ProcessUtterance(context.Background(), "turn off wifi", nil)
		assert.Equal(t, tc.want, out.Kind)
		assert.Equal(t, []string{
			"idle>processing",
			"processing>executing",
			"executing>waiting_confirmation",
			"waiting_confirmation>executing",
			"executing>idle",
		}, tr.list())
	}
}

func TestTranscriptIsBounded(t *testing.T) {
	m := conversation.NewManager(&fakeEngine{}, &scriptedVoice{})
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		m.Say(ctx, fmt.Sprintf("line %d", i))
	}

	turns := m.Transcript()
	require.Len(t, turns, conversation.TranscriptCapacity)
	assert.Equal(t, "line 10", turns[0].Message)
	assert.Equal(t, "line 59", turns[49].Message)
	assert.Equal(t, conversation.SpeakerAssistant, turns[0].Speaker)

	turns[0].Metadata["session_id"] = "tampered"
	assert.Equal(t, m.SessionID(), m.Transcript()[0].Metadata["session_id"])
}

func TestAbandonWhileWaiting(t *testing.T) {
	engine := &fakeEngine{script: []*intent.Intent{{
		Category: intent.CategoryCommunication, Action: "make_call", Confidence: 0.9,
	}}}
	v := &scriptedVoice{block: true}
	m := conversation.NewManager(engine, v, conversation.WithSessionID("s-1"))

	assert.False(t, m.Abandon(), "nothing to abandon while idle")

	done := make(chan *conversation.Outcome)
	go func() { done <- m.ProcessUtterance(context.Background(), "call", nil) }()

	require.Eventually(t, func() bool { return m.State() == conversation.StateMultiTurn },
		time.Second, 5*time.Millisecond)
	assert.True(t, m.Abandon())

	out := <-done
	assert.Equal(t, conversation.OutcomeAbandoned, out.Kind)
	assert.Equal(t, conversation.StateIdle, m.State())
	assert.Equal(t, conversation.AbandonLine, v.lastSaid())
	assert.Empty(t, engine.executions())
	assert.Equal(t, "s-1", m.SessionID())
}

func TestRequiredSlots(t *testing.T) {
	assert.Nil(t, conversation.RequiredSlots("open_app"))

	slots := conversation.RequiredSlots("create_event")
	require.Len(t, slots, 3)
	assert.Equal(t, "title", slots[0].Key)

	slots[0].Key = "changed"
	assert.Equal(t, "title", conversation.RequiredSlots("create_event")[0].Key)

	missing := conversation.MissingSlots(&intent.Intent{Action: "navigate_to", Parameters: map[string]any{"destination": "home"}})
	assert.Empty(t, missing)
	assert.Nil(t, conversation.MissingSlots(nil))
}
