package conversation

import "time"

// TranscriptCapacity is how many turns a Manager keeps.
const TranscriptCapacity = 50

// Speaker identifies who said a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one line of the conversation.
type Turn struct {
	Speaker   Speaker        `json:"speaker"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Intent    string         `json:"intent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	seq uint64
}

// transcript is a bounded turn history. Callers synchronize.
type transcript struct {
	turns    []Turn
	capacity int
	next     uint64
}

func newTranscript(capacity int) *transcript {
	return &transcript{capacity: capacity}
}

// add appends t and returns its sequence number.
func (tr *transcript) add(t Turn) uint64 {
	tr.next++
	t.seq = tr.next
	tr.turns = append(tr.turns, t)
	if over := len(tr.turns) - tr.capacity; over > 0 {
		tr.turns = append(tr.turns[:0:0], tr.turns[over:]...)
	}
	return t.seq
}

// tag sets the intent of turn seq if it is still held.
func (tr *transcript) tag(seq uint64, intentTag string) {
	for i := len(tr.turns) - 1; i >= 0; i-- {
		if tr.turns[i].seq == seq {
			tr.turns[i].Intent = intentTag
			return
		}
	}
}

func (tr *transcript) snapshot() []Turn {
	out := make([]Turn, len(tr.turns))
	for i, t := range tr.turns {
		out[i] = t
		if t.Metadata != nil {
			md := make(map[string]any, len(t.Metadata))
			for k, v := range t.Metadata {
				md[k] = v
			}
			out[i].Metadata = md
		}
	}
	return out
}
