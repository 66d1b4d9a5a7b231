package conversation

import "github.com/methmouth/Robot/pkg/intent"

// Slot is a required parameter of a multi-turn action and the question
// that asks for it.
type Slot struct {
	Key    string
	Prompt string
}

var requiredSlots = map[string][]Slot{
	"send_message": {
		{Key: "contact", Prompt: "Who to?"},
		{Key: "message", Prompt: "What message?"},
		{Key: "app", Prompt: "Which channel?"},
	},
	"create_event": {
		{Key: "title", Prompt: "What title?"},
		{Key: "date", Prompt: "What day?"},
		{Key: "time", Prompt: "What time?"},
	},
	"set_reminder": {
		{Key: "task", Prompt: "What to remind you of?"},
		{Key: "when", Prompt: "When?"},
	},
	"make_call": {
		{Key: "contact", Prompt: "Call whom?"},
	},
	"navigate_to": {
		{Key: "destination", Prompt: "Go where?"},
	},
}

// RequiredSlots returns the declared slots of action in asking order, or
// nil when action needs none.
func RequiredSlots(action string) []Slot {
	slots := requiredSlots[action]
	if slots == nil {
		return nil
	}
	return append([]Slot(nil), slots...)
}

// MissingSlots returns the required slots of in.Action that have no value, in asking
// order. Blank values count as missing.
func MissingSlots(in *intent.Intent) []Slot {
	if in == nil {
		return nil
	}
	var missing []Slot
	for _, s := range requiredSlots[in.Action] {
		if _, ok := in.Param(s.Key); !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
