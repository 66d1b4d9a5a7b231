package intelligence

import (
	"time"

	"github.com/methmouth/Robot/pkg/intent"
)

// Routine is a learned or user-defined sequence of actions tied to a time
// window.
type Routine struct {
	Name       string   `json:"name"`
	Actions    []string `json:"actions"`
	TimeWindow string   `json:"time_window"`

	Occurrences int     `json:"occurrences"`
	Confidence  float64 `json:"confidence"`
	Automated   bool    `json:"automated"`

	// SuggestedAutomation is set once the user has been offered to
	// automate the routine.
	SuggestedAutomation bool `json:"suggested_automation,omitempty"`

	// Steps are the executable steps of a user-defined shortcut.
	Steps []intent.Step `json:"steps,omitempty"`

	// VoiceTrigger is the phrase that runs a shortcut.
	VoiceTrigger string `json:"voice_trigger,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy whose slices can be modified independently.
func (r *Routine) Clone() *Routine {
	if r == nil {
		return nil
	}
	out := *r
	out.Actions = append([]string(nil), r.Actions...)
	if r.Steps != nil {
		out.Steps = make([]intent.Step, len(r.Steps))
		for i, s := range r.Steps {
			params := make(map[string]any, len(s.Params))
			for k, v := range s.Params {
				params[k] = v
			}
			out.Steps[i] = intent.Step{Action: s.Action, Params: params}
		}
	}
	return &out
}
