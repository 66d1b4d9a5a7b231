// Package intent defines the structured interpretation of a user utterance
// and the closed vocabulary of device steps it may carry.
//
// An Intent is produced by an oracle, validated by Decode, and then
// consumed by the execution coordinator and the conversation manager.
package intent

// Category classifies what the user is asking for.
type Category string

const (
	CategoryAppControl    Category = "app_control"
	CategoryCommunication Category = "communication"
	CategoryInformation   Category = "information"
	CategoryEntertainment Category = "entertainment"
	CategoryProductivity  Category = "productivity"
	CategorySettings      Category = "settings"
	CategoryNavigation    Category = "navigation"
	CategoryPersonal      Category = "personal"
	CategoryMeta          Category = "meta"
	CategoryAmbiguous     Category = "ambiguous"
)

var categories = []Category{
	CategoryAppControl,
	CategoryCommunication,
	CategoryInformation,
	CategoryEntertainment,
	CategoryProductivity,
	CategorySettings,
	CategoryNavigation,
	CategoryPersonal,
	CategoryMeta,
	CategoryAmbiguous,
}

// Categories returns the closed category set in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Intent is the structured interpretation of one utterance.
type Intent struct {
	Category             Category       `json:"category"`
	Action               string         `json:"action"`
	Parameters           map[string]any `json:"parameters"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	Confidence           float64        `json:"confidence"`
	Reasoning            string         `json:"reasoning,omitempty"`
	SuggestedResponse    string         `json:"suggested_response,omitempty"`
	FollowUpSuggestions  []string       `json:"follow_up_suggestions,omitempty"`
	ScreenAnalysisNeeded bool           `json:"screen_analysis_needed"`
	ExecutionSteps       []Step         `json:"execution_steps"`

	// ContextUpdates holds context fields to merge after a successful
	// execution. A null value clears the field.
	ContextUpdates map[string]any `json:"context_updates,omitempty"`

	LearnFromThis bool `json:"learn_from_this"`

	// PossibleMeanings lists candidate readings of an ambiguous utterance.
	PossibleMeanings []string `json:"possible_meanings,omitempty"`

	// Fallback marks an intent synthesized locally because the oracle
	// could not be used.
	Fallback bool `json:"-"`
}

// Param returns the string form of a parameter. Missing, nil and empty
// values all report ok=false.
func (in *Intent) Param(key string) (string, bool) {
	if in == nil || in.Parameters == nil {
		return "", false
	}
	return stringValue(in.Parameters[key])
}

// Clone returns a deep enough copy that maps and slices can be mutated
// without touching the original.
func (in *Intent) Clone() *Intent {
	if in == nil {
		return nil
	}
	out := *in
	out.Parameters = cloneMap(in.Parameters)
	out.ContextUpdates = cloneMap(in.ContextUpdates)
	out.FollowUpSuggestions = append([]string(nil), in.FollowUpSuggestions...)
	out.PossibleMeanings = append([]string(nil), in.PossibleMeanings...)
	if in.ExecutionSteps != nil {
		out.ExecutionSteps = make([]Step, len(in.ExecutionSteps))
		for i, s := range in.ExecutionSteps {
			out.ExecutionSteps[i] = Step{Action: s.Action, Params: cloneMap(s.Params)}
		}
	}
	return &out
}

// WithParameters returns a copy of in whose parameters are overlaid with extra.
func (in *Intent) WithParameters(extra map[string]any) *Intent {
	out := in.Clone()
	if out.Parameters == nil {
		out.Parameters = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		out.Parameters[k] = v
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
