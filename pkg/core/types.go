package core

import (
	"fmt"
	"time"

	"github.com/methmouth/Robot/pkg/daypart"
	"github.com/methmouth/Robot/pkg/intelligence"
)

// RecordKind classifies a memory record.
type RecordKind string

const (
	KindCommand    RecordKind = "command"
	KindContext    RecordKind = "context"
	KindPreference RecordKind = "preference"
	KindRoutine    RecordKind = "routine"
)

// MemoryRecord is one remembered interaction.
//
// Example:
//
//	record := core.MemoryRecord{
//	    ID:         1790234567890123776,
//	    Kind:       core.KindCommand,
//	    Content:    map[string]any{"input": "call mom", "action": "make_call"},
//	    Importance: 9,
//	}
type MemoryRecord struct {
	// ID is a snowflake id, unique per engine node.
	ID int64 `json:"id"`

	Timestamp time.Time  `json:"timestamp"`
	Kind      RecordKind `json:"kind"`

	// Content holds the utterance and the interpreted intent summary.
	Content map[string]any `json:"content"`

	// Importance is in [1, 10]. Records scoring 7 or more are kept in
	// long-term memory.
	Importance int `json:"importance"`
}

// PreferenceSource says whether a preference was stated or inferred.
type PreferenceSource string

const (
	SourceExplicit PreferenceSource = "explicit"
	SourceImplicit PreferenceSource = "implicit"
)

// Preference is a learned user preference.
type Preference struct {
	Key         string           `json:"key"`
	Value       any              `json:"value"`
	Source      PreferenceSource `json:"source"`
	Confidence  float64          `json:"confidence"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Routine is a learned action sequence or a user-defined shortcut.
type Routine = intelligence.Routine

// Personality is the assistant persona.
type Personality struct {
	Name      string `json:"name" yaml:"name"`
	Tone      string `json:"tone" yaml:"tone"`
	Verbosity string `json:"verbosity" yaml:"verbosity"`
	Proactive bool   `json:"proactive" yaml:"proactive"`
}

// DefaultPersonality returns the stock persona.
func DefaultPersonality() Personality {
	return Personality{
		Name:      "Atlas",
		Tone:      "friendly",
		Verbosity: "medium",
		Proactive: true,
	}
}

// ContextState is the situational context tracked between utterances.
type ContextState struct {
	CurrentApp      *string        `json:"current_app"`
	CurrentActivity string         `json:"current_activity"`
	TimeOfDay       daypart.Bucket `json:"time_of_day"`
	LocationType    *string        `json:"location_type"`
	Mood            *string        `json:"mood"`

	// RecentActions is a bounded window, most recent last.
	RecentActions []string `json:"recent_actions"`
}

// Context field names accepted in intent context updates.
const (
	FieldCurrentApp      = "current_app"
	FieldCurrentActivity = "current_activity"
	FieldLocationType    = "location_type"
	FieldMood            = "mood"
)

// ContextUpdate is a partial context change. Nil fields are left as they
// are; fields named in Clear are reset. Extra keys are not part of the
// context and go to working memory.
type ContextUpdate struct {
	CurrentApp      *string
	CurrentActivity *string
	LocationType    *string
	Mood            *string

	Clear []string
	Extra map[string]any
}

// ContextUpdateFromMap reads the context_updates object of an intent. A
// null value clears the field.
func ContextUpdateFromMap(m map[string]any) ContextUpdate {
	var u ContextUpdate
	for key, raw := range m {
		var target **string
		switch key {
		case FieldCurrentApp:
			target = &u.CurrentApp
		case FieldCurrentActivity:
			target = &u.CurrentActivity
		case FieldLocationType:
			target = &u.LocationType
		case FieldMood:
			target = &u.Mood
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]any)
			}
			u.Extra[key] = raw
			continue
		}

		if raw == nil {
			u.Clear = append(u.Clear, key)
			continue
		}
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprint(raw)
		}
		*target = &s
	}
	return u
}

// Empty reports whether u changes nothing.
func (u ContextUpdate) Empty() bool {
	return u.CurrentApp == nil && u.CurrentActivity == nil && u.LocationType == nil &&
		u.Mood == nil && len(u.Clear) == 0 && len(u.Extra) == 0
}

// StringPtr returns a pointer to s, for building a ContextUpdate.
func StringPtr(s string) *string {
	return &s
}
