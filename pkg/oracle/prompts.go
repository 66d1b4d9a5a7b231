package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/methmouth/Robot/pkg/intent"
)

// SystemPromptTemplate frames the assistant persona and the answer format.
const SystemPromptTemplate = `You are %s, a highly capable personal assistant running on the user's phone.
Tone: %s. Verbosity: %s.%s

# Categories
%s

# Output
Answer with a single JSON object and nothing else, following this schema:
%s

If the request is unclear, use category "ambiguous", a confidence below 0.6 and list the readings you considered in "possible_meanings".
If the user seems to repeat something they do often, say so in "follow_up_suggestions".`

// UserPromptTemplate carries the situational context and the utterance.
const UserPromptTemplate = `# Current context
- App: %s
- Activity: %s
- Time of day: %s
- User patterns: %s
- Last action: %s
- Screen image attached: %s

# User preferences
%s

# User said
%q`

var categoryHelp = map[intent.Category]string{
	intent.CategoryAppControl:    "open or close apps",
	intent.CategoryCommunication: "messages, calls, email",
	intent.CategoryInformation:   "searches and questions",
	intent.CategoryEntertainment: "music, video, games",
	intent.CategoryProductivity:  "notes, calendar, reminders",
	intent.CategorySettings:      "device settings",
	intent.CategoryNavigation:    "going places",
	intent.CategoryPersonal:      "the user's personal matters",
	intent.CategoryMeta:          "commands about the assistant itself",
	intent.CategoryAmbiguous:     "more information is needed",
}

// BuildSystemPrompt renders the system message for req.
func BuildSystemPrompt(req *Request) string {
	proactive := ""
	if req.Persona.Proactive {
		proactive = " Be proactive: suggest useful next steps."
	}

	var cats strings.Builder
	for _, c := range intent.Categories() {
		fmt.Fprintf(&cats, "- %s: %s\n", c, categoryHelp[c])
	}

	schema := req.Schema
	if schema == "" {
		schema = intent.SchemaText()
	}

	return fmt.Sprintf(SystemPromptTemplate,
		req.Persona.Name, req.Persona.Tone, req.Persona.Verbosity, proactive,
		strings.TrimRight(cats.String(), "\n"), schema)
}

// BuildUserPrompt renders the user message for req.
func BuildUserPrompt(req *Request) string {
	prefs := "{}"
	if len(req.Preferences) > 0 {
		if data, err := json.MarshalIndent(req.Preferences, "", "  "); err == nil {
			prefs = string(data)
		}
	}

	attached := "no"
	if wantsImage(req) {
		attached = "yes"
	}

	c := req.Context
	return fmt.Sprintf(UserPromptTemplate,
		c.CurrentApp, c.CurrentActivity, c.TimeOfDay, c.UserPatterns, c.LastAction,
		attached, prefs, req.Utterance)
}

func wantsImage(req *Request) bool {
	return req.Context.VisualAvailable && !req.Image.Empty()
}
