package intent

import "strings"

const schemaTemplate = `{
  "category": one of [%CATEGORIES%],
  "action": "short action name, e.g. send_message, open_app, set_reminder",
  "parameters": {"name": "value"},
  "requires_confirmation": true or false,
  "confidence": number between 0.0 and 1.0,
  "reasoning": "why this interpretation",
  "suggested_response": "what to say to the user",
  "follow_up_suggestions": ["optional follow-up action"],
  "screen_analysis_needed": true or false,
  "execution_steps": [{"action": one of [%ACTIONS%], "params": {}}],
  "context_updates": {"current_app": "...", "current_activity": "..."},
  "learn_from_this": true or false,
  "possible_meanings": ["only when ambiguous"]
}`

// ActionKinds returns the closed set of step actions.
func ActionKinds() []ActionKind {
	return []ActionKind{
		ActionOpenApp, ActionClick, ActionTypeText, ActionWait,
		ActionScroll, ActionSearch, ActionNavigate,
	}
}

// SchemaText describes the JSON object an oracle must answer with.
func SchemaText() string {
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		cats = append(cats, `"`+string(c)+`"`)
	}
	kinds := ActionKinds()
	acts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		acts = append(acts, `"`+string(k)+`"`)
	}
	r := strings.NewReplacer(
		"%CATEGORIES%", strings.Join(cats, ", "),
		"%ACTIONS%", strings.Join(acts, ", "),
	)
	return r.Replace(schemaTemplate)
}
