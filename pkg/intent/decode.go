package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformed is returned by Decode for any response that does not
// conform to the intent schema.
var ErrMalformed = errors.New("malformed intent")

var requiredFields = []string{"category", "action", "confidence"}

// Decode parses an oracle response into an Intent.
//
// Markdown code fences and prose around the JSON object are tolerated.
// Everything else is strict: the required fields must be present, the
// category and every step action must belong to their closed sets and
// confidence must lie in [0, 1]. A response that fails any check is
// rejected as a whole.
func Decode(data []byte) (*Intent, error) {
	text := extractObject(removeCodeBlocks(string(data)))
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: missing field %q", ErrMalformed, field)
		}
	}

	var in Intent
	if err := json.Unmarshal([]byte(text), &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Parameters == nil {
		in.Parameters = map[string]any{}
	}
	if in.ExecutionSteps == nil {
		in.ExecutionSteps = []Step{}
	}
	return &in, nil
}

// Validate checks the schema constraints Decode enforces.
func (in *Intent) Validate() error {
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrMalformed, in.Category)
	}
	if strings.TrimSpace(in.Action) == "" {
		return fmt.Errorf("%w: empty action", ErrMalformed)
	}
	if math.IsNaN(in.Confidence) || in.Confidence < 0 || in.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", ErrMalformed, in.Confidence)
	}
	for i, step := range in.ExecutionSteps {
		if !step.Action.Valid() {
			return fmt.Errorf("%w: step %d: unknown action %q", ErrMalformed, i, step.Action)
		}
	}
	return nil
}

// Fallback is the intent used whenever the oracle cannot be trusted.
func Fallback(utterance string) *Intent {
	return &Intent{
		Category:          CategoryAmbiguous,
		Action:            "clarify",
		Parameters:        map[string]any{},
		Confidence:        0.3,
		Reasoning:         "oracle response unavailable",
		SuggestedResponse: fmt.Sprintf("I'm not sure I understood %q. Could you be more specific?", utterance),
		ExecutionSteps:    []Step{},
		Fallback:          true,
	}
}

// removeCodeBlocks removes ```json fences from a response.
func removeCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

// extractObject trims anything outside the outermost braces.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
