package intent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is one of the device primitives a Step can invoke.
type ActionKind string

const (
	ActionOpenApp  ActionKind = "open_app"
	ActionClick    ActionKind = "click"
	ActionTypeText ActionKind = "type_text"
	ActionWait     ActionKind = "wait"
	ActionScroll   ActionKind = "scroll"
	ActionSearch   ActionKind = "search"
	ActionNavigate ActionKind = "navigate"
)

var actionAliases = map[string]ActionKind{
	"type": ActionTypeText,
}

// Valid reports whether k is a known primitive.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionOpenApp, ActionClick, ActionTypeText, ActionWait,
		ActionScroll, ActionSearch, ActionNavigate:
		return true
	}
	return false
}

// UnmarshalJSON normalizes aliases such as "type". Unknown kinds are kept
// verbatim so Decode can reject them with a useful message.
func (k *ActionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := actionAliases[s]; ok {
		*k = alias
		return nil
	}
	*k = ActionKind(s)
	return nil
}

// Step is one device primitive with its parameters.
type Step struct {
	Action ActionKind     `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Text returns a string parameter. Numbers are formatted; empty strings
// report ok=false.
func (s Step) Text(key string) (string, bool) {
	if s.Params == nil {
		return "", false
	}
	return stringValue(s.Params[key])
}

// TextOr returns the string parameter or def when absent.
func (s Step) TextOr(key, def string) string {
	if v, ok := s.Text(key); ok {
		return v
	}
	return def
}

// Float returns a numeric parameter. Numeric strings are accepted.
func (s Step) Float(key string) (float64, bool) {
	if s.Params == nil {
		return 0, false
	}
	switch v := s.Params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns a numeric parameter truncated to int.
func (s Step) Int(key string) (int, bool) {
	f, ok := s.Float(key)
	return int(f), ok
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		s := strings.TrimSpace(fmt.Sprint(t))
		return s, s != ""
	}
}
