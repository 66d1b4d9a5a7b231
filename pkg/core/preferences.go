package core

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Preference confidence rules.
const (
	ExplicitConfidence   = 1.0
	ImplicitConfidence   = 0.7
	ReinforcementStep    = 0.1
	RelevantConfidence   = 0.6
	ActionTimeConfidence = 0.3
)

// LearnPreference records a preference and schedules a save.
//
// Seeing the same value again raises confidence by ReinforcementStep, up
// to 1.0. A new key or a changed value starts over at ExplicitConfidence
// or ImplicitConfidence depending on source.
func (e *Engine) LearnPreference(key string, value any, source PreferenceSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.learnPreferenceLocked(key, value, source)
	e.scheduleSaveLocked()
}

func (e *Engine) learnPreferenceLocked(key string, value any, source PreferenceSource) {
	now := e.now()
	if p, ok := e.preferences[key]; ok && sameValue(p.Value, value) {
		p.Confidence = math.Min(1.0, p.Confidence+ReinforcementStep)
		p.LastUpdated = now
		return
	}

	confidence := ImplicitConfidence
	if source == SourceExplicit {
		confidence = ExplicitConfidence
	}
	e.preferences[key] = &Preference{
		Key:         key,
		Value:       cloneValue(value),
		Source:      source,
		Confidence:  confidence,
		LastUpdated: now,
	}
	e.logger.Debug("preference learned",
		zap.String("key", key), zap.String("source", string(source)), zap.Float64("confidence", confidence))
}

// setPatternLocked stores an implicit list value without reinforcing its
// confidence. New keys start at initial.
func (e *Engine) setPatternLocked(key string, value any, initial float64, at time.Time) {
	if p, ok := e.preferences[key]; ok {
		p.Value = value
		p.LastUpdated = at
		return
	}
	e.preferences[key] = &Preference{
		Key:         key,
		Value:       value,
		Source:      SourceImplicit,
		Confidence:  initial,
		LastUpdated: at,
	}
}

// RelevantPreferences returns the values of preferences whose confidence
// exceeds RelevantConfidence.
func (e *Engine) RelevantPreferences() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.relevantPreferencesLocked()
}

func (e *Engine) relevantPreferencesLocked() map[string]any {
	out := make(map[string]any)
	for key, p := range e.preferences {
		if p.Confidence > RelevantConfidence {
			out[key] = cloneValue(p.Value)
		}
	}
	return out
}

// Preference returns a copy of one preference.
func (e *Engine) Preference(key string) (Preference, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.preferences[key]
	if !ok {
		return Preference{}, false
	}
	out := *p
	out.Value = cloneValue(p.Value)
	return out, true
}

// Preferences returns a copy of every preference.
func (e *Engine) Preferences() map[string]Preference {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Preference, len(e.preferences))
	for key, p := range e.preferences {
		c := *p
		c.Value = cloneValue(p.Value)
		out[key] = c
	}
	return out
}

// sameValue compares preference values, treating numbers and lists the
// way they look after a JSON round trip.
func sameValue(a, b any) bool {
	switch av := a.(type) {
	case string, bool, nil:
		return a == b
	case float64, int, int64, float32:
		af, aok := number(av)
		bf, bok := number(b)
		return aok && bok && af == bf
	}
	if am, ok := mapOf(a); ok {
		bm, ok := mapOf(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, v := range am {
			w, ok := bm[k]
			if !ok || !sameValue(v, w) {
				return false
			}
		}
		return true
	}
	as, aok := listOf(a)
	bs, bok := listOf(b)
	if !aok || !bok || len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !sameValue(as[i], bs[i]) {
			return false
		}
	}
	return true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func mapOf(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func listOf(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
