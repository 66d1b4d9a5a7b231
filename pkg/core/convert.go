package core

import (
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/storage"
)

// snapshotLocked copies the durable state into a storage snapshot. The
// caller holds e.mu; the result shares nothing with the engine.
func (e *Engine) snapshotLocked() *storage.Snapshot {
	snap := &storage.Snapshot{
		Version:        storage.SnapshotVersion,
		SavedAt:        e.now(),
		LongTermMemory: make([]storage.MemoryRecord, len(e.longTerm)),
		Preferences:    make(map[string]storage.Preference, len(e.preferences)),
		Routines:       make([]storage.Routine, len(e.routines)),
	}
	for i, rec := range e.longTerm {
		snap.LongTermMemory[i] = toStorageRecord(rec)
	}
	for key, p := range e.preferences {
		snap.Preferences[key] = toStoragePreference(p)
	}
	for i, r := range e.routines {
		snap.Routines[i] = toStorageRoutine(r)
	}
	p := toStoragePersonality(e.personality)
	snap.Personality = &p
	return snap
}

// applySnapshot replaces the durable state with snap. The caller holds e.mu.
func (e *Engine) applySnapshot(snap *storage.Snapshot) {
	e.longTerm = make([]MemoryRecord, 0, len(snap.LongTermMemory))
	for _, rec := range snap.LongTermMemory {
		e.longTerm = append(e.longTerm, fromStorageRecord(rec))
	}

	e.preferences = make(map[string]*Preference, len(snap.Preferences))
	for key, p := range snap.Preferences {
		pref := fromStoragePreference(p)
		if pref.Key == "" {
			pref.Key = key
		}
		e.preferences[key] = pref
	}

	e.routines = make([]*Routine, 0, len(snap.Routines))
	for _, r := range snap.Routines {
		e.routines = append(e.routines, fromStorageRoutine(r))
	}

	if snap.Personality != nil {
		e.personality = fromStoragePersonality(*snap.Personality)
	}
}

// toStorageRecord converts a core.MemoryRecord to storage.MemoryRecord.
func toStorageRecord(rec MemoryRecord) storage.MemoryRecord {
	return storage.MemoryRecord{
		ID:         rec.ID,
		Timestamp:  rec.Timestamp,
		Kind:       string(rec.Kind),
		Content:    cloneMap(rec.Content),
		Importance: rec.Importance,
	}
}

// fromStorageRecord converts a storage.MemoryRecord to core.MemoryRecord.
func fromStorageRecord(rec storage.MemoryRecord) MemoryRecord {
	return MemoryRecord{
		ID:         rec.ID,
		Timestamp:  rec.Timestamp,
		Kind:       RecordKind(rec.Kind),
		Content:    rec.Content,
		Importance: rec.Importance,
	}
}

func toStoragePreference(p *Preference) storage.Preference {
	return storage.Preference{
		Key:         p.Key,
		Value:       cloneValue(p.Value),
		Source:      string(p.Source),
		Confidence:  p.Confidence,
		LastUpdated: p.LastUpdated,
	}
}

func fromStoragePreference(p storage.Preference) *Preference {
	return &Preference{
		Key:         p.Key,
		Value:       p.Value,
		Source:      PreferenceSource(p.Source),
		Confidence:  p.Confidence,
		LastUpdated: p.LastUpdated,
	}
}

func toStorageRoutine(r *Routine) storage.Routine {
	out := storage.Routine{
		Name:                r.Name,
		Actions:             append([]string(nil), r.Actions...),
		TimeWindow:          r.TimeWindow,
		Occurrences:         r.Occurrences,
		Confidence:          r.Confidence,
		Automated:           r.Automated,
		SuggestedAutomation: r.SuggestedAutomation,
		VoiceTrigger:        r.VoiceTrigger,
		CreatedAt:           r.CreatedAt,
	}
	for _, s := range r.Steps {
		out.Steps = append(out.Steps, storage.Step{Action: string(s.Action), Params: cloneMap(s.Params)})
	}
	return out
}

func fromStorageRoutine(r storage.Routine) *Routine {
	out := &Routine{
		Name:                r.Name,
		Actions:             r.Actions,
		TimeWindow:          r.TimeWindow,
		Occurrences:         r.Occurrences,
		Confidence:          r.Confidence,
		Automated:           r.Automated,
		SuggestedAutomation: r.SuggestedAutomation,
		VoiceTrigger:        r.VoiceTrigger,
		CreatedAt:           r.CreatedAt,
	}
	for _, s := range r.Steps {
		out.Steps = append(out.Steps, intent.Step{Action: intent.ActionKind(s.Action), Params: s.Params})
	}
	return out
}

func toStoragePersonality(p Personality) storage.Personality {
	return storage.Personality{Name: p.Name, Tone: p.Tone, Verbosity: p.Verbosity, Proactive: p.Proactive}
}

func fromStoragePersonality(p storage.Personality) Personality {
	return Personality{Name: p.Name, Tone: p.Tone, Verbosity: p.Verbosity, Proactive: p.Proactive}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container types preferences and records hold.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		return cloneMap(t)
	default:
		return v
	}
}
