// Package storage provides the persistence gateway for the assistant's
// durable state.
//
// It defines the SnapshotStore interface all backends implement and the
// snapshot types they persist. The types mirror those of the core package
// to avoid an import cycle.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSnapshotNotFound is returned by Load when nothing was saved yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCorruptSnapshot wraps decode failures of a stored snapshot.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// SnapshotVersion is the schema version written by this package.
const SnapshotVersion = 1

// SnapshotStore loads and saves the durable snapshot.
//
// Save replaces the stored snapshot as a whole: after a crash the store
// holds either the previous or the new snapshot, never a mix.
type SnapshotStore interface {
	// Load returns the stored snapshot, ErrSnapshotNotFound, or an error
	// wrapping ErrCorruptSnapshot.
	Load(ctx context.Context) (*Snapshot, error)

	// Save atomically replaces the stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Close releases the store.
	Close() error
}

// Snapshot is the durable state: long-term memory, preferences, routines
// and the personality profile.
type Snapshot struct {
	Version        int                   `json:"version"`
	SavedAt        time.Time             `json:"saved_at"`
	LongTermMemory []MemoryRecord        `json:"long_term_memory"`
	Preferences    map[string]Preference `json:"preferences"`
	Routines       []Routine             `json:"routines"`
	Personality    *Personality          `json:"personality,omitempty"`
}

// MemoryRecord mirrors core.MemoryRecord.
type MemoryRecord struct {
	ID         int64          `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Kind       string         `json:"kind"`
	Content    map[string]any `json:"content"`
	Importance int            `json:"importance"`
}

// Preference mirrors core.Preference.
type Preference struct {
	Key         string    `json:"key"`
	Value       any       `json:"value"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
	LastUpdated time.Time `json:"last_updated"`
}

// Step mirrors intent.Step.
type Step struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Routine mirrors the routine registry entries.
type Routine struct {
	Name                string    `json:"name"`
	Actions             []string  `json:"actions"`
	TimeWindow          string    `json:"time_window"`
	Occurrences         int       `json:"occurrences"`
	Confidence          float64   `json:"confidence"`
	Automated           bool      `json:"automated"`
	SuggestedAutomation bool      `json:"suggested_automation,omitempty"`
	Steps               []Step    `json:"steps,omitempty"`
	VoiceTrigger        string    `json:"voice_trigger,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// Personality mirrors core.Personality.
type Personality struct {
	Name      string `json:"name"`
	Tone      string `json:"tone"`
	Verbosity string `json:"verbosity"`
	Proactive bool   `json:"proactive"`
}

// Empty reports whether the snapshot carries no state at all.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.LongTermMemory) == 0 && len(s.Preferences) == 0 &&
		len(s.Routines) == 0 && s.Personality == nil)
}
