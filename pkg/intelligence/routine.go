package intelligence

import (
	"fmt"
	"math"
	"time"
)

// Routine detection thresholds.
const (
	// SimilarityThreshold is the exclusive Jaccard bound for two action
	// sequences to count as the same routine.
	SimilarityThreshold = 0.8

	// AutomationOccurrences is how often a routine must be seen before
	// automation is suggested.
	AutomationOccurrences = 3

	// MinRoutineLength is the shortest sequence registered as a routine.
	MinRoutineLength = 3

	InitialRoutineConfidence = 0.3
	RoutineConfidenceStep    = 0.1
)

// Detection is the outcome of one RoutineDetector.Detect call.
type Detection struct {
	// Matched is the reinforced existing routine, if any.
	Matched *Routine

	// Created is the newly registered routine, if any. The caller must
	// append it to its registry.
	Created *Routine

	// SuggestAutomation is set the first time Matched qualifies for
	// automation.
	SuggestAutomation bool
}

// RoutineDetector recognizes repeated action sequences.
type RoutineDetector struct {
	now func() time.Time
}

// NewRoutineDetector creates a detector. A nil clock uses time.Now.
func NewRoutineDetector(now func() time.Time) *RoutineDetector {
	if now == nil {
		now = time.Now
	}
	return &RoutineDetector{now: now}
}

// Detect compares actions with the registry, in registration order.
//
// The first routine in the same time window whose similarity exceeds
// SimilarityThreshold is reinforced in place. Otherwise a sequence of at
// least MinRoutineLength actions yields a new routine.
func (d *RoutineDetector) Detect(registry []*Routine, actions []string, timeWindow string) Detection {
	for _, r := range registry {
		if r.TimeWindow != timeWindow {
			continue
		}
		if JaccardSimilarity(actions, r.Actions) <= SimilarityThreshold {
			continue
		}

		r.Occurrences++
		r.Confidence = math.Min(1.0, r.Confidence+RoutineConfidenceStep)

		det := Detection{Matched: r}
		if r.Occurrences >= AutomationOccurrences && !r.Automated && !r.SuggestedAutomation {
			r.SuggestedAutomation = true
			det.SuggestAutomation = true
		}
		return det
	}

	if len(actions) < MinRoutineLength {
		return Detection{}
	}

	return Detection{Created: &Routine{
		Name:        uniqueName(registry, fmt.Sprintf("routine_%s_%d", timeWindow, len(registry))),
		Actions:     append([]string(nil), actions...),
		TimeWindow:  timeWindow,
		Occurrences: 1,
		Confidence:  InitialRoutineConfidence,
		CreatedAt:   d.now(),
	}}
}

func uniqueName(registry []*Routine, name string) string {
	taken := make(map[string]bool, len(registry))
	for _, r := range registry {
		taken[r.Name] = true
	}
	candidate := name
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	return candidate
}
