// Package intelligence holds the learning heuristics of the assistant:
// interaction importance, routine detection and implicit signal extraction.
package intelligence

import (
	"github.com/methmouth/Robot/pkg/intent"
)

// Importance scale and promotion threshold.
const (
	MinImportance     = 1
	MaxImportance     = 10
	LongTermThreshold = 7
)

// ImportanceScorer rates how worth remembering an interpreted interaction is.
//
// Scoring is additive from a base of 5:
//   - +2 when the intent required confirmation
//   - +1 when the oracle was more than 90% confident
//   - +2 for personal, settings and communication intents
//
// and the result is capped at MaxImportance.
//
// Example usage:
//
//	scorer := NewImportanceScorer()
//	if scorer.Promote(scorer.Score(in)) {
//	    // keep it in long-term memory
//	}
type ImportanceScorer struct {
	// Base is the score every interaction starts from.
	Base int

	// ConfirmationBonus is added when confirmation was required.
	ConfirmationBonus int

	// HighConfidence is the exclusive confidence bound for ConfidenceBonus.
	HighConfidence  float64
	ConfidenceBonus int

	// CategoryBonus is added for categories in SensitiveCategories.
	CategoryBonus       int
	SensitiveCategories map[intent.Category]bool
}

// NewImportanceScorer returns a scorer with the default weights.
func NewImportanceScorer() *ImportanceScorer {
	return &ImportanceScorer{
		Base:              5,
		ConfirmationBonus: 2,
		HighConfidence:    0.9,
		ConfidenceBonus:   1,
		CategoryBonus:     2,
		SensitiveCategories: map[intent.Category]bool{
			intent.CategoryPersonal:      true,
			intent.CategorySettings:      true,
			intent.CategoryCommunication: true,
		},
	}
}

// Score returns the importance of in, within [MinImportance, MaxImportance].
func (s *ImportanceScorer) Score(in *intent.Intent) int {
	score := 0
	for _, v := range s.Breakdown(in) {
		score += v
	}
	if score > MaxImportance {
		score = MaxImportance
	}
	if score < MinImportance {
		score = MinImportance
	}
	return score
}

// Breakdown returns the contribution of each scoring rule. Rules that did
// not fire are omitted.
func (s *ImportanceScorer) Breakdown(in *intent.Intent) map[string]int {
	breakdown := map[string]int{"base": s.Base}
	if in == nil {
		return breakdown
	}
	if in.RequiresConfirmation {
		breakdown["confirmation"] = s.ConfirmationBonus
	}
	if in.Confidence > s.HighConfidence {
		breakdown["confidence"] = s.ConfidenceBonus
	}
	if s.SensitiveCategories[in.Category] {
		breakdown["category"] = s.CategoryBonus
	}
	return breakdown
}

// Promote reports whether score qualifies for long-term memory.
func (s *ImportanceScorer) Promote(score int) bool {
	return score >= LongTermThreshold
}
