// Package oracle is the boundary to the reasoning service that turns an
// utterance plus context into a structured intent.
package oracle

import (
	"context"

	"github.com/methmouth/Robot/pkg/daypart"
	"github.com/methmouth/Robot/pkg/intent"
)

// Oracle interprets one request. Implementations must return either a
// schema-conforming intent or an error, never a partially valid intent.
type Oracle interface {
	Query(ctx context.Context, req *Request) (*intent.Intent, error)
}

// Persona is the assistant personality sent with every request.
type Persona struct {
	Name      string `json:"name"`
	Tone      string `json:"tone"`
	Verbosity string `json:"verbosity"`
	Proactive bool   `json:"proactive"`
}

// RichContext is the enriched situational context for an utterance.
type RichContext struct {
	CurrentApp      string         `json:"current_app"`
	CurrentActivity string         `json:"current_activity"`
	TimeOfDay       daypart.Bucket `json:"time_of_day"`
	UserPatterns    string         `json:"user_patterns"`
	LastAction      string         `json:"last_action"`
	VisualAvailable bool           `json:"visual_available"`
}

// Request is everything the oracle sees for one utterance.
type Request struct {
	Persona     Persona
	Context     RichContext
	Preferences map[string]any
	Utterance   string
	Schema      string

	// Image is attached only when Context.VisualAvailable is set.
	Image *intent.Snapshot
}

// Func adapts a function to Oracle.
type Func func(ctx context.Context, req *Request) (*intent.Intent, error)

// Query implements Oracle.
func (f Func) Query(ctx context.Context, req *Request) (*intent.Intent, error) {
	return f(ctx, req)
}
