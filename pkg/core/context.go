package core

import (
	"fmt"
	"strings"

	"github.com/methmouth/Robot/pkg/daypart"
	"github.com/methmouth/Robot/pkg/intelligence"
	"github.com/methmouth/Robot/pkg/intent"
	"github.com/methmouth/Robot/pkg/oracle"
)

// Placeholders used in the rich context when nothing is known.
const (
	UnknownApp       = "unknown"
	NoLastAction     = "none"
	StillLearning    = "still learning"
	patternAppsShown = 3
)

// UpdateContext merges u into the context. Fields u leaves nil keep their
// value; extra keys are stored in working memory.
func (e *Engine) UpdateContext(u ContextUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateContextLocked(u)
}

func (e *Engine) updateContextLocked(u ContextUpdate) {
	c := &e.context
	for _, field := range u.Clear {
		switch field {
		case FieldCurrentApp:
			c.CurrentApp = nil
		case FieldCurrentActivity:
			c.CurrentActivity = "idle"
		case FieldLocationType:
			c.LocationType = nil
		case FieldMood:
			c.Mood = nil
		}
	}
	if u.CurrentApp != nil {
		c.CurrentApp = StringPtr(*u.CurrentApp)
	}
	if u.CurrentActivity != nil {
		c.CurrentActivity = *u.CurrentActivity
	}
	if u.LocationType != nil {
		c.LocationType = StringPtr(*u.LocationType)
	}
	if u.Mood != nil {
		c.Mood = StringPtr(*u.Mood)
	}
	for k, v := range u.Extra {
		e.working[k] = v
	}
}

// RecordAction appends action to the recent actions window.
func (e *Engine) RecordAction(action string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recordActionLocked(action)
}

func (e *Engine) recordActionLocked(action string) {
	c := &e.context
	c.RecentActions = append(c.RecentActions, action)
	if over := len(c.RecentActions) - e.cfg.Engine.RecentActionsCapacity; over > 0 {
		c.RecentActions = append(c.RecentActions[:0:0], c.RecentActions[over:]...)
	}
}

// Context returns a copy of the context with the time of day refreshed.
func (e *Engine) Context() ContextState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.context.TimeOfDay = daypart.Of(e.now())

	c := e.context
	if c.CurrentApp != nil {
		c.CurrentApp = StringPtr(*c.CurrentApp)
	}
	if c.LocationType != nil {
		c.LocationType = StringPtr(*c.LocationType)
	}
	if c.Mood != nil {
		c.Mood = StringPtr(*c.Mood)
	}
	c.RecentActions = append([]string(nil), c.RecentActions...)
	return c
}

// BuildRichContext summarizes the situation for the oracle. snapshot is
// the current screen frame, if one was captured.
func (e *Engine) BuildRichContext(snapshot *intent.Snapshot) oracle.RichContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildRichContextLocked(snapshot)
}

func (e *Engine) buildRichContextLocked(snapshot *intent.Snapshot) oracle.RichContext {
	bucket := daypart.Of(e.now())
	e.context.TimeOfDay = bucket

	rc := oracle.RichContext{
		CurrentApp:      UnknownApp,
		CurrentActivity: e.context.CurrentActivity,
		TimeOfDay:       bucket,
		UserPatterns:    e.summarizePatternsLocked(bucket),
		LastAction:      NoLastAction,
		VisualAvailable: snapshot != nil,
	}
	if e.context.CurrentApp != nil && *e.context.CurrentApp != "" {
		rc.CurrentApp = *e.context.CurrentApp
	}
	if n := len(e.context.RecentActions); n > 0 {
		rc.LastAction = e.context.RecentActions[n-1]
	}
	return rc
}

func (e *Engine) summarizePatternsLocked(bucket daypart.Bucket) string {
	var patterns []string
	if p, ok := e.preferences[intelligence.FavoriteAppsKey]; ok {
		apps := intelligence.StringList(p.Value)
		if len(apps) > patternAppsShown {
			apps = apps[:patternAppsShown]
		}
		if len(apps) > 0 {
			patterns = append(patterns, "uses "+strings.Join(apps, ", "))
		}
	}
	if bucket != "" {
		patterns = append(patterns, fmt.Sprintf("is active in the %s", bucket))
	}
	if len(patterns) == 0 {
		return StillLearning
	}
	return strings.Join(patterns, "; ")
}
