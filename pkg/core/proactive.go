package core

// Proactive suggestions.
const (
	MorningRoutineName       = "morning_routine"
	MorningRoutineSuggestion = "Want me to run your morning routine?"
	ScrollingSuggestion      = "You seem to be scrolling a lot. Looking for something specific?"
)

// ProactiveSuggestion returns something worth offering unprompted, or
// ok=false. It stays silent unless the personality is proactive.
//
// Between 07:00 and 09:00 a morning routine that is not automated yet is
// offered. Otherwise more than five recent actions with at least three
// downward scrolls suggest the user is looking for something.
func (e *Engine) ProactiveSuggestion() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.personality.Proactive {
		return "", false
	}

	if hour := e.now().Hour(); hour >= 7 && hour < 9 {
		if r := e.findRoutineLocked(MorningRoutineName); r != nil {
			if r.Automated {
				return "", false
			}
			return MorningRoutineSuggestion, true
		}
	}

	actions := e.context.RecentActions
	if len(actions) > 5 {
		scrolls := 0
		for _, a := range actions {
			if a == "scroll_down" {
				scrolls++
			}
		}
		if scrolls >= 3 {
			return ScrollingSuggestion, true
		}
	}
	return "", false
}
