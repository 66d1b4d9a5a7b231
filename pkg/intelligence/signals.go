package intelligence

import (
	"math"
	"strings"
	"time"

	"github.com/methmouth/Robot/pkg/intent"
)

// Limits on list-valued implicit preferences.
const (
	MaxActionHours  = 10
	MaxFavoriteApps = 5
)

// Well-known implicit preference keys.
const (
	PreferredBrowserKey = "preferred_browser"
	FavoriteAppsKey     = "favorite_apps"
	ActionTimePrefix    = "action_time_"
)

// SignalKind says how a signal is folded into the preference table.
type SignalKind int

const (
	// SignalPreference is learned as an implicit preference value.
	SignalPreference SignalKind = iota

	// SignalActionHour appends an hour of day to the action's history.
	SignalActionHour

	// SignalFavoriteApp moves an app to the front of the favorites list.
	SignalFavoriteApp
)

// Signal is one implicit observation drawn from an interaction.
type Signal struct {
	Kind  SignalKind
	Key   string
	Value any
}

// ExtractSignals derives implicit observations from an intent that asked
// to be learned from. at is the time of the interaction.
func ExtractSignals(in *intent.Intent, at time.Time) []Signal {
	if in == nil || in.Action == "" {
		return nil
	}

	signals := []Signal{{
		Kind:  SignalActionHour,
		Key:   ActionTimePrefix + in.Action,
		Value: at.Hour(),
	}}

	if browser, ok := in.Param("browser"); ok && isSearch(in) {
		signals = append(signals, Signal{Kind: SignalPreference, Key: PreferredBrowserKey, Value: browser})
	}

	for _, app := range openedApps(in) {
		signals = append(signals, Signal{Kind: SignalFavoriteApp, Key: FavoriteAppsKey, Value: app})
	}

	return signals
}

func isSearch(in *intent.Intent) bool {
	if in.Action == "search" {
		return true
	}
	for _, s := range in.ExecutionSteps {
		if s.Action == intent.ActionSearch {
			return true
		}
	}
	return false
}

func openedApps(in *intent.Intent) []string {
	var apps []string
	if in.Action == string(intent.ActionOpenApp) {
		if app, ok := in.Param("app"); ok {
			apps = append(apps, app)
		} else if pkg, ok := in.Param("package"); ok {
			apps = append(apps, pkg)
		}
	}
	for _, s := range in.ExecutionSteps {
		if s.Action != intent.ActionOpenApp {
			continue
		}
		if pkg, ok := s.Text("package"); ok {
			apps = append(apps, pkg)
		} else if app, ok := s.Text("app"); ok {
			apps = append(apps, app)
		}
	}
	return apps
}

// AppendHour adds hour to a stored hour list, keeping the newest max
// entries. existing may be []int or the []any a JSON round trip yields.
func AppendHour(existing any, hour, max int) []int {
	hours := append(toInts(existing), hour)
	if len(hours) > max {
		hours = hours[len(hours)-max:]
	}
	return hours
}

// PushFavorite moves app to the front of a stored list, deduplicated
// case-insensitively and truncated to max.
func PushFavorite(existing any, app string, max int) []string {
	out := []string{app}
	for _, a := range toStrings(existing) {
		if strings.EqualFold(a, app) {
			continue
		}
		out = append(out, a)
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func toInts(v any) []int {
	switch t := v.(type) {
	case []int:
		return append([]int(nil), t...)
	case []any:
		out := make([]int, 0, len(t))
		for _, e := range t {
			if f, ok := e.(float64); ok && !math.IsNaN(f) {
				out = append(out, int(f))
			} else if i, ok := e.(int); ok {
				out = append(out, i)
			}
		}
		return out
	}
	return nil
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// StringList reads a stored list preference as strings.
func StringList(v any) []string {
	return append([]string(nil), toStrings(v)...)
}
