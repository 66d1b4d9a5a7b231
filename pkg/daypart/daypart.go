// Package daypart buckets wall-clock time into the coarse periods the
// assistant reasons about.
package daypart

import "time"

// Bucket is a coarse period of the day.
type Bucket string

const (
	Morning   Bucket = "morning"
	Afternoon Bucket = "afternoon"
	Evening   Bucket = "evening"
	Night     Bucket = "night"
)

// Of returns the bucket for t's local hour:
// morning 05-11, afternoon 12-17, evening 18-21, night otherwise.
func Of(t time.Time) Bucket {
	return OfHour(t.Hour())
}

// OfHour is Of for a bare hour in [0, 23].
func OfHour(hour int) Bucket {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	case hour >= 18 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// Salutation returns the greeting opener for t. Night shares the evening
// greeting.
func Salutation(t time.Time) string {
	switch Of(t) {
	case Morning:
		return "Good morning"
	case Afternoon:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// String implements fmt.Stringer.
func (b Bucket) String() string {
	return string(b)
}
