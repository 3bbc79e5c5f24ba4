// Package timeutil provides human-readable relative time formatting.
//
// # Usage
//
//	timeutil.Relative(time.Now().Add(-5 * time.Minute)) // "5 minutes ago"
//	timeutil.Relative(time.Now().Add(2 * time.Hour))    // "in 2 hours"
package timeutil

import (
	"fmt"
	"time"
)

// Relative formats t as a human-readable offset from now.
func Relative(t time.Time) string {
	return RelativeTo(t, time.Now())
}

// RelativeTo formats t as a human-readable offset from the reference
// instant. Past times read "5 minutes ago", future times "in 2 hours".
func RelativeTo(t, ref time.Time) string {
	d := t.Sub(ref)
	future := d > 0
	if !future {
		d = -d
	}

	phrase := span(d)
	if phrase == "" {
		return "just now"
	}
	if future {
		return "in " + phrase
	}
	return phrase + " ago"
}

func span(d time.Duration) string {
	switch {
	case d < 30*time.Second:
		return ""
	case d < 90*time.Second:
		return "1 minute"
	case d < 50*time.Minute:
		return fmt.Sprintf("%d minutes", int(d.Round(time.Minute).Minutes()))
	case d < 36*time.Hour:
		return plural(int(d.Round(time.Hour).Hours()), "hour")
	default:
		return plural(int(d.Round(24*time.Hour).Hours())/24, "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
