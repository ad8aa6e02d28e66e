package usecase

import (
	"fmt"
	"time"
)

// RelativeTime renders the age of t as seen at now. Ages of 30 days or more
// fall back to an absolute date.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}

	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return plural(int(age/time.Minute), "minute")
	case age < 24*time.Hour:
		return plural(int(age/time.Hour), "hour")
	case age < 30*24*time.Hour:
		return plural(int(age/(24*time.Hour)), "day")
	}
	return t.Format("2 January 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
