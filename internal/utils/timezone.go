package utils

import (
	"time"
	_ "time/tzdata"
)

func LoadLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatInTimezone renders t in tz, falling back to UTC for unknown zones.
func FormatInTimezone(t time.Time, tz, layout string) string {
	return t.In(LoadLocation(tz)).Format(layout)
}
