// internal/models/clock.go
// Clock and date arithmetic shared by slots, days and the assignment engine

package models

import (
	"fmt"
	"time"
)

// ParseClock converts an "HH:MM" clock string to minutes from midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes from midnight back to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AbsoluteMinutes converts a (day date, clock minutes) pair to minutes since
// the Unix epoch so rest gaps can be compared across day boundaries.
func AbsoluteMinutes(dayDate string, clockMinutes int) (int64, error) {
	day, err := time.Parse("2006-01-02", dayDate)
	if err != nil {
		return 0, fmt.Errorf("invalid day date %q: %w", dayDate, err)
	}
	return day.Unix()/60 + int64(clockMinutes), nil
}
