// Package schedule decides whether light updates are permitted at a given
// wall-clock time.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	matches := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day: %q", s)
	}

	hour, _ := strconv.Atoi(matches[1])
	min, _ := strconv.Atoi(matches[2])
	sec := 0
	if matches[3] != "" {
		sec, _ = strconv.Atoi(matches[3])
	}

	if hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour: %d", hour)
	}
	if min > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute: %d", min)
	}
	if sec > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid second: %d", sec)
	}

	return TimeOfDay{Hour: hour, Minute: min, Second: sec}, nil
}

// SecondOfDay returns the offset from midnight in seconds.
func (t TimeOfDay) SecondOfDay() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Window is the active schedule: a daily [Start, End) interval plus an
// optional weekday filter. A nil Start and End means always active; an End
// before Start wraps past midnight (22:00-02:00 covers late evening and
// the small hours).
type Window struct {
	Start *TimeOfDay
	End   *TimeOfDay
	Days  map[time.Weekday]bool
}

// Always returns a window that permits updates at any time.
func Always() Window {
	return Window{}
}

// IsActive reports whether now falls inside the window. Pure function of
// (now, window); the weekday and time of day are taken in now's location.
func (w Window) IsActive(now time.Time) bool {
	if len(w.Days) > 0 && !w.Days[now.Weekday()] {
		return false
	}
	if w.Start == nil || w.End == nil {
		return true
	}

	start := w.Start.SecondOfDay()
	end := w.End.SecondOfDay()
	s := now.Hour()*3600 + now.Minute()*60 + now.Second()

	switch {
	case start == end:
		// Degenerate interval; treated as the whole day.
		return true
	case start < end:
		return s >= start && s < end
	default:
		// Wraps past midnight.
		return s >= start || s < end
	}
}

func (w Window) String() string {
	if w.Start == nil || w.End == nil {
		return "always"
	}
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}
