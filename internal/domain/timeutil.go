package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AddMinutes offsets t forward by m minutes.
func AddMinutes(t time.Time, m int) time.Time {
	return t.Add(time.Duration(m) * time.Minute)
}

// SubtractMinutes offsets t backward by m minutes.
func SubtractMinutes(t time.Time, m int) time.Time {
	return t.Add(-time.Duration(m) * time.Minute)
}

// ParseTimeOfDay interprets s ("HH:MM") as a wall-clock time in loc on the
// calendar day of ref. If the result lies strictly after ref it is moved back
// one calendar day, so the result is never later than ref. Callers that need
// a future occurrence pass a future ref.
//
// Provider annotations after the time are ignored ("05:12 (EET)"). A wall
// time skipped by a forward DST change is read with the offset in force
// before the change, so "02:30" on a 02:00 spring-forward day is 03:30.
func ParseTimeOfDay(s string, loc *time.Location, ref time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	hour, minute, err := splitClock(s)
	if err != nil {
		return time.Time{}, err
	}

	day := ref.In(loc)
	t := wallClock(day.Year(), day.Month(), day.Day(), hour, minute, loc)
	if t.After(ref) {
		t = wallClock(day.Year(), day.Month(), day.Day()-1, hour, minute, loc)
	}
	return t, nil
}

// wallClock builds the instant showing hour:minute on the given day in loc.
func wallClock(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if t.Hour() == hour && t.Minute() == minute {
		return t
	}
	// The wall time falls in a gap; use the smaller offset around it.
	_, before := t.Add(-12 * time.Hour).Zone()
	_, after := t.Add(12 * time.Hour).Zone()
	offset := min(before, after)
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC).
		Add(-time.Duration(offset) * time.Second).In(loc)
}

// ValidTimeOfDay reports whether s parses as an HH:MM clock value.
func ValidTimeOfDay(s string) bool {
	_, _, err := splitClock(s)
	return err == nil
}

func splitClock(s string) (int, int, error) {
	clock := strings.TrimSpace(s)
	if i := strings.IndexByte(clock, ' '); i >= 0 {
		clock = clock[:i]
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 2 || len(parts[1]) != 2 || parts[0] == "" || len(parts[0]) > 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if !isDigits(parts[0]) || !isDigits(parts[1]) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return hour, minute, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// EndOfDay returns the last instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
}
