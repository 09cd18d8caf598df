package domain

import (
	"time"
)

// CurrentState is a snapshot produced by one coarse refresh. It carries the
// anchors the fine display loop counts down against.
type CurrentState struct {
	Mode       ScheduleMode
	Location   *Location
	Computed   time.Time
	Timeline   *Timeline
	Downtime   *DowntimeState
	EndsAt     *time.Time
	Notified   bool
	Tick       DowntimeTransition
	MealsToday int
}

// Headline returns the name of what should be happening now.
func (cs *CurrentState) Headline() string {
	switch cs.Mode {
	case ModeDowntime:
		if cs.Downtime != nil {
			return cs.Downtime.CurrentActivity
		}
	case ModeStrict:
		if cs.Timeline != nil {
			return cs.Timeline.Current.Name
		}
	}
	return ActivityStarting
}

// UpNext returns the name of what follows the current item.
func (cs *CurrentState) UpNext() string {
	switch cs.Mode {
	case ModeDowntime:
		if cs.Downtime != nil && cs.Downtime.Phase() == PhaseGrip && cs.Downtime.PausedState != nil {
			return cs.Downtime.PausedState.Activity
		}
		return ""
	case ModeStrict:
		if cs.Timeline != nil {
			return cs.Timeline.Next.Name
		}
	}
	return ""
}

// Target returns the instant the current item ends, if known.
func (cs *CurrentState) Target() (time.Time, bool) {
	switch cs.Mode {
	case ModeDowntime:
		if cs.EndsAt != nil {
			return *cs.EndsAt, true
		}
	case ModeStrict:
		if cs.Timeline != nil && !cs.Timeline.Current.End.IsZero() {
			return cs.Timeline.Current.End, true
		}
	}
	return time.Time{}, false
}

// Countdown renders the time left until Target at now. It reads only the
// snapshot and never triggers a recompute.
func (cs *CurrentState) Countdown(now time.Time) string {
	target, ok := cs.Target()
	if !ok {
		return ""
	}
	return FormatCountdown(target, now)
}

// Progress returns how far through the current item now is.
func (cs *CurrentState) Progress(now time.Time) float64 {
	switch cs.Mode {
	case ModeStrict:
		if cs.Timeline != nil {
			return cs.Timeline.Progress(now)
		}
	case ModeDowntime:
		if cs.Downtime == nil || cs.EndsAt == nil || cs.Downtime.ActivityStartTime == nil {
			return 0
		}
		total := cs.EndsAt.Sub(*cs.Downtime.ActivityStartTime)
		if total <= 0 {
			return 0
		}
		p := float64(now.Sub(*cs.Downtime.ActivityStartTime)) / float64(total)
		if p < 0 {
			return 0
		}
		if p > 1 {
			return 1
		}
		return p
	}
	return 0
}
