package domain

import (
	"testing"
	"time"
)

func TestCurrentStateStrict(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 5, 0, 0, time.UTC)
	cs := &CurrentState{
		Mode: ModeStrict,
		Timeline: &Timeline{
			Current: ScheduleItem{Name: "Dhuhr", Start: now.Add(-5 * time.Minute), End: now.Add(10 * time.Minute)},
			Next:    ScheduleItem{Name: "Free Time"},
		},
	}

	if got := cs.Headline(); got != "Dhuhr" {
		t.Errorf("Headline() = %q, want Dhuhr", got)
	}
	if got := cs.UpNext(); got != "Free Time" {
		t.Errorf("UpNext() = %q, want Free Time", got)
	}
	if got := cs.Countdown(now); got != "10m 0s" {
		t.Errorf("Countdown() = %q, want 10m 0s", got)
	}
	if got := cs.Countdown(now.Add(time.Hour)); got != "Now" {
		t.Errorf("Countdown() past end = %q, want Now", got)
	}
}

func TestCurrentStateDowntime(t *testing.T) {
	start := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	ends := start.Add(time.Minute)
	cs := &CurrentState{
		Mode: ModeDowntime,
		Downtime: &DowntimeState{
			Activities:        []string{"Quran"},
			CurrentActivity:   ActivityGrip,
			ActivityStartTime: &start,
			PausedState:       &PausedState{Activity: "Quran", RemainingTime: 20 * time.Minute},
		},
		EndsAt: &ends,
	}

	if got := cs.Headline(); got != ActivityGrip {
		t.Errorf("Headline() = %q", got)
	}
	if got := cs.UpNext(); got != "Quran" {
		t.Errorf("UpNext() = %q, want Quran", got)
	}
	if got := cs.Countdown(start.Add(30 * time.Second)); got != "30s" {
		t.Errorf("Countdown() = %q, want 30s", got)
	}
	if got := cs.Progress(start.Add(30 * time.Second)); got != 0.5 {
		t.Errorf("Progress() = %v, want 0.5", got)
	}
}

func TestCurrentStateEmpty(t *testing.T) {
	cs := &CurrentState{Mode: ModeStrict}
	if got := cs.Headline(); got != ActivityStarting {
		t.Errorf("Headline() = %q", got)
	}
	if got := cs.Countdown(time.Now()); got != "" {
		t.Errorf("Countdown() = %q, want empty", got)
	}
}
