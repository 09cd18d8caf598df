package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time {
	return &t
}

func tick(t *testing.T, s DowntimeState, now time.Time) (DowntimeState, TickResult) {
	t.Helper()
	next, res, err := s.Tick(now, DefaultDowntimeConfig())
	require.NoError(t, err)
	return next, res
}

func TestDowntimeFirstTickStartsWithGrip(t *testing.T) {
	s := NewDowntimeState(DefaultDowntimeActivities, true)
	assert.Equal(t, PhaseIdle, s.Phase())

	s, res := tick(t, s, t0)
	assert.Equal(t, TransitionGripStart, res.Transition)
	assert.True(t, res.Notify)
	assert.Equal(t, ActivityGrip, s.CurrentActivity)
	assert.Nil(t, s.PausedState)

	s, res = tick(t, s, t0.Add(61*time.Second))
	assert.Equal(t, TransitionGripResume, res.Transition)
	assert.True(t, res.Notify)
	assert.Equal(t, "Quran", s.CurrentActivity)
	assert.Equal(t, 0, s.CurrentActivityIndex)
	assert.True(t, s.QuranTurn)
	assert.Equal(t, t0.Add(61*time.Second), *s.LastGripTime)
}

func TestDowntimeGripPreservesRemainingTime(t *testing.T) {
	s := DowntimeState{
		Activities:           DefaultDowntimeActivities,
		CurrentActivityIndex: 0,
		CurrentActivity:      "Quran",
		ActivityStartTime:    ptr(t0),
		LastGripTime:         ptr(t0.Add(-20 * time.Minute)),
		GripStrengthEnabled:  true,
		QuranTurn:            true,
		LastNotifiedActivity: "Quran",
	}

	// Ten minutes into the activity the cooldown runs out.
	interrupt := t0.Add(10 * time.Minute)
	s, res := tick(t, s, interrupt)
	require.Equal(t, TransitionGripStart, res.Transition)
	assert.True(t, res.Notify)
	assert.Equal(t, ActivityGrip, s.CurrentActivity)
	require.NotNil(t, s.PausedState)
	assert.Equal(t, "Quran", s.PausedState.Activity)
	assert.Equal(t, 20*time.Minute, s.PausedState.RemainingTime)

	// Mid-grip ticks change nothing.
	mid, res := tick(t, s, interrupt.Add(30*time.Second))
	assert.Equal(t, TransitionNone, res.Transition)
	assert.False(t, res.Notify)
	assert.Equal(t, s, mid)

	resume := interrupt.Add(61 * time.Second)
	s, res = tick(t, s, resume)
	require.Equal(t, TransitionGripResume, res.Transition)
	assert.True(t, res.Notify)
	assert.Equal(t, "Quran", s.CurrentActivity)
	assert.Nil(t, s.PausedState)
	assert.Equal(t, 0, s.CurrentActivityIndex)
	assert.True(t, s.QuranTurn, "resume must not advance the turn")

	ends, ok := s.EndsAt(DefaultDowntimeConfig())
	require.True(t, ok)
	assert.Equal(t, 20*time.Minute, ends.Sub(resume))
	assert.Equal(t, resume, *s.LastGripTime)
}

func TestDowntimeRotationAlternates(t *testing.T) {
	s := NewDowntimeState(DefaultDowntimeActivities, false)
	cfg := DefaultDowntimeConfig()

	want := []struct {
		activity  string
		quranTurn bool
	}{
		{"Quran", true},
		{"Problem Solving", false},
		{"Quran", true},
		{"Problem Solving", false},
	}

	now := t0
	for i, w := range want {
		var res TickResult
		s, res = tick(t, s, now)
		assert.Equal(t, TransitionAdvance, res.Transition, "step %d", i)
		assert.Equal(t, w.activity, s.CurrentActivity, "step %d", i)
		assert.Equal(t, w.quranTurn, s.QuranTurn, "step %d", i)

		// A tick before the budget runs out changes nothing.
		same, res := tick(t, s, now.Add(cfg.RotationDuration-time.Second))
		assert.Equal(t, TransitionNone, res.Transition)
		assert.Equal(t, s, same)

		now = now.Add(cfg.RotationDuration)
	}
}

func TestDowntimeAlternationSurvivesGrip(t *testing.T) {
	cfg := DowntimeConfig{
		RotationDuration: 30 * time.Minute,
		GripDuration:     time.Minute,
		GripCooldown:     20 * time.Minute,
	}
	s := NewDowntimeState(DefaultDowntimeActivities, true)

	var turns []bool
	var names []string
	resumes := 0
	now := t0
	for step := 0; step < 240; step++ {
		next, res, err := s.Tick(now, cfg)
		require.NoError(t, err)
		if res.Transition == TransitionGripResume && s.PausedState != nil {
			resumes++
		}
		if next.CurrentActivity != s.CurrentActivity && next.CurrentActivity != ActivityGrip {
			turns = append(turns, next.QuranTurn)
			names = append(names, next.CurrentActivity)
		}
		s = next
		now = now.Add(time.Minute)
	}

	require.NotZero(t, resumes, "expected at least one paused activity to resume")
	for i := 1; i < len(turns); i++ {
		if names[i] == names[i-1] {
			// Resuming after a grip restores the same activity and turn.
			assert.Equal(t, turns[i-1], turns[i], "step %d", i)
			continue
		}
		assert.NotEqual(t, turns[i-1], turns[i], "turn must flip on a genuine completion at %d", i)
	}
}

func TestDowntimeGripAfterCompletedActivityAdvances(t *testing.T) {
	s := DowntimeState{
		Activities:           DefaultDowntimeActivities,
		CurrentActivityIndex: 0,
		CurrentActivity:      "Quran",
		ActivityStartTime:    ptr(t0),
		LastGripTime:         ptr(t0),
		GripStrengthEnabled:  true,
		QuranTurn:            true,
		LastNotifiedActivity: "Quran",
	}

	s, res := tick(t, s, t0.Add(30*time.Minute))
	require.Equal(t, TransitionGripStart, res.Transition)
	assert.Nil(t, s.PausedState)
	assert.Equal(t, 1, s.CurrentActivityIndex)
	assert.False(t, s.QuranTurn)

	s, _ = tick(t, s, t0.Add(31*time.Minute))
	assert.Equal(t, "Problem Solving", s.CurrentActivity)
	assert.Equal(t, t0.Add(31*time.Minute), *s.ActivityStartTime)
}

func TestDowntimeLateTickSelfHeals(t *testing.T) {
	s := DowntimeState{
		Activities:           []string{"A", "B", "C"},
		CurrentActivityIndex: 0,
		CurrentActivity:      "A",
		ActivityStartTime:    ptr(t0),
		LastNotifiedActivity: "A",
	}

	late := t0.Add(95 * time.Minute)
	s, res := tick(t, s, late)
	assert.Equal(t, TransitionAdvance, res.Transition)
	assert.Equal(t, "B", s.CurrentActivity)
	assert.Equal(t, late, *s.ActivityStartTime)
}

func TestDowntimeTickDoesNotMutateReceiver(t *testing.T) {
	start := t0
	s := DowntimeState{
		Activities:           []string{"A", "B"},
		CurrentActivityIndex: 0,
		CurrentActivity:      "A",
		ActivityStartTime:    &start,
		GripStrengthEnabled:  true,
	}

	_, _ = tick(t, s, t0.Add(5*time.Minute))
	assert.Equal(t, "A", s.CurrentActivity)
	assert.Nil(t, s.PausedState)
	assert.Equal(t, t0, *s.ActivityStartTime)
}

func TestDowntimeOutOfRangeIndexRestarts(t *testing.T) {
	s := DowntimeState{
		Activities:           []string{"A"},
		CurrentActivityIndex: 4,
		CurrentActivity:      "Gone",
		ActivityStartTime:    ptr(t0.Add(-time.Hour)),
	}
	s, res := tick(t, s, t0)
	assert.Equal(t, TransitionAdvance, res.Transition)
	assert.Equal(t, "A", s.CurrentActivity)
	assert.Equal(t, 0, s.CurrentActivityIndex)
}

func TestDowntimeValidation(t *testing.T) {
	tests := []struct {
		name       string
		activities []string
	}{
		{name: "empty", activities: nil},
		{name: "blank name", activities: []string{"Quran", ""}},
		{name: "starting sentinel", activities: []string{ActivityStarting}},
		{name: "grip sentinel", activities: []string{ActivityGrip}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDowntimeState(tt.activities, true)
			_, _, err := s.Tick(t0, DefaultDowntimeConfig())
			assert.ErrorIs(t, err, ErrConfigInvalid)
		})
	}
}

func TestPausedStateJSON(t *testing.T) {
	data, err := json.Marshal(PausedState{Activity: "Quran", RemainingTime: 20 * time.Minute})
	require.NoError(t, err)
	assert.JSONEq(t, `{"activity":"Quran","remainingTimeMs":1200000}`, string(data))

	var p PausedState
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, 20*time.Minute, p.RemainingTime)
}

func TestDowntimeEndGrip(t *testing.T) {
	s := DowntimeState{
		Activities:           DefaultDowntimeActivities,
		CurrentActivityIndex: 1,
		CurrentActivity:      ActivityGrip,
		ActivityStartTime:    ptr(t0),
		GripStrengthEnabled:  true,
		PausedState:          &PausedState{Activity: "Problem Solving", RemainingTime: 5 * time.Minute},
	}

	now := t0.Add(20 * time.Second)
	next := s.EndGrip(now, DefaultDowntimeConfig())
	assert.Equal(t, "Problem Solving", next.CurrentActivity)
	assert.Nil(t, next.PausedState)
	ends, ok := next.EndsAt(DefaultDowntimeConfig())
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, ends.Sub(now))
	assert.Equal(t, ActivityGrip, s.CurrentActivity, "receiver must not change")

	rotating := next.EndGrip(now.Add(time.Minute), DefaultDowntimeConfig())
	assert.Equal(t, next, rotating)
}
