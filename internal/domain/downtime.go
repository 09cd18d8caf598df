package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sentinel activity names that are not part of the rotation.
const (
	ActivityStarting = "Starting"
	ActivityGrip     = "Grip Strength Training"
)

// DefaultDowntimeActivities is the rotation used until the user configures one.
var DefaultDowntimeActivities = []string{"Quran", "Problem Solving"}

// DowntimeConfig holds the timing parameters of the downtime rotation.
type DowntimeConfig struct {
	RotationDuration time.Duration
	GripDuration     time.Duration
	GripCooldown     time.Duration
}

// DefaultDowntimeConfig returns the standard 30 minute rotation with a one
// minute grip interrupt every 30 minutes.
func DefaultDowntimeConfig() DowntimeConfig {
	return DowntimeConfig{
		RotationDuration: 30 * time.Minute,
		GripDuration:     time.Minute,
		GripCooldown:     30 * time.Minute,
	}
}

// DowntimePhase is the derived state of the machine.
type DowntimePhase string

const (
	PhaseIdle     DowntimePhase = "idle"
	PhaseRotation DowntimePhase = "rotation"
	PhaseGrip     DowntimePhase = "grip"
)

// PausedState records a rotation activity preempted by a grip interrupt.
type PausedState struct {
	Activity      string        `json:"activity"`
	RemainingTime time.Duration `json:"-"`
}

type pausedStateJSON struct {
	Activity        string `json:"activity"`
	RemainingTimeMs int64  `json:"remainingTimeMs"`
}

// MarshalJSON stores the remaining time in milliseconds.
func (p PausedState) MarshalJSON() ([]byte, error) {
	return json.Marshal(pausedStateJSON{
		Activity:        p.Activity,
		RemainingTimeMs: p.RemainingTime.Milliseconds(),
	})
}

// UnmarshalJSON reads the remaining time from milliseconds.
func (p *PausedState) UnmarshalJSON(data []byte) error {
	var raw pausedStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Activity = raw.Activity
	p.RemainingTime = time.Duration(raw.RemainingTimeMs) * time.Millisecond
	return nil
}

// DowntimeState is the persisted state of the downtime rotation.
type DowntimeState struct {
	Activities           []string     `json:"activities"`
	CurrentActivityIndex int          `json:"currentActivityIndex"`
	CurrentActivity      string       `json:"currentActivity"`
	ActivityStartTime    *time.Time   `json:"activityStartTime,omitempty"`
	LastGripTime         *time.Time   `json:"lastGripTime,omitempty"`
	GripStrengthEnabled  bool         `json:"gripStrengthEnabled"`
	QuranTurn            bool         `json:"quranTurn"`
	PausedState          *PausedState `json:"pausedState,omitempty"`
	LastNotifiedActivity string       `json:"lastNotifiedActivity,omitempty"`
}

// NewDowntimeState creates a rotation that has not started yet.
func NewDowntimeState(activities []string, gripEnabled bool) DowntimeState {
	return DowntimeState{
		Activities:           append([]string(nil), activities...),
		CurrentActivityIndex: -1,
		CurrentActivity:      ActivityStarting,
		GripStrengthEnabled:  gripEnabled,
	}
}

// Validate checks that the rotation can run.
func (s DowntimeState) Validate() error {
	if len(s.Activities) == 0 {
		return fmt.Errorf("%w: downtime activity list is empty", ErrConfigInvalid)
	}
	for i, a := range s.Activities {
		if a == "" || a == ActivityStarting || a == ActivityGrip {
			return fmt.Errorf("%w: downtime activity %d has reserved or empty name %q", ErrConfigInvalid, i, a)
		}
	}
	return nil
}

// Phase derives which state the machine is in.
func (s DowntimeState) Phase() DowntimePhase {
	if s.ActivityStartTime == nil || s.CurrentActivity == "" || s.CurrentActivity == ActivityStarting {
		return PhaseIdle
	}
	if s.CurrentActivity == ActivityGrip {
		return PhaseGrip
	}
	return PhaseRotation
}

// Elapsed returns how long the current activity has been running at now.
func (s DowntimeState) Elapsed(now time.Time) time.Duration {
	if s.ActivityStartTime == nil {
		return 0
	}
	return now.Sub(*s.ActivityStartTime)
}

// EndsAt returns when the current activity runs out of budget.
func (s DowntimeState) EndsAt(cfg DowntimeConfig) (time.Time, bool) {
	if s.ActivityStartTime == nil {
		return time.Time{}, false
	}
	switch s.Phase() {
	case PhaseGrip:
		return s.ActivityStartTime.Add(cfg.GripDuration), true
	case PhaseRotation:
		return s.ActivityStartTime.Add(cfg.RotationDuration), true
	}
	return time.Time{}, false
}

// TurnActivity returns the rotation activity whose turn it currently is.
func (s DowntimeState) TurnActivity() string {
	if s.CurrentActivityIndex < 0 || s.CurrentActivityIndex >= len(s.Activities) {
		return ""
	}
	return s.Activities[s.CurrentActivityIndex]
}

// TickResult describes what a tick did.
type TickResult struct {
	Transition DowntimeTransition
	Notify     bool
}

// DowntimeTransition names the rule that fired on a tick.
type DowntimeTransition string

const (
	TransitionNone       DowntimeTransition = "none"
	TransitionGripStart  DowntimeTransition = "grip_start"
	TransitionGripResume DowntimeTransition = "grip_resume"
	TransitionAdvance    DowntimeTransition = "advance"
)

// Tick evaluates the rotation rules at now in priority order and returns the
// new state. State is derived from absolute timestamps, so ticks may arrive
// at any spacing. The receiver is not modified.
func (s DowntimeState) Tick(now time.Time, cfg DowntimeConfig) (DowntimeState, TickResult, error) {
	if err := s.Validate(); err != nil {
		return s, TickResult{Transition: TransitionNone}, err
	}
	next := s.clone()
	if next.CurrentActivityIndex >= len(next.Activities) {
		next.CurrentActivityIndex = -1
	}

	transition := TransitionNone
	phase := next.Phase()
	switch {
	case phase == PhaseGrip:
		if next.Elapsed(now) >= cfg.GripDuration {
			next.resumeAfterGrip(now, cfg)
			transition = TransitionGripResume
		}
	case next.GripStrengthEnabled && (next.LastGripTime == nil || now.Sub(*next.LastGripTime) >= cfg.GripCooldown):
		next.startGrip(now, cfg)
		transition = TransitionGripStart
	case phase == PhaseIdle || next.Elapsed(now) >= cfg.RotationDuration:
		next.advance(now)
		transition = TransitionAdvance
	}

	result := TickResult{Transition: transition}
	if next.CurrentActivity != next.LastNotifiedActivity {
		next.LastNotifiedActivity = next.CurrentActivity
		result.Notify = true
	}
	return next, result, nil
}

// EndGrip cuts a running grip interrupt short and resumes the rotation at
// now. Outside the grip phase the state is returned unchanged.
func (s DowntimeState) EndGrip(now time.Time, cfg DowntimeConfig) DowntimeState {
	if s.Phase() != PhaseGrip || len(s.Activities) == 0 {
		return s
	}
	next := s.clone()
	if next.CurrentActivityIndex >= len(next.Activities) {
		next.CurrentActivityIndex = -1
	}
	next.resumeAfterGrip(now, cfg)
	return next
}

// startGrip preempts the running rotation activity.
func (s *DowntimeState) startGrip(now time.Time, cfg DowntimeConfig) {
	if s.Phase() == PhaseRotation {
		elapsed := s.Elapsed(now)
		if elapsed < cfg.RotationDuration {
			s.PausedState = &PausedState{
				Activity:      s.CurrentActivity,
				RemainingTime: cfg.RotationDuration - elapsed,
			}
		} else {
			// The activity used its whole budget, so it completed.
			s.PausedState = nil
			s.advanceTurn()
		}
	}
	start := now
	s.CurrentActivity = ActivityGrip
	s.ActivityStartTime = &start
}

// resumeAfterGrip restores the preempted activity with its remaining budget,
// or starts the current turn afresh. The turn itself is not advanced.
func (s *DowntimeState) resumeAfterGrip(now time.Time, cfg DowntimeConfig) {
	if s.CurrentActivityIndex < 0 {
		s.advanceTurn()
	}

	start := now
	activity := s.TurnActivity()
	if s.PausedState != nil {
		activity = s.PausedState.Activity
		used := cfg.RotationDuration - s.PausedState.RemainingTime
		start = now.Add(-used)
	}

	s.CurrentActivity = activity
	s.ActivityStartTime = &start
	s.PausedState = nil
	grip := now
	s.LastGripTime = &grip
}

// advance moves to the next rotation activity after a genuine completion.
func (s *DowntimeState) advance(now time.Time) {
	s.advanceTurn()
	start := now
	s.CurrentActivity = s.TurnActivity()
	s.ActivityStartTime = &start
	s.PausedState = nil
}

func (s *DowntimeState) advanceTurn() {
	s.QuranTurn = !s.QuranTurn
	s.CurrentActivityIndex = (s.CurrentActivityIndex + 1) % len(s.Activities)
}

func (s DowntimeState) clone() DowntimeState {
	c := s
	c.Activities = append([]string(nil), s.Activities...)
	if s.ActivityStartTime != nil {
		t := *s.ActivityStartTime
		c.ActivityStartTime = &t
	}
	if s.LastGripTime != nil {
		t := *s.LastGripTime
		c.LastGripTime = &t
	}
	if s.PausedState != nil {
		p := *s.PausedState
		c.PausedState = &p
	}
	return c
}
