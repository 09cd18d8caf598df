package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ScheduleMode selects which engine drives the day.
type ScheduleMode string

const (
	ModeStrict   ScheduleMode = "strict"
	ModeDowntime ScheduleMode = "downtime"
)

// ValidateMode checks if a string is a valid schedule mode.
func ValidateMode(s string) (ScheduleMode, error) {
	m := ScheduleMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeStrict, ModeDowntime:
		return m, nil
	}
	return "", fmt.Errorf("%w: mode %q must be strict or downtime", ErrConfigInvalid, s)
}

// Label returns a human-readable label.
func (m ScheduleMode) Label() string {
	switch m {
	case ModeStrict:
		return "Strict"
	case ModeDowntime:
		return "Downtime"
	default:
		return "Unknown"
	}
}

// MealMode describes how meals are tracked.
type MealMode string

const (
	MealModeNormal  MealMode = "normal"
	MealModeFasting MealMode = "fasting"
)

// ValidateMealMode checks if a string is a valid meal mode.
func ValidateMealMode(s string) (MealMode, error) {
	m := MealMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MealModeNormal, MealModeFasting:
		return m, nil
	}
	return "", fmt.Errorf("%w: meal mode %q must be normal or fasting", ErrConfigInvalid, s)
}

// Location is where prayer times are computed for.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city,omitempty"`
	Timezone  string  `json:"timezone"`
}

// Validate checks coordinate ranges and the timezone name.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrConfigInvalid, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrConfigInvalid, l.Longitude)
	}
	if _, err := l.Zone(); err != nil {
		return err
	}
	return nil
}

// Zone loads the location's timezone. An empty name means local time.
func (l Location) Zone() (*time.Location, error) {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrConfigInvalid, l.Timezone)
	}
	return loc, nil
}

// MealEntry is one logged meal.
type MealEntry struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	At    time.Time `json:"at"`
	Notes string    `json:"notes,omitempty"`
}

// UserSettings is the durable root object. Top-level fields this version
// does not know about are kept and written back unchanged.
type UserSettings struct {
	Location  *Location        `json:"location,omitempty"`
	Mode      ScheduleMode     `json:"mode"`
	Schedule  []CustomActivity `json:"schedule"`
	MealMode  MealMode         `json:"mealMode"`
	Downtime  DowntimeState    `json:"downtime"`
	MealLog   []MealEntry      `json:"mealLog"`
	UpdatedAt time.Time        `json:"updatedAt"`

	// LastAnnouncedItem is the strict timeline item id seen by the last
	// refresh that could announce a change.
	LastAnnouncedItem string `json:"lastAnnouncedItem,omitempty"`

	extra map[string]json.RawMessage
}

var knownSettingsKeys = []string{"location", "mode", "schedule", "mealMode", "downtime", "mealLog", "updatedAt", "lastAnnouncedItem"}

// NewUserSettings creates settings for a first location setup at now.
func NewUserSettings(loc Location, now time.Time) (*UserSettings, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &UserSettings{
		Location:  &loc,
		Mode:      ModeStrict,
		Schedule:  DefaultSchedule(),
		MealMode:  MealModeNormal,
		Downtime:  NewDowntimeState(DefaultDowntimeActivities, true),
		MealLog:   []MealEntry{},
		UpdatedAt: now,
	}, nil
}

type settingsAlias UserSettings

// MarshalJSON writes known fields and any preserved unknown fields.
func (s UserSettings) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(settingsAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(s.extra)+len(knownSettingsKeys))
	for k, v := range s.extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads known fields and keeps the rest for the next write.
func (s *UserSettings) UnmarshalJSON(data []byte) error {
	var alias settingsAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	_, hasDowntime := fields["downtime"]
	for _, k := range knownSettingsKeys {
		delete(fields, k)
	}

	*s = UserSettings(alias)
	if len(fields) > 0 {
		s.extra = fields
	}
	if !hasDowntime {
		s.Downtime = NewDowntimeState(DefaultDowntimeActivities, true)
	}
	return nil
}

// Zone returns the timezone of the configured location.
func (s *UserSettings) Zone() (*time.Location, error) {
	if s.Location == nil {
		return nil, ErrLocationNotSet
	}
	return s.Location.Zone()
}

// ActivityIndex returns the position of the activity with the given id.
func (s *UserSettings) ActivityIndex(id string) int {
	for i, a := range s.Schedule {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// InsertActivity places a after the activity with id afterID, or at the end
// of the loop when afterID is empty.
func (s *UserSettings) InsertActivity(a CustomActivity, afterID string) error {
	if err := a.validate(); err != nil {
		return err
	}
	if a.IsPrayer() {
		return fmt.Errorf("%w: %q is a reserved prayer id", ErrConfigInvalid, a.ID)
	}
	if s.ActivityIndex(a.ID) >= 0 {
		return fmt.Errorf("%w: duplicate activity id %q", ErrConfigInvalid, a.ID)
	}

	pos := len(s.Schedule)
	if afterID != "" {
		i := s.ActivityIndex(afterID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrActivityNotFound, afterID)
		}
		pos = i + 1
	}
	s.Schedule = append(s.Schedule, CustomActivity{})
	copy(s.Schedule[pos+1:], s.Schedule[pos:])
	s.Schedule[pos] = a
	return nil
}

// RemoveActivity deletes a user activity. Prayers cannot be removed.
func (s *UserSettings) RemoveActivity(id string) (CustomActivity, error) {
	i := s.ActivityIndex(id)
	if i < 0 {
		return CustomActivity{}, fmt.Errorf("%w: %s", ErrActivityNotFound, id)
	}
	removed := s.Schedule[i]
	if removed.IsPrayer() {
		return CustomActivity{}, fmt.Errorf("%w: prayer %q cannot be removed", ErrConfigInvalid, id)
	}
	s.Schedule = append(s.Schedule[:i], s.Schedule[i+1:]...)
	return removed, nil
}

// MoveActivity moves the activity to index to, keeping the result a valid
// schedule.
func (s *UserSettings) MoveActivity(id string, to int) error {
	from := s.ActivityIndex(id)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrActivityNotFound, id)
	}
	if to < 0 || to >= len(s.Schedule) {
		return fmt.Errorf("%w: position %d out of range 0-%d", ErrConfigInvalid, to, len(s.Schedule)-1)
	}

	moved := make([]CustomActivity, 0, len(s.Schedule))
	a := s.Schedule[from]
	moved = append(moved, s.Schedule[:from]...)
	moved = append(moved, s.Schedule[from+1:]...)
	moved = append(moved[:to], append([]CustomActivity{a}, moved[to:]...)...)

	if err := ValidateSchedule(moved); err != nil {
		return err
	}
	s.Schedule = moved
	return nil
}

// LogMeal appends a meal entry.
func (s *UserSettings) LogMeal(name, notes string, at time.Time) (MealEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return MealEntry{}, fmt.Errorf("%w: meal name cannot be empty", ErrConfigInvalid)
	}
	e := MealEntry{ID: generateID(), Name: name, At: at, Notes: notes}
	s.MealLog = append(s.MealLog, e)
	return e, nil
}

// MealsOn returns the meals logged on the calendar day of day in loc.
func (s *UserSettings) MealsOn(day time.Time, loc *time.Location) []MealEntry {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()
	var out []MealEntry
	for _, e := range s.MealLog {
		ey, em, ed := e.At.In(loc).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out
}
