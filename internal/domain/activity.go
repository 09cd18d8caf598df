package domain

import (
	"fmt"
	"strings"
)

// ActivityType distinguishes fixed-length activities from stretchable ones.
type ActivityType string

const (
	ActivityAction ActivityType = "action"
	ActivityFiller ActivityType = "filler"
)

// DefaultPrayerMinutes is the length of a prayer item unless the activity
// overrides it.
const DefaultPrayerMinutes = 15

// ValidateActivityType checks if a string is a valid activity type.
func ValidateActivityType(s string) (ActivityType, error) {
	t := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ActivityAction, ActivityFiller:
		return t, nil
	}
	return "", fmt.Errorf("%w: activity type %q must be action or filler", ErrConfigInvalid, s)
}

// CustomActivity is one entry of the user's ordered daily loop. Prayer
// entries use the fixed prayer ids.
type CustomActivity struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        ActivityType `json:"type"`
	Duration    *int         `json:"duration,omitempty"`
	Description string       `json:"description,omitempty"`
}

// NewActivity creates a user activity with a fresh id.
func NewActivity(name string, t ActivityType, minutes *int) (CustomActivity, error) {
	a := CustomActivity{
		ID:       generateID(),
		Name:     strings.TrimSpace(name),
		Type:     t,
		Duration: minutes,
	}
	if err := a.validate(); err != nil {
		return CustomActivity{}, err
	}
	return a, nil
}

// IsPrayer reports whether the activity is one of the five prayer anchors.
func (a CustomActivity) IsPrayer() bool {
	return IsPrayerID(a.ID)
}

// Minutes returns the configured duration, or 0 when unset.
func (a CustomActivity) Minutes() int {
	if a.Duration == nil {
		return 0
	}
	return *a.Duration
}

func (a CustomActivity) validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: activity %q has no id", ErrConfigInvalid, a.Name)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: activity %s has no name", ErrConfigInvalid, a.ID)
	}
	if a.Duration != nil && *a.Duration < 0 {
		return fmt.Errorf("%w: activity %q has negative duration", ErrConfigInvalid, a.Name)
	}
	if a.IsPrayer() {
		return nil
	}
	switch a.Type {
	case ActivityAction:
		if a.Minutes() <= 0 {
			return fmt.Errorf("%w: action %q needs a positive duration", ErrConfigInvalid, a.Name)
		}
	case ActivityFiller:
	default:
		return fmt.Errorf("%w: activity %q has unknown type %q", ErrConfigInvalid, a.Name, a.Type)
	}
	return nil
}

// PrayerActivity returns the schedule entry for a prayer.
func PrayerActivity(p PrayerName) CustomActivity {
	minutes := DefaultPrayerMinutes
	return CustomActivity{
		ID:       string(p),
		Name:     p.Label(),
		Type:     ActivityAction,
		Duration: &minutes,
	}
}

// DefaultSchedule returns the five prayers in day order with nothing between.
func DefaultSchedule() []CustomActivity {
	schedule := make([]CustomActivity, 0, len(PrayerOrder))
	for _, p := range PrayerOrder {
		schedule = append(schedule, PrayerActivity(p))
	}
	return schedule
}

// ValidateSchedule checks that the ordered activity list contains every
// prayer exactly once in day order, and that every other entry is usable.
func ValidateSchedule(activities []CustomActivity) error {
	seen := make(map[string]int, len(activities))
	nextPrayer := 0
	for i, a := range activities {
		if err := a.validate(); err != nil {
			return fmt.Errorf("activity %d: %w", i, err)
		}
		if j, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate activity id %q at %d and %d", ErrConfigInvalid, a.ID, j, i)
		}
		seen[a.ID] = i

		if !a.IsPrayer() {
			continue
		}
		if nextPrayer >= len(PrayerOrder) || PrayerName(a.ID) != PrayerOrder[nextPrayer] {
			return fmt.Errorf("%w: prayer %q at %d is out of day order", ErrConfigInvalid, a.ID, i)
		}
		nextPrayer++
	}
	if nextPrayer < len(PrayerOrder) {
		return fmt.Errorf("%w: missing prayer anchor %q", ErrConfigInvalid, PrayerOrder[nextPrayer])
	}
	return nil
}
