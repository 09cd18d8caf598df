// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// errNoChange lets an update function skip the write.
var errNoChange = errors.New("no change")

// minIDPrefix is the shortest id prefix accepted as an activity reference.
const minIDPrefix = 4

// SettingsService handles reading and changing the settings document.
type SettingsService struct {
	storage ports.Storage
	cfg     *config.Config
	now     func() time.Time
}

// NewSettingsService creates a new settings service. A nil config uses
// defaults.
func NewSettingsService(storage ports.Storage, cfg *config.Config) *SettingsService {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &SettingsService{storage: storage, cfg: cfg, now: time.Now}
}

// Load returns the stored settings or domain.ErrSettingsNotFound.
func (s *SettingsService) Load(ctx context.Context) (*domain.UserSettings, error) {
	return s.storage.Settings().Get(ctx)
}

// Update reads the settings, applies fn and writes the result back.
// Returning errNoChange from fn skips the write.
func (s *SettingsService) Update(ctx context.Context, fn func(*domain.UserSettings) error) (*domain.UserSettings, error) {
	settings, err := s.storage.Settings().Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(settings); err != nil {
		if errors.Is(err, errNoChange) {
			return settings, nil
		}
		return nil, err
	}
	settings.UpdatedAt = s.now()
	if err := s.storage.Settings().Set(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// SetupRequest contains the location for first-time setup.
type SetupRequest struct {
	Latitude  float64
	Longitude float64
	City      string
	Timezone  string
}

// Setup stores the location. Existing settings keep everything else; new
// settings start from the configured defaults.
func (s *SettingsService) Setup(ctx context.Context, req SetupRequest) (*domain.UserSettings, error) {
	loc := domain.Location{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		City:      strings.TrimSpace(req.City),
		Timezone:  strings.TrimSpace(req.Timezone),
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.Update(ctx, func(us *domain.UserSettings) error {
		us.Location = &loc
		return nil
	})
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, domain.ErrSettingsNotFound) {
		return nil, err
	}

	settings, err = domain.NewUserSettings(loc, s.now())
	if err != nil {
		return nil, err
	}
	s.applyDefaults(settings)
	if err := s.storage.Settings().Set(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// applyDefaults seeds new settings from the config file.
func (s *SettingsService) applyDefaults(us *domain.UserSettings) {
	if mode, err := domain.ValidateMode(s.cfg.Mode); err == nil {
		us.Mode = mode
	}
	if m := s.cfg.Schedule.PrayerMinutes; m > 0 {
		for i := range us.Schedule {
			if us.Schedule[i].IsPrayer() {
				minutes := m
				us.Schedule[i].Duration = &minutes
			}
		}
	}
	if len(s.cfg.Downtime.Activities) > 0 {
		us.Downtime = domain.NewDowntimeState(s.cfg.Downtime.Activities, s.cfg.Downtime.GripEnabled)
	}
}

// SetMode switches between strict and downtime mode.
func (s *SettingsService) SetMode(ctx context.Context, mode domain.ScheduleMode) error {
	if _, err := domain.ValidateMode(string(mode)); err != nil {
		return err
	}
	_, err := s.Update(ctx, func(us *domain.UserSettings) error {
		if us.Mode == mode {
			return errNoChange
		}
		us.Mode = mode
		return nil
	})
	return err
}

// SetMealMode switches between normal and fasting meal tracking.
func (s *SettingsService) SetMealMode(ctx context.Context, mode domain.MealMode) error {
	if _, err := domain.ValidateMealMode(string(mode)); err != nil {
		return err
	}
	_, err := s.Update(ctx, func(us *domain.UserSettings) error {
		us.MealMode = mode
		return nil
	})
	return err
}

// LogMeal records a meal at the current time.
func (s *SettingsService) LogMeal(ctx context.Context, name, notes string) (domain.MealEntry, error) {
	var entry domain.MealEntry
	_, err := s.Update(ctx, func(us *domain.UserSettings) error {
		var err error
		entry, err = us.LogMeal(name, notes, s.now())
		return err
	})
	return entry, err
}

// ListActivities returns the ordered daily loop.
func (s *SettingsService) ListActivities(ctx context.Context) ([]domain.CustomActivity, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return settings.Schedule, nil
}

// AddActivityRequest contains the data needed to add an activity.
type AddActivityRequest struct {
	Name        string
	Type        domain.ActivityType
	Minutes     *int
	Description string
	// After is an activity id or name; empty appends at the end.
	After string
}

// AddActivity inserts a new activity into the daily loop.
func (s *SettingsService) AddActivity(ctx context.Context, req AddActivityRequest) (domain.CustomActivity, error) {
	activity, err := domain.NewActivity(req.Name, req.Type, req.Minutes)
	if err != nil {
		return domain.CustomActivity{}, fmt.Errorf("invalid activity: %w", err)
	}
	activity.Description = strings.TrimSpace(req.Description)

	_, err = s.Update(ctx, func(us *domain.UserSettings) error {
		afterID := ""
		if req.After != "" {
			after, err := ResolveActivity(us.Schedule, req.After)
			if err != nil {
				return err
			}
			afterID = after.ID
		}
		return us.InsertActivity(activity, afterID)
	})
	if err != nil {
		return domain.CustomActivity{}, err
	}
	return activity, nil
}

// RemoveActivity deletes the activity matching ref.
func (s *SettingsService) RemoveActivity(ctx context.Context, ref string) (domain.CustomActivity, error) {
	var removed domain.CustomActivity
	_, err := s.Update(ctx, func(us *domain.UserSettings) error {
		a, err := ResolveActivity(us.Schedule, ref)
		if err != nil {
			return err
		}
		removed, err = us.RemoveActivity(a.ID)
		return err
	})
	return removed, err
}

// MoveActivity moves the activity matching ref to position to.
func (s *SettingsService) MoveActivity(ctx context.Context, ref string, to int) error {
	_, err := s.Update(ctx, func(us *domain.UserSettings) error {
		a, err := ResolveActivity(us.Schedule, ref)
		if err != nil {
			return err
		}
		return us.MoveActivity(a.ID, to)
	})
	return err
}

// SetDowntimeActivities replaces the rotation and restarts it.
func (s *SettingsService) SetDowntimeActivities(ctx context.Context, activities []string) (*domain.DowntimeState, error) {
	cleaned := make([]string, 0, len(activities))
	for _, a := range activities {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	settings, err := s.Update(ctx, func(us *domain.UserSettings) error {
		next := domain.NewDowntimeState(cleaned, us.Downtime.GripStrengthEnabled)
		if err := next.Validate(); err != nil {
			return err
		}
		us.Downtime = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settings.Downtime, nil
}

// SetGrip enables or disables grip strength interrupts.
func (s *SettingsService) SetGrip(ctx context.Context, enabled bool) error {
	_, err := s.Update(ctx, func(us *domain.UserSettings) error {
		us.Downtime.GripStrengthEnabled = enabled
		if !enabled {
			us.Downtime = us.Downtime.EndGrip(s.now(), s.cfg.Downtime.ToDomain())
		}
		return nil
	})
	return err
}

// Reset deletes all stored settings.
func (s *SettingsService) Reset(ctx context.Context) error {
	return s.storage.Settings().Delete(ctx)
}

// ResolveActivity finds an activity by id, id prefix, exact name, or a
// fuzzy name match, in that order.
func ResolveActivity(schedule []domain.CustomActivity, ref string) (domain.CustomActivity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.CustomActivity{}, fmt.Errorf("%w: empty reference", domain.ErrActivityNotFound)
	}

	for _, a := range schedule {
		if a.ID == ref {
			return a, nil
		}
	}
	for _, a := range schedule {
		if strings.EqualFold(a.Name, ref) {
			return a, nil
		}
	}
	if len(ref) >= minIDPrefix {
		var match *domain.CustomActivity
		for i := range schedule {
			if strings.HasPrefix(schedule[i].ID, ref) {
				if match != nil {
					return domain.CustomActivity{}, fmt.Errorf("%w: id prefix %q is ambiguous", domain.ErrActivityNotFound, ref)
				}
				match = &schedule[i]
			}
		}
		if match != nil {
			return *match, nil
		}
	}

	// Perform fuzzy search
	names := make([]string, len(schedule))
	for i, a := range schedule {
		names[i] = a.Name
	}
	matches := fuzzy.Find(ref, names)
	if len(matches) > 0 && matches[0].Score > 0 {
		return schedule[matches[0].Index], nil
	}
	return domain.CustomActivity{}, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, ref)
}
