package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/modes"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// Engine runs the coarse refresh: it loads settings, builds the timeline
// or ticks the rotation depending on the mode, and returns a snapshot.
type Engine struct {
	settings *SettingsService
	schedule *ScheduleService
	downtime *DowntimeService
	notifier ports.Notifier
	cfg      *config.Config
	now      func() time.Time
}

// Ensure Engine implements ports.MCPStateProvider.
var _ ports.MCPStateProvider = (*Engine)(nil)

// NewEngine creates a new engine.
func NewEngine(settings *SettingsService, schedule *ScheduleService, downtime *DowntimeService, notifier ports.Notifier, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Engine{
		settings: settings,
		schedule: schedule,
		downtime: downtime,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Settings returns the settings service the engine reads from.
func (e *Engine) Settings() *SettingsService {
	return e.settings
}

// Schedule returns the schedule service.
func (e *Engine) Schedule() *ScheduleService {
	return e.schedule
}

// Downtime returns the downtime service.
func (e *Engine) Downtime() *DowntimeService {
	return e.downtime
}

// Refresh recomputes the state at now. In downtime mode the rotation is
// ticked and persisted; in strict mode a change of the current item is
// announced through the notifier.
func (e *Engine) Refresh(ctx context.Context, now time.Time) (*domain.CurrentState, error) {
	return e.compute(ctx, now, true)
}

// Snapshot computes the state at now without changing anything.
func (e *Engine) Snapshot(ctx context.Context, now time.Time) (*domain.CurrentState, error) {
	return e.compute(ctx, now, false)
}

func (e *Engine) compute(ctx context.Context, now time.Time, advance bool) (*domain.CurrentState, error) {
	settings, err := e.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	mode := modes.ForMode(settings.Mode, e.cfg)

	state := &domain.CurrentState{
		Mode:     mode.Name(),
		Location: settings.Location,
		Computed: now,
		Tick:     domain.TransitionNone,
	}
	zone := time.Local
	if z, err := settings.Zone(); err == nil {
		zone = z
	}
	state.MealsToday = len(settings.MealsOn(now, zone))

	if mode.NeedsPrayerTimes() {
		tl, _, err := e.schedule.Timeline(ctx, settings, now)
		if err != nil {
			return nil, err
		}
		state.Timeline = tl
		if advance {
			if state.Notified, err = e.announce(ctx, settings, mode, tl, now); err != nil {
				return nil, err
			}
		}
	}

	if mode.AdvancesRotation() {
		out := e.downtime.outcome(settings.Downtime, domain.TickResult{Transition: domain.TransitionNone})
		if advance {
			if out, err = e.downtime.Tick(ctx, now); err != nil {
				return nil, err
			}
		}
		ds := out.State
		state.Downtime = &ds
		state.EndsAt = out.EndsAt
		state.Tick = out.Result.Transition
		state.Notified = out.Notified
	}
	return state, nil
}

// announce notifies when the current timeline item differs from the one
// stored by the previous refresh, which may have run in another process.
// With nothing stored yet the item is only recorded.
func (e *Engine) announce(ctx context.Context, settings *domain.UserSettings, mode modes.Mode, tl *domain.Timeline, now time.Time) (bool, error) {
	prev := settings.LastAnnouncedItem
	if prev == tl.Current.ID {
		return false, nil
	}
	id := tl.Current.ID
	if _, err := e.settings.Update(ctx, func(us *domain.UserSettings) error {
		us.LastAnnouncedItem = id
		return nil
	}); err != nil {
		return false, fmt.Errorf("failed to record announced item: %w", err)
	}

	if e.notifier == nil || prev == "" || tl.Current.IsSynthetic() {
		return false, nil
	}
	text := fmt.Sprintf("Until %s (%s), then %s",
		tl.Current.End.Format("15:04"), domain.FormatCountdown(tl.Current.End, now), tl.Next.Name)
	if err := e.notifier.Send(ctx, mode.NotificationTitle(tl.Current.Name), text); err != nil {
		log.Warn().Err(err).Str("item", tl.Current.ID).Msg("timeline notification failed")
		return false, nil
	}
	return true, nil
}

// GetCurrentState returns a read-only snapshot at the current time.
func (e *Engine) GetCurrentState(ctx context.Context) (*domain.CurrentState, error) {
	return e.Snapshot(ctx, e.now())
}

// GetTimeline builds the timeline at the current time in either mode.
func (e *Engine) GetTimeline(ctx context.Context) (*domain.Timeline, error) {
	settings, err := e.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	tl, _, err := e.schedule.Timeline(ctx, settings, e.now())
	return tl, err
}

// GetDowntimeState returns the stored rotation without advancing it.
func (e *Engine) GetDowntimeState(ctx context.Context) (*domain.DowntimeState, *time.Time, error) {
	out, err := e.downtime.State(ctx)
	if err != nil {
		return nil, nil, err
	}
	ds := out.State
	return &ds, out.EndsAt, nil
}

// Tick runs a coarse refresh at the current time.
func (e *Engine) Tick(ctx context.Context) (*domain.CurrentState, error) {
	return e.Refresh(ctx, e.now())
}

// SetMode switches the schedule mode.
func (e *Engine) SetMode(ctx context.Context, mode domain.ScheduleMode) error {
	return e.settings.SetMode(ctx, mode)
}

// ToggleMode flips between strict and downtime and returns the new mode.
func (e *Engine) ToggleMode(ctx context.Context) (domain.ScheduleMode, error) {
	settings, err := e.settings.Load(ctx)
	if err != nil {
		return "", err
	}
	next := domain.ModeDowntime
	if settings.Mode == domain.ModeDowntime {
		next = domain.ModeStrict
	}
	if err := e.settings.SetMode(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// ToggleGrip flips grip strength interrupts and returns the new setting.
func (e *Engine) ToggleGrip(ctx context.Context) (bool, error) {
	settings, err := e.settings.Load(ctx)
	if err != nil {
		return false, err
	}
	enabled := !settings.Downtime.GripStrengthEnabled
	if err := e.settings.SetGrip(ctx, enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// ListActivities returns the ordered daily loop.
func (e *Engine) ListActivities(ctx context.Context) ([]domain.CustomActivity, error) {
	return e.settings.ListActivities(ctx)
}

// AddActivity adds an activity after the one matching afterID.
func (e *Engine) AddActivity(ctx context.Context, name string, t domain.ActivityType, minutes *int, afterID string) (domain.CustomActivity, error) {
	return e.settings.AddActivity(ctx, AddActivityRequest{
		Name:    name,
		Type:    t,
		Minutes: minutes,
		After:   afterID,
	})
}
