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

// TickOutcome is the persisted result of one downtime tick.
type TickOutcome struct {
	State    domain.DowntimeState
	Result   domain.TickResult
	EndsAt   *time.Time
	Notified bool
}

// DowntimeService drives the downtime rotation.
type DowntimeService struct {
	settings *SettingsService
	notifier ports.Notifier
	cfg      *config.Config
}

// NewDowntimeService creates a new downtime service. A nil notifier drops
// notifications.
func NewDowntimeService(settings *SettingsService, notifier ports.Notifier, cfg *config.Config) *DowntimeService {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &DowntimeService{settings: settings, notifier: notifier, cfg: cfg}
}

// Config returns the state machine timing.
func (s *DowntimeService) Config() domain.DowntimeConfig {
	return s.cfg.Downtime.ToDomain()
}

// State returns the stored rotation state without advancing it.
func (s *DowntimeService) State(ctx context.Context) (*TickOutcome, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.outcome(settings.Downtime, domain.TickResult{Transition: domain.TransitionNone}), nil
}

// Tick advances the rotation at now and persists the result. A pending
// notification is sent after the state is saved.
func (s *DowntimeService) Tick(ctx context.Context, now time.Time) (*TickOutcome, error) {
	return s.tick(ctx, now, nil)
}

// ForceGrip starts a grip interrupt at now regardless of the cooldown.
func (s *DowntimeService) ForceGrip(ctx context.Context, now time.Time) (*TickOutcome, error) {
	return s.tick(ctx, now, func(ds *domain.DowntimeState) error {
		if !ds.GripStrengthEnabled {
			return fmt.Errorf("%w: grip strength is disabled", domain.ErrConfigInvalid)
		}
		ds.LastGripTime = nil
		return nil
	})
}

func (s *DowntimeService) tick(ctx context.Context, now time.Time, prepare func(*domain.DowntimeState) error) (*TickOutcome, error) {
	var result domain.TickResult
	settings, err := s.settings.Update(ctx, func(us *domain.UserSettings) error {
		current := us.Downtime
		if prepare != nil {
			if err := prepare(&current); err != nil {
				return err
			}
		}
		next, res, err := current.Tick(now, s.Config())
		if err != nil {
			return fmt.Errorf("failed to tick downtime: %w", err)
		}
		result = res
		if res.Transition == domain.TransitionNone && !res.Notify && prepare == nil {
			return errNoChange
		}
		us.Downtime = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := s.outcome(settings.Downtime, result)
	if result.Notify {
		out.Notified = s.notify(ctx, out, now)
	}
	return out, nil
}

func (s *DowntimeService) outcome(ds domain.DowntimeState, res domain.TickResult) *TickOutcome {
	out := &TickOutcome{State: ds, Result: res}
	if ends, ok := ds.EndsAt(s.Config()); ok {
		out.EndsAt = &ends
	}
	return out
}

// notify sends the activity change. Failures are logged and never returned.
func (s *DowntimeService) notify(ctx context.Context, out *TickOutcome, now time.Time) bool {
	if s.notifier == nil {
		return false
	}
	mode := modes.ForMode(domain.ModeDowntime, s.cfg)
	title := mode.NotificationTitle(out.State.CurrentActivity)
	if err := s.notifier.Send(ctx, title, downtimeMessage(out, now)); err != nil {
		log.Warn().Err(err).Str("activity", out.State.CurrentActivity).Msg("downtime notification failed")
		return false
	}
	return true
}

func downtimeMessage(out *TickOutcome, now time.Time) string {
	if out.EndsAt == nil {
		return out.State.CurrentActivity
	}
	msg := fmt.Sprintf("%s for %s, until %s", out.State.CurrentActivity,
		domain.FormatCountdown(*out.EndsAt, now), out.EndsAt.Format("15:04"))
	if out.State.Phase() == domain.PhaseGrip {
		switch {
		case out.State.PausedState != nil:
			msg += fmt.Sprintf(", then back to %s", out.State.PausedState.Activity)
		case out.State.TurnActivity() != "":
			msg += fmt.Sprintf(", then %s", out.State.TurnActivity())
		}
	}
	return msg
}
