// Package modes encapsulates behavior that differs between strict and
// downtime scheduling. The engine, TUI and CLI query the Mode interface
// instead of scattering mode checks everywhere.
package modes

import (
	"fmt"

	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
)

// Mode defines the interface for mode-specific behavior.
type Mode interface {
	// Name returns the mode identifier.
	Name() domain.ScheduleMode

	// Title returns the heading shown in the status view.
	Title() string

	// Description explains the mode in one sentence.
	Description() string

	// NeedsPrayerTimes reports whether a refresh must resolve prayer anchors.
	NeedsPrayerTimes() bool

	// AdvancesRotation reports whether a coarse refresh ticks the downtime
	// state machine.
	AdvancesRotation() bool

	// NotificationTitle returns the title used when activity starts.
	NotificationTitle(activity string) string

	// Accent returns the highlight colour for the mode.
	Accent() string

	// Gradient returns the progress bar colours for the mode.
	Gradient() (start, end string)

	// Icon returns the mode icon.
	Icon() string
}

// ForMode returns the Mode implementation for m. A nil config uses the
// default theme.
func ForMode(m domain.ScheduleMode, cfg *config.Config) Mode {
	theme := config.DefaultThemeConfig()
	if cfg != nil {
		theme = cfg.Theme
	}
	switch m {
	case domain.ModeDowntime:
		return &downtimeMode{theme: theme}
	default:
		return &strictMode{theme: theme}
	}
}

// All returns every mode in display order.
func All(cfg *config.Config) []Mode {
	return []Mode{ForMode(domain.ModeStrict, cfg), ForMode(domain.ModeDowntime, cfg)}
}

// --- Strict Mode ---

type strictMode struct {
	theme config.ThemeConfig
}

func (s *strictMode) Name() domain.ScheduleMode { return domain.ModeStrict }
func (s *strictMode) Title() string             { return "Strict schedule" }
func (s *strictMode) NeedsPrayerTimes() bool    { return true }
func (s *strictMode) AdvancesRotation() bool    { return false }
func (s *strictMode) Accent() string            { return s.theme.ColorStrict }
func (s *strictMode) Icon() string              { return s.theme.IconPrayer }

func (s *strictMode) Description() string {
	return "Your day laid out between the five prayers."
}

func (s *strictMode) NotificationTitle(activity string) string {
	return fmt.Sprintf("%s Now: %s", s.theme.IconPrayer, activity)
}

func (s *strictMode) Gradient() (string, string) {
	return s.theme.StrictGradientStart, s.theme.StrictGradientEnd
}

// --- Downtime Mode ---

type downtimeMode struct {
	theme config.ThemeConfig
}

func (d *downtimeMode) Name() domain.ScheduleMode { return domain.ModeDowntime }
func (d *downtimeMode) Title() string             { return "Downtime rotation" }
func (d *downtimeMode) NeedsPrayerTimes() bool    { return false }
func (d *downtimeMode) AdvancesRotation() bool    { return true }
func (d *downtimeMode) Accent() string            { return d.theme.ColorDowntime }
func (d *downtimeMode) Icon() string              { return d.theme.IconActivity }

func (d *downtimeMode) Description() string {
	return "Rotate through your activities with grip strength breaks."
}

func (d *downtimeMode) NotificationTitle(activity string) string {
	if activity == domain.ActivityGrip {
		return fmt.Sprintf("%s Grip strength time!", d.theme.IconGrip)
	}
	return fmt.Sprintf("%s Time for %s", d.theme.IconActivity, activity)
}

func (d *downtimeMode) Gradient() (string, string) {
	return d.theme.DowntimeGradientStart, d.theme.DowntimeGradientEnd
}
