package tui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/modes"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// Watch implements the ports.StatusView interface using Bubbletea.
type Watch struct {
	cfg         *config.Config
	inline      bool
	mu          sync.RWMutex
	program     *tea.Program
	refresh     func(context.Context) (*domain.CurrentState, error)
	cmdCallback func(context.Context, ports.ViewCommand) error
}

// NewWatch creates a new live status view. Inline views skip the
// alternate screen.
func NewWatch(cfg *config.Config, inline bool) *Watch {
	return &Watch{cfg: cfg, inline: inline}
}

// Run starts the view and blocks until the user quits or ctx ends.
func (w *Watch) Run(ctx context.Context, initial *domain.CurrentState) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mu.RLock()
	model := NewModel(initial, w.cfg)
	model.ctx = ctx
	model.refresh = w.refresh
	model.commandCallback = w.cmdCallback
	model.inline = w.inline
	w.mu.RUnlock()

	var opts []tea.ProgramOption
	if !w.inline {
		opts = append(opts, tea.WithAltScreen())
	}

	program := tea.NewProgram(model, append(opts, tea.WithContext(ctx))...)
	w.mu.Lock()
	w.program = program
	w.mu.Unlock()

	_, err := program.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// Stop quits a running view.
func (w *Watch) Stop() {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.program != nil {
		w.program.Quit()
	}
}

// SetRefresh sets the function called on every coarse tick.
func (w *Watch) SetRefresh(refresh func(ctx context.Context) (*domain.CurrentState, error)) {
	w.mu.Lock()
	w.refresh = refresh
	w.mu.Unlock()
}

// SetCommandCallback sets a function to call when commands are received.
func (w *Watch) SetCommandCallback(callback func(ctx context.Context, cmd ports.ViewCommand) error) {
	w.mu.Lock()
	w.cmdCallback = callback
	w.mu.Unlock()
}

// UpdateState pushes a state into a running view.
func (w *Watch) UpdateState(state *domain.CurrentState) {
	w.mu.RLock()
	program := w.program
	w.mu.RUnlock()

	if program != nil {
		program.Send(stateMsg{state: state})
	}
}

// Ensure Watch implements ports.StatusView.
var _ ports.StatusView = (*Watch)(nil)

// ShowStatus prints a one-off status without starting interactive mode.
func ShowStatus(w io.Writer, state *domain.CurrentState, cfg *config.Config, now time.Time) {
	var theme *config.ThemeConfig
	if cfg != nil {
		theme = &cfg.Theme
	}
	resolved := resolveTheme(theme)
	if cfg == nil {
		cfg = &config.Config{Theme: resolved}
	}
	mode := modes.ForMode(state.Mode, cfg)
	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(mode.Accent()))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(resolved.ColorHelp))

	fmt.Fprintf(w, "%s %s\n", mode.Icon(), accent.Render(state.Headline()))
	if countdown := state.Countdown(now); countdown != "" {
		target, _ := state.Target()
		fmt.Fprintf(w, "   Ends: %s (%s)\n", target.Format("15:04"), countdown)
		fmt.Fprintf(w, "   Progress: %.0f%%\n", state.Progress(now)*100)
	}
	if next := state.UpNext(); next != "" {
		fmt.Fprintf(w, "   Next: %s\n", next)
	}
	if ds := state.Downtime; ds != nil {
		grip := "off"
		if ds.GripStrengthEnabled {
			grip = "on"
		}
		fmt.Fprintf(w, "   Grip: %s\n", grip)
		if ds.PausedState != nil {
			fmt.Fprintf(w, "   Paused: %s (%s left)\n", ds.PausedState.Activity, domain.FormatRemaining(ds.PausedState.RemainingTime))
		}
	}
	if state.MealsToday > 0 {
		fmt.Fprintf(w, "   %s Meals today: %d\n", resolved.IconMeal, state.MealsToday)
	}
	fmt.Fprintln(w, dim.Render(fmt.Sprintf("   Mode: %s", state.Mode.Label())))
}
