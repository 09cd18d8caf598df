// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/modes"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// getTerminalWidth returns the current terminal width, defaulting to 80.
func getTerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w < 40 {
		return 80
	}
	return w
}

// tickMsg is sent every second and only re-renders the countdown.
type tickMsg time.Time

// refreshMsg is sent on every minute boundary and triggers a recompute.
type refreshMsg time.Time

// stateMsg wraps an updated state fetched asynchronously.
type stateMsg struct {
	state *domain.CurrentState
	err   error
}

// commandDoneMsg reports the outcome of a key command.
type commandDoneMsg struct {
	cmd ports.ViewCommand
	err error
}

// timelineRows is how many upcoming items the strict view lists.
const timelineRows = 5

// Model represents the TUI state.
type Model struct {
	ctx             context.Context
	state           *domain.CurrentState
	width           int
	height          int
	refresh         func(context.Context) (*domain.CurrentState, error)
	commandCallback func(context.Context, ports.ViewCommand) error
	lastError       error
	cfg             *config.Config
	theme           config.ThemeConfig
	now             func() time.Time
	inline          bool
}

// NewModel creates a new TUI model. A nil config uses the defaults.
func NewModel(initialState *domain.CurrentState, cfg *config.Config) Model {
	var theme *config.ThemeConfig
	if cfg != nil {
		theme = &cfg.Theme
	}
	return Model{
		ctx:   context.Background(),
		state: initialState,
		width: getTerminalWidth(),
		cfg:   cfg,
		theme: resolveTheme(theme),
		now:   time.Now,
	}
}

// Init starts both loops.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), refreshCmd())
}

// fetchStateCmd returns a tea.Cmd that fetches state asynchronously.
func fetchStateCmd(ctx context.Context, fetch func(context.Context) (*domain.CurrentState, error)) tea.Cmd {
	if fetch == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := fetch(ctx)
		return stateMsg{state: s, err: err}
	}
}

// runCommandCmd runs a key command off the UI goroutine.
func runCommandCmd(ctx context.Context, callback func(context.Context, ports.ViewCommand) error, cmd ports.ViewCommand) tea.Cmd {
	if callback == nil {
		return nil
	}
	return func() tea.Msg {
		return commandDoneMsg{cmd: cmd, err: callback(ctx, cmd)}
	}
}

// mode returns the presentation of the state's mode.
func (m Model) mode() modes.Mode {
	cfg := m.cfg
	if cfg == nil {
		cfg = &config.Config{Theme: m.theme}
	}
	if m.state == nil {
		return modes.ForMode(domain.ModeStrict, cfg)
	}
	return modes.ForMode(m.state.Mode, cfg)
}

// accent returns the colour for the current item.
func (m Model) accent() lipgloss.Color {
	if m.inGrip() {
		return lipgloss.Color(m.theme.ColorGrip)
	}
	return lipgloss.Color(m.mode().Accent())
}

func (m Model) inGrip() bool {
	return m.state != nil && m.state.Downtime != nil && m.state.Downtime.Phase() == domain.PhaseGrip
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.commandCallback != nil {
				_ = m.commandCallback(m.ctx, ports.CmdQuit)
			}
			return m, tea.Quit
		case "r":
			return m, fetchStateCmd(m.ctx, m.refresh)
		case "m":
			return m, runCommandCmd(m.ctx, m.commandCallback, ports.CmdToggleMode)
		case "g":
			return m, runCommandCmd(m.ctx, m.commandCallback, ports.CmdToggleGrip)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Countdowns read the last snapshot; nothing is recomputed here.
		return m, tickCmd()

	case refreshMsg:
		return m, tea.Batch(fetchStateCmd(m.ctx, m.refresh), refreshCmd())

	case stateMsg:
		m.lastError = msg.err
		if msg.err == nil && msg.state != nil {
			m.state = msg.state
		}

	case commandDoneMsg:
		m.lastError = msg.err
		return m, fetchStateCmd(m.ctx, m.refresh)
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.state == nil {
		return "No state yet. Press r to refresh."
	}

	now := m.now()
	mode := m.mode()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(m.accent())
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorActivity))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	var sections []string
	title := fmt.Sprintf("%s Anchor · %s", m.theme.IconApp, mode.Title())
	if loc := m.state.Location; loc != nil && loc.City != "" {
		title += " · " + loc.City
	}
	sections = append(sections, titleStyle.Render(title))
	sections = append(sections, "")

	headline := m.state.Headline()
	icon := mode.Icon()
	if m.inGrip() {
		icon = m.theme.IconGrip
	} else if m.state.Timeline != nil && m.state.Timeline.Current.IsPrayer {
		icon = m.theme.IconPrayer
	}
	sections = append(sections, headStyle.Render(fmt.Sprintf("%s %s", icon, headline)))

	if countdown := m.state.Countdown(now); countdown != "" {
		sections = append(sections, "")
		sections = append(sections, renderBig(countdown, m.accent(), m.width))
		sections = append(sections, "")
		sections = append(sections, m.progressBar().ViewAs(m.state.Progress(now)))
	}

	if next := m.state.UpNext(); next != "" {
		label := "Up next"
		if m.inGrip() {
			label = "Then back to"
		}
		sections = append(sections, "")
		sections = append(sections, dimStyle.Render(fmt.Sprintf("%s: %s", label, next)))
	}

	if rows := m.viewUpcoming(); rows != "" {
		sections = append(sections, "")
		sections = append(sections, rows)
	}

	if m.state.MealsToday > 0 {
		sections = append(sections, dimStyle.Render(fmt.Sprintf("%s %d meal(s) logged today", m.theme.IconMeal, m.state.MealsToday)))
	}

	if m.lastError != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorGrip))
		sections = append(sections, "")
		sections = append(sections, errStyle.Render("Error: "+m.lastError.Error()))
	}

	sections = append(sections, "")
	sections = append(sections, helpStyle.Render(m.helpText()))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.inline || m.height == 0 {
		return content + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// progressBar builds a bar in the current mode's gradient.
func (m Model) progressBar() progress.Model {
	start, end := m.mode().Gradient()
	if m.inGrip() {
		start, end = m.theme.GripGradientStart, m.theme.GripGradientEnd
	}
	pbar := progress.New(progress.WithGradient(start, end))
	pbar.Width = m.width - 4
	if pbar.Width > 60 {
		pbar.Width = 60
	}
	return pbar
}

// viewUpcoming lists the next few timeline items in strict mode.
func (m Model) viewUpcoming() string {
	tl := m.state.Timeline
	if tl == nil || len(tl.Items) == 0 {
		return ""
	}
	start := tl.CurrentIndex
	if start < 0 {
		start = 0
		for i, it := range tl.Items {
			if it.ID == tl.Next.ID {
				start = i
				break
			}
		}
	}

	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(m.accent())
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	var b strings.Builder
	for i := start; i < len(tl.Items) && i < start+timelineRows; i++ {
		it := tl.Items[i]
		line := fmt.Sprintf("%s-%s  %s", it.Start.Format("15:04"), it.End.Format("15:04"), it.Name)
		if i == tl.CurrentIndex {
			b.WriteString(activeStyle.Render("▸ " + line))
		} else {
			b.WriteString(dimStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) helpText() string {
	help := "[r]efresh  [m]ode"
	if m.state.Mode == domain.ModeDowntime {
		grip := "off"
		if m.state.Downtime != nil && m.state.Downtime.GripStrengthEnabled {
			grip = "on"
		}
		help += fmt.Sprintf("  [g]rip %s", grip)
	}
	return help + "  [q]uit"
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd fires on the next minute boundary of the system clock.
func refreshCmd() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}
