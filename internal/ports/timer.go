package ports

import (
	"context"

	"github.com/xvierd/anchor-cli/internal/domain"
)

// ViewCommand represents a user action in the status view.
type ViewCommand string

const (
	// CmdRefresh forces a coarse refresh.
	CmdRefresh ViewCommand = "refresh"

	// CmdToggleMode switches between strict and downtime mode.
	CmdToggleMode ViewCommand = "toggle_mode"

	// CmdToggleGrip enables or disables grip interrupts.
	CmdToggleGrip ViewCommand = "toggle_grip"

	// CmdQuit exits the view.
	CmdQuit ViewCommand = "quit"
)

// StatusView is the live terminal view. It owns the two tick loops: a
// minute-aligned coarse refresh and a one-second countdown re-render.
// This is a driving port (called by the application layer).
type StatusView interface {
	// Run starts the view and blocks until the user quits or ctx ends.
	Run(ctx context.Context, initial *domain.CurrentState) error

	// SetRefresh sets the function called on every coarse tick.
	SetRefresh(refresh func(ctx context.Context) (*domain.CurrentState, error))

	// SetCommandCallback sets a function to call when commands are received.
	SetCommandCallback(callback func(ctx context.Context, cmd ViewCommand) error)
}
