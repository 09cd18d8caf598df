package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/adapters/tui"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
	"github.com/xvierd/anchor-cli/internal/services"
)

var watchInline bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live status view",
	Long: `Open a live view of the current activity. The state is recomputed on
every minute boundary, and the countdown redraws every second.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := setupSignalHandler(cmd.Context())

		state, err := app.engine.Refresh(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to get current state: %w", err)
		}

		var view ports.StatusView = tui.NewWatch(app.config, watchInline)
		view.SetRefresh(func(ctx context.Context) (*domain.CurrentState, error) {
			return app.engine.Refresh(ctx, time.Now())
		})
		view.SetCommandCallback(viewCommandHandler(app.engine))

		if err := view.Run(ctx, state); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVarP(&watchInline, "inline", "i", false, "Render inline instead of full screen")
}

// viewCommandHandler maps key commands from the live view onto the engine.
func viewCommandHandler(engine *services.Engine) func(context.Context, ports.ViewCommand) error {
	return func(ctx context.Context, c ports.ViewCommand) error {
		switch c {
		case ports.CmdToggleMode:
			_, err := engine.ToggleMode(ctx)
			return err
		case ports.CmdToggleGrip:
			_, err := engine.ToggleGrip(ctx)
			return err
		case ports.CmdRefresh, ports.CmdQuit:
			return nil
		default:
			return fmt.Errorf("unknown command: %v", c)
		}
	}
}
