package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/adapters/tui"
)

var tickFollow bool

// tickCmd represents the tick command
var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Recompute the state once and send due notifications",
	Long: `Run one coarse refresh: the strict timeline is rebuilt and announced
when the current item changed, and the downtime rotation is advanced. Run
it from cron every minute, or use --follow to keep ticking on every minute
boundary until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tickFollow {
			return runTickLoop(setupSignalHandler(cmd.Context()), time.Now)
		}

		now := time.Now()
		state, err := app.engine.Refresh(cmd.Context(), now)
		if err != nil {
			return fmt.Errorf("failed to refresh: %w", err)
		}
		if jsonOutput {
			data := stateJSON(state, now)
			data["transition"] = string(state.Tick)
			data["notified"] = state.Notified
			return writeJSON(cmd.OutOrStdout(), data)
		}
		tui.ShowStatus(cmd.OutOrStdout(), state, app.config, now)
		return nil
	},
}

func init() {
	tickCmd.Flags().BoolVarP(&tickFollow, "follow", "f", false, "Keep ticking on every minute boundary")
}

// runTickLoop refreshes on every minute boundary until ctx ends. Errors
// are logged and the loop carries on; the next tick recomputes from
// absolute timestamps.
func runTickLoop(ctx context.Context, clock func() time.Time) error {
	for {
		now := clock()
		state, err := app.engine.Refresh(ctx, now)
		if err != nil {
			log.Warn().Err(err).Msg("refresh failed")
		} else {
			log.Info().Str("mode", string(state.Mode)).Str("current", state.Headline()).
				Str("transition", string(state.Tick)).Bool("notified", state.Notified).Msg("tick")
		}

		timer := time.NewTimer(untilNextMinute(clock()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// untilNextMinute returns the wait until the next wall-clock minute.
func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}
