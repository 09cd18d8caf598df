package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/services"
)

// downtimeCmd groups the rotation commands.
var downtimeCmd = &cobra.Command{
	Use:     "downtime",
	Aliases: []string{"dt"},
	Short:   "Inspect and drive the downtime rotation",
	Long: `Downtime mode rotates through a list of activities, giving each a fixed
block of time, and interrupts every so often for grip strength training.
The interrupted activity resumes with the time it had left.`,
}

var downtimeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the rotation without advancing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		ds, endsAt, err := app.engine.GetDowntimeState(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get downtime state: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), downtimeJSON(ds, endsAt, now))
		}
		printDowntime(cmd.OutOrStdout(), ds, endsAt, now)
		return nil
	},
}

var downtimeTickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Advance the rotation once",
	Long:  `Run the rotation rules at the current time, regardless of the schedule mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		out, err := app.downtime.Tick(cmd.Context(), now)
		if err != nil {
			return fmt.Errorf("failed to tick rotation: %w", err)
		}
		return printTickOutcome(cmd.OutOrStdout(), out, now)
	},
}

var downtimeGripCmd = &cobra.Command{
	Use:       "grip [on|off|now]",
	Short:     "Toggle grip strength breaks or start one now",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off", "now"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		arg := ""
		if len(args) == 1 {
			arg = strings.ToLower(args[0])
		}

		var enabled bool
		switch arg {
		case "":
			var err error
			if enabled, err = app.engine.ToggleGrip(ctx); err != nil {
				return fmt.Errorf("failed to toggle grip: %w", err)
			}
		case "on", "off":
			enabled = arg == "on"
			if err := app.settings.SetGrip(ctx, enabled); err != nil {
				return fmt.Errorf("failed to set grip: %w", err)
			}
		case "now":
			now := time.Now()
			out, err := app.downtime.ForceGrip(ctx, now)
			if err != nil {
				return fmt.Errorf("failed to start grip: %w", err)
			}
			return printTickOutcome(w, out, now)
		default:
			return fmt.Errorf("%w: grip argument %q must be on, off or now", domain.ErrConfigInvalid, args[0])
		}

		if jsonOutput {
			return writeJSON(w, map[string]interface{}{"grip_enabled": enabled})
		}
		fmt.Fprintf(w, "Grip strength breaks %s\n", onOff(enabled))
		return nil
	},
}

var downtimeActivitiesCmd = &cobra.Command{
	Use:   "activities [name...]",
	Short: "Show or replace the rotation",
	Long: `Without arguments, list the rotation. With arguments, replace it and
restart from the first activity.`,
	Example: `  anchor downtime activities Quran "Problem Solving" Reading`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		var ds *domain.DowntimeState
		if len(args) == 0 {
			current, _, err := app.engine.GetDowntimeState(ctx)
			if err != nil {
				return fmt.Errorf("failed to get downtime state: %w", err)
			}
			ds = current
		} else {
			updated, err := app.settings.SetDowntimeActivities(ctx, args)
			if err != nil {
				return fmt.Errorf("failed to set downtime activities: %w", err)
			}
			ds = updated
		}

		if jsonOutput {
			return writeJSON(w, map[string]interface{}{"activities": ds.Activities, "count": len(ds.Activities)})
		}
		for i, a := range ds.Activities {
			marker := " "
			if i == ds.CurrentActivityIndex {
				marker = "▸"
			}
			fmt.Fprintf(w, "%s %d. %s\n", marker, i+1, a)
		}
		return nil
	},
}

func init() {
	downtimeCmd.AddCommand(downtimeStatusCmd)
	downtimeCmd.AddCommand(downtimeTickCmd)
	downtimeCmd.AddCommand(downtimeGripCmd)
	downtimeCmd.AddCommand(downtimeActivitiesCmd)
}

// printDowntime prints the rotation in plain text.
func printDowntime(w io.Writer, ds *domain.DowntimeState, endsAt *time.Time, now time.Time) {
	switch ds.Phase() {
	case domain.PhaseIdle:
		fmt.Fprintln(w, "Rotation not started. Run \"anchor downtime tick\" to begin.")
	default:
		fmt.Fprintf(w, "Now: %s\n", ds.CurrentActivity)
		if endsAt != nil {
			fmt.Fprintf(w, "   Ends: %s (%s)\n", endsAt.Format("15:04"), domain.FormatCountdown(*endsAt, now))
		}
	}
	if ds.PausedState != nil {
		fmt.Fprintf(w, "   Paused: %s (%s left)\n", ds.PausedState.Activity, domain.FormatRemaining(ds.PausedState.RemainingTime))
	}
	if turn := ds.TurnActivity(); turn != "" && turn != ds.CurrentActivity {
		fmt.Fprintf(w, "   Turn: %s\n", turn)
	}
	fmt.Fprintf(w, "   Rotation: %s\n", strings.Join(ds.Activities, " → "))
	fmt.Fprintf(w, "   Grip: %s\n", onOff(ds.GripStrengthEnabled))
}

// printTickOutcome reports what a tick did.
func printTickOutcome(w io.Writer, out *services.TickOutcome, now time.Time) error {
	if jsonOutput {
		data := downtimeJSON(&out.State, out.EndsAt, now)
		data["transition"] = string(out.Result.Transition)
		data["notified"] = out.Notified
		return writeJSON(w, data)
	}
	switch out.Result.Transition {
	case domain.TransitionNone:
		fmt.Fprintf(w, "No change: %s\n", out.State.CurrentActivity)
	case domain.TransitionGripStart:
		fmt.Fprintf(w, "Grip break started: %s\n", out.State.CurrentActivity)
	case domain.TransitionGripResume:
		fmt.Fprintf(w, "Back to %s\n", out.State.CurrentActivity)
	case domain.TransitionAdvance:
		fmt.Fprintf(w, "Next up: %s\n", out.State.CurrentActivity)
	}
	if out.EndsAt != nil {
		fmt.Fprintf(w, "   Ends: %s (%s)\n", out.EndsAt.Format("15:04"), domain.FormatCountdown(*out.EndsAt, now))
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
