package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/adapters/tui"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/modes"
)

// modeCmd represents the mode command
var modeCmd = &cobra.Command{
	Use:       "mode [strict|downtime]",
	Short:     "Show or switch the schedule mode",
	Long:      `Switch between the prayer-anchored strict timeline and the downtime rotation. Without an argument a picker is shown.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(domain.ModeStrict), string(domain.ModeDowntime)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		settings, err := app.settings.Load(ctx)
		if err != nil {
			return err
		}

		var mode domain.ScheduleMode
		if len(args) == 1 {
			mode, err = domain.ValidateMode(args[0])
			if err != nil {
				return err
			}
		} else {
			all := modes.All(app.config)
			items := make([]tui.PickerItem, 0, len(all))
			current := -1
			for i, m := range all {
				items = append(items, tui.PickerItem{Label: m.Title(), Desc: m.Description()})
				if m.Name() == settings.Mode {
					current = i
				}
			}
			res := tui.RunPicker("Mode:", items, current, "", &app.config.Theme)
			if res.Aborted {
				return nil
			}
			mode = all[res.Index].Name()
		}

		if err := app.engine.SetMode(ctx, mode); err != nil {
			return fmt.Errorf("failed to set mode: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"mode": string(mode)})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Mode set to %s\n", mode.Label())
		return nil
	},
}
