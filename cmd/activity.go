package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/services"
)

var (
	activityType    string
	activityMinutes int
	activityAfter   string
	activityDesc    string
)

// activityCmd groups the commands that edit the daily loop.
var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"act"},
	Short:   "Manage the activities between prayers",
	Long: `The daily loop is an ordered list of the five prayers and your own
activities. Activities listed after a prayer fill the time until the next
one: actions take a fixed number of minutes, fillers share what is left.`,
}

var activityAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an activity to the daily loop",
	Example: `  anchor activity add "Morning run" --type action --minutes 30 --after fajr
  anchor activity add Work --after dhuhr`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := domain.ValidateActivityType(activityType)
		if err != nil {
			return err
		}
		req := services.AddActivityRequest{
			Name:        args[0],
			Type:        t,
			Description: activityDesc,
			After:       activityAfter,
		}
		if cmd.Flags().Changed("minutes") {
			minutes := activityMinutes
			req.Minutes = &minutes
		}

		activity, err := app.settings.AddActivity(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to add activity: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), activityJSON(-1, activity))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", activity.Name, domain.ShortID(activity.ID))
		return nil
	},
}

var activityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the daily loop in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		activities, err := app.engine.ListActivities(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list activities: %w", err)
		}

		if jsonOutput {
			list := make([]map[string]interface{}, 0, len(activities))
			for i, a := range activities {
				list = append(list, activityJSON(i, a))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"activities": list,
				"count":      len(list),
			})
		}
		printActivities(cmd.OutOrStdout(), activities)
		return nil
	},
}

var activityRemoveCmd = &cobra.Command{
	Use:     "remove <id|name>",
	Aliases: []string{"rm"},
	Short:   "Remove an activity",
	Long:    `Remove an activity by id, id prefix or name. Prayers cannot be removed.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := app.settings.RemoveActivity(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to remove activity: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), activityJSON(-1, removed))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", removed.Name)
		return nil
	},
}

var activityMoveCmd = &cobra.Command{
	Use:   "move <id|name> <position>",
	Short: "Move an activity to a position in the loop",
	Long: `Move an activity to a 1-based position as shown by "anchor activity list".
Prayers can be moved too, as long as they stay in day order.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[1])
		if err != nil || pos < 1 {
			return fmt.Errorf("%w: position %q must be a positive number", domain.ErrConfigInvalid, args[1])
		}
		if err := app.settings.MoveActivity(cmd.Context(), args[0], pos-1); err != nil {
			return fmt.Errorf("failed to move activity: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"moved": args[0], "position": pos})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to position %d\n", args[0], pos)
		return nil
	},
}

func init() {
	activityAddCmd.Flags().StringVarP(&activityType, "type", "t", string(domain.ActivityFiller), "Activity type: action or filler")
	activityAddCmd.Flags().IntVarP(&activityMinutes, "minutes", "m", 0, "Fixed length in minutes (required for actions)")
	activityAddCmd.Flags().StringVarP(&activityAfter, "after", "a", "", "Insert after this activity id or name (default: end of the loop)")
	activityAddCmd.Flags().StringVarP(&activityDesc, "description", "d", "", "Description shown in the timeline")

	activityCmd.AddCommand(activityAddCmd)
	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityRemoveCmd)
	activityCmd.AddCommand(activityMoveCmd)
}

func activityJSON(index int, a domain.CustomActivity) map[string]interface{} {
	data := map[string]interface{}{
		"id":        a.ID,
		"name":      a.Name,
		"type":      string(a.Type),
		"is_prayer": a.IsPrayer(),
	}
	if index >= 0 {
		data["position"] = index + 1
	}
	if a.Duration != nil {
		data["duration_minutes"] = *a.Duration
	}
	if a.Description != "" {
		data["description"] = a.Description
	}
	return data
}

// printActivities lists the loop with prayers flush left and activities
// indented under the prayer they follow.
func printActivities(w io.Writer, activities []domain.CustomActivity) {
	if len(activities) == 0 {
		fmt.Fprintln(w, "No activities.")
		return
	}
	for i, a := range activities {
		if a.IsPrayer() {
			fmt.Fprintf(w, "%2d. 🕌 %s\n", i+1, a.Name)
			continue
		}
		length := "fills free time"
		if a.Type == domain.ActivityAction || a.Duration != nil {
			length = fmt.Sprintf("%d min", a.Minutes())
		}
		fmt.Fprintf(w, "%2d.      %s [%s] %s, %s\n", i+1, a.Name, domain.ShortID(a.ID), a.Type, length)
	}
}
