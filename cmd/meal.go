package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/domain"
)

var mealNotes string

// mealCmd groups the meal tracking commands.
var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Track meals",
}

var mealModeCmd = &cobra.Command{
	Use:       "mode [normal|fasting]",
	Short:     "Show or set the meal mode",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(domain.MealModeNormal), string(domain.MealModeFasting)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		w := cmd.OutOrStdout()

		mode := domain.MealModeNormal
		if len(args) == 0 {
			settings, err := app.settings.Load(ctx)
			if err != nil {
				return err
			}
			if settings.MealMode != "" {
				mode = settings.MealMode
			}
		} else {
			var err error
			if mode, err = domain.ValidateMealMode(args[0]); err != nil {
				return err
			}
			if err := app.settings.SetMealMode(ctx, mode); err != nil {
				return fmt.Errorf("failed to set meal mode: %w", err)
			}
		}

		if jsonOutput {
			return writeJSON(w, map[string]interface{}{"meal_mode": string(mode)})
		}
		fmt.Fprintf(w, "Meal mode: %s\n", mode)
		return nil
	},
}

var mealLogCmd = &cobra.Command{
	Use:     "log <name>",
	Short:   "Log a meal now",
	Example: `  anchor meal log Suhoor --notes "dates and water"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := app.settings.LogMeal(cmd.Context(), args[0], mealNotes)
		if err != nil {
			return fmt.Errorf("failed to log meal: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), mealJSON(entry))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged %s at %s\n", entry.Name, entry.At.Format("15:04"))
		return nil
	},
}

var mealListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := app.settings.Load(cmd.Context())
		if err != nil {
			return err
		}
		zone := time.Local
		if z, err := settings.Zone(); err == nil {
			zone = z
		}
		meals := settings.MealsOn(time.Now(), zone)

		if jsonOutput {
			list := make([]map[string]interface{}, 0, len(meals))
			for _, m := range meals {
				list = append(list, mealJSON(m))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"meals": list, "count": len(list)})
		}
		if len(meals) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No meals logged today.")
			return nil
		}
		for _, m := range meals {
			line := fmt.Sprintf("%s  %s", m.At.In(zone).Format("15:04"), m.Name)
			if m.Notes != "" {
				line += " - " + m.Notes
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	mealLogCmd.Flags().StringVarP(&mealNotes, "notes", "n", "", "Optional notes")

	mealCmd.AddCommand(mealModeCmd)
	mealCmd.AddCommand(mealLogCmd)
	mealCmd.AddCommand(mealListCmd)
}

func mealJSON(m domain.MealEntry) map[string]interface{} {
	return map[string]interface{}{
		"id":    m.ID,
		"name":  m.Name,
		"at":    m.At.Format(time.RFC3339),
		"notes": m.Notes,
	}
}
