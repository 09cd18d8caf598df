package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	resetForce bool
	resetAll   bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete your settings, or the whole database with --all",
	Long: `Permanently deletes your location, schedule, downtime rotation and meal log.
With --all the database file is removed too, including cached prayer times.
This cannot be undone. Use --force to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		if !resetForce {
			target := "your settings"
			if resetAll {
				target = dbPath
			}
			fmt.Fprintf(w, "This will permanently delete: %s\n", target)
			fmt.Fprint(w, "Are you sure? Type 'yes' to confirm: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(strings.ToLower(input))
			if input != "yes" {
				fmt.Fprintln(w, "Aborted.")
				return nil
			}
		}

		if !resetAll {
			if err := app.settings.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete settings: %w", err)
			}
			fmt.Fprintln(w, "Settings deleted. Run \"anchor setup\" to start again.")
			return nil
		}

		if err := cleanupServices(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(w, "Nothing to reset, database does not exist.")
				return nil
			}
			return fmt.Errorf("failed to delete database: %w", err)
		}

		fmt.Fprintln(w, "Database deleted. Fresh start.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Remove the database file, including cached prayer times")
}
