// Package cmd provides the CLI commands for the Anchor application.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/adapters/tui"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Anchor - a daily timeline anchored to the five prayers",
	Long: `Anchor lays out your day between the five daily prayers and tells you
what should be happening right now. Downtime mode rotates between
activities with short grip strength breaks.

Run "anchor" with no arguments to see what is happening now.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runNow,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = cleanupServices()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.anchor/anchor.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("Anchor CLI\nVersion: {{.Version}}\n")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(nowCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(downtimeCmd)
	rootCmd.AddCommand(mealCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(resetCmd)
}

// runNow prints the current state without advancing anything.
func runNow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	state, err := app.engine.Snapshot(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to get current state: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), stateJSON(state, now))
	}
	tui.ShowStatus(cmd.OutOrStdout(), state, app.config, now)
	return nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// formatMinutes formats a duration as a human-friendly string like "25m" or "1h30m".
func formatMinutes(d time.Duration) string {
	if d >= time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
