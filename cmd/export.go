package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/domain"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export today's timeline",
	Long:  "Export today's timeline in markdown or CSV format.",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		tl, err := app.engine.GetTimeline(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to build timeline: %w", err)
		}

		switch exportFormat {
		case "csv":
			return exportCSV(cmd.OutOrStdout(), tl)
		case "md", "markdown":
			return exportMarkdown(cmd.OutOrStdout(), tl, now)
		default:
			return fmt.Errorf("%w: export format %q must be md or csv", domain.ErrConfigInvalid, exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "Output format: md or csv")
}

func exportMarkdown(w io.Writer, tl *domain.Timeline, now time.Time) error {
	date := now.Format("2006-01-02")
	if len(tl.Items) > 0 {
		date = tl.Items[0].Start.Format("2006-01-02")
	}
	fmt.Fprintf(w, "# Anchor Timeline %s\n\n", date)
	fmt.Fprintf(w, "Generated: %s\n\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintln(w, "| Time | Activity | Length | Notes |")
	fmt.Fprintln(w, "|---|---|---|---|")

	for i, it := range tl.Items {
		name := it.Name
		if i == tl.CurrentIndex {
			name = "**" + name + "** (now)"
		}
		fmt.Fprintf(w, "| %s-%s | %s | %s | %s |\n",
			it.Start.Format("15:04"), it.End.Format("15:04"), name, formatMinutes(it.Duration()), it.Description)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func exportCSV(w io.Writer, tl *domain.Timeline) error {
	cw := csv.NewWriter(w)

	_ = cw.Write([]string{
		"id", "activity_id", "name", "description", "start", "end",
		"duration_min", "is_prayer", "is_custom",
	})

	for _, it := range tl.Items {
		_ = cw.Write([]string{
			it.ID,
			it.ActivityID,
			it.Name,
			it.Description,
			it.Start.Format(time.RFC3339),
			it.End.Format(time.RFC3339),
			fmt.Sprintf("%.0f", it.Duration().Minutes()),
			strconv.FormatBool(it.IsPrayer),
			strconv.FormatBool(it.IsCustom),
		})
	}
	cw.Flush()
	return cw.Error()
}
