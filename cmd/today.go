package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
)

// todayCmd represents the today command
var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's timeline",
	Long:  `Print the full timeline from Fajr to the next Fajr with the current item marked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		tl, err := app.engine.GetTimeline(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to build timeline: %w", err)
		}

		if jsonOutput {
			items := make([]map[string]interface{}, 0, len(tl.Items))
			for _, it := range tl.Items {
				items = append(items, itemJSON(it))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"schedule":      items,
				"current":       itemJSON(tl.Current),
				"next":          itemJSON(tl.Next),
				"current_index": tl.CurrentIndex,
				"count":         len(items),
			})
		}

		printTimeline(cmd.OutOrStdout(), tl, now, &app.config.Theme)
		return nil
	},
}

// printTimeline renders the timeline as a table.
func printTimeline(w io.Writer, tl *domain.Timeline, now time.Time, theme *config.ThemeConfig) {
	if theme == nil {
		defaults := config.DefaultThemeConfig()
		theme = &defaults
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorTitle)).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	prayerStyle := cellStyle.Foreground(lipgloss.Color(theme.ColorStrict))
	currentStyle := cellStyle.Bold(true).Foreground(lipgloss.Color(theme.ColorDowntime))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorHelp))).
		Headers("", "TIME", "ACTIVITY", "LENGTH")

	for i, it := range tl.Items {
		marker := ""
		if i == tl.CurrentIndex {
			marker = "▸"
		}
		t.Row(marker,
			fmt.Sprintf("%s-%s", it.Start.Format("15:04"), it.End.Format("15:04")),
			it.Name,
			formatMinutes(it.Duration()),
		)
	}

	items := tl.Items
	current := tl.CurrentIndex
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row == current:
			return currentStyle
		case row >= 0 && row < len(items) && items[row].IsPrayer:
			return prayerStyle
		}
		return cellStyle
	})

	fmt.Fprintln(w, t.Render())
	if tl.CurrentIndex < 0 {
		fmt.Fprintf(w, "Now: %s, %s until %s\n", tl.Current.Name, domain.FormatRemaining(tl.Remaining(now)), tl.Next.Name)
	}
}
