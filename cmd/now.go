package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/domain"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Show what should be happening now",
	Long: `Display the current activity, its countdown and what comes next.
Nothing is advanced; use "anchor tick" for that.`,
	RunE: runNow,
}

// stateJSON shapes a state snapshot for --json output.
func stateJSON(state *domain.CurrentState, now time.Time) map[string]interface{} {
	result := map[string]interface{}{
		"mode":        string(state.Mode),
		"current":     state.Headline(),
		"next":        state.UpNext(),
		"countdown":   state.Countdown(now),
		"progress":    state.Progress(now),
		"computed_at": state.Computed.Format(time.RFC3339),
		"meals_today": state.MealsToday,
	}
	if target, ok := state.Target(); ok {
		result["ends_at"] = target.Format(time.RFC3339)
	}
	if state.Location != nil {
		result["location"] = map[string]interface{}{
			"city":     state.Location.City,
			"lat":      state.Location.Latitude,
			"lon":      state.Location.Longitude,
			"timezone": state.Location.Timezone,
		}
	}
	if tl := state.Timeline; tl != nil {
		result["current_item"] = itemJSON(tl.Current)
		result["next_item"] = itemJSON(tl.Next)
	}
	if ds := state.Downtime; ds != nil {
		result["downtime"] = downtimeJSON(ds, state.EndsAt, now)
	}
	return result
}

func itemJSON(it domain.ScheduleItem) map[string]interface{} {
	return map[string]interface{}{
		"id":          it.ID,
		"activity_id": it.ActivityID,
		"name":        it.Name,
		"description": it.Description,
		"start":       it.Start.Format(time.RFC3339),
		"end":         it.End.Format(time.RFC3339),
		"is_prayer":   it.IsPrayer,
		"is_custom":   it.IsCustom,
	}
}

func downtimeJSON(ds *domain.DowntimeState, endsAt *time.Time, now time.Time) map[string]interface{} {
	data := map[string]interface{}{
		"phase":            string(ds.Phase()),
		"current_activity": ds.CurrentActivity,
		"turn":             ds.TurnActivity(),
		"activities":       ds.Activities,
		"grip_enabled":     ds.GripStrengthEnabled,
		"quran_turn":       ds.QuranTurn,
	}
	if ds.ActivityStartTime != nil {
		data["started_at"] = ds.ActivityStartTime.Format(time.RFC3339)
	}
	if endsAt != nil {
		data["ends_at"] = endsAt.Format(time.RFC3339)
		data["countdown"] = domain.FormatCountdown(*endsAt, now)
	}
	if ds.LastGripTime != nil {
		data["last_grip"] = ds.LastGripTime.Format(time.RFC3339)
	}
	if ds.PausedState != nil {
		data["paused"] = map[string]interface{}{
			"activity":          ds.PausedState.Activity,
			"remaining_time_ms": ds.PausedState.RemainingTime.Milliseconds(),
		}
	}
	return data
}
