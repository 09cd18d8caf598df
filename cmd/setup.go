package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/adapters/tui"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/services"
)

var (
	setupLat  float64
	setupLon  float64
	setupCity string
	setupTZ   string
)

// setupCmd represents the setup command
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set the location prayer times are computed for",
	Long: `Store the coordinates, city and timezone used to fetch prayer times.
Missing values are asked for interactively. Running setup again only
changes the location; your schedule and downtime rotation are kept.`,
	Example: `  anchor setup --lat 30.0444 --lon 31.2357 --city Cairo --tz Africa/Cairo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := services.SetupRequest{
			Latitude:  setupLat,
			Longitude: setupLon,
			City:      setupCity,
			Timezone:  setupTZ,
		}

		if !cmd.Flags().Changed("lat") {
			v, ok := promptFloat("Latitude:", "30.0444", -90, 90)
			if !ok {
				return nil
			}
			req.Latitude = v
		}
		if !cmd.Flags().Changed("lon") {
			v, ok := promptFloat("Longitude:", "31.2357", -180, 180)
			if !ok {
				return nil
			}
			req.Longitude = v
		}
		if !cmd.Flags().Changed("city") {
			res := tui.RunTextPrompt("City:", "Enter to skip", nil, &app.config.Theme)
			if res.Aborted {
				return nil
			}
			req.City = res.Value
		}
		if !cmd.Flags().Changed("tz") {
			res := tui.RunTextPrompt("Timezone:", "e.g. Africa/Cairo, Enter for local", func(s string) error {
				_, err := domain.Location{Timezone: s}.Zone()
				return err
			}, &app.config.Theme)
			if res.Aborted {
				return nil
			}
			req.Timezone = res.Value
		}

		settings, err := app.settings.Setup(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to save location: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"location": settings.Location,
				"mode":     string(settings.Mode),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Location set: %s\n", describeLocation(settings.Location))
		return nil
	},
}

func init() {
	setupCmd.Flags().Float64Var(&setupLat, "lat", 0, "Latitude in degrees")
	setupCmd.Flags().Float64Var(&setupLon, "lon", 0, "Longitude in degrees")
	setupCmd.Flags().StringVar(&setupCity, "city", "", "City name shown in the status view")
	setupCmd.Flags().StringVar(&setupTZ, "tz", "", "IANA timezone (default: local time)")
}

// promptFloat asks for a number in [lo, hi].
func promptFloat(title, placeholder string, lo, hi float64) (float64, bool) {
	res := tui.RunTextPrompt(title, placeholder, func(s string) error {
		_, err := parseCoordinate(s, lo, hi)
		return err
	}, &app.config.Theme)
	if res.Aborted {
		return 0, false
	}
	v, err := parseCoordinate(res.Value, lo, hi)
	return v, err == nil
}

// parseCoordinate parses s as a float within [lo, hi].
func parseCoordinate(s string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%g is outside %g to %g", v, lo, hi)
	}
	return v, nil
}

// describeLocation formats a location for one line of output.
func describeLocation(loc *domain.Location) string {
	if loc == nil {
		return "not set"
	}
	tz := loc.Timezone
	if tz == "" {
		tz = "local time"
	}
	coords := fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
	if loc.City == "" {
		return fmt.Sprintf("%s (%s)", coords, tz)
	}
	return fmt.Sprintf("%s (%s, %s)", loc.City, coords, tz)
}
