package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/anchor-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration",
	Long: `Show where the configuration lives and what it contains. Edit the TOML
file directly; ANCHOR_* environment variables and a .env file override it.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), configJSON(app.config))
		}
		printConfig(cmd.OutOrStdout(), app.config)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file and database paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"config": path, "database": dbPath})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config:   %s\nDatabase: %s\n", path, dbPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Current configuration:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Default mode:          %s\n", cfg.Mode)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Downtime:")
	fmt.Fprintf(w, "    Rotation:            %s\n", cfg.Downtime.RotationDuration)
	fmt.Fprintf(w, "    Grip duration:       %s\n", cfg.Downtime.GripDuration)
	fmt.Fprintf(w, "    Grip cooldown:       %s\n", cfg.Downtime.GripCooldown)
	fmt.Fprintf(w, "    Grip enabled:        %v\n", cfg.Downtime.GripEnabled)
	fmt.Fprintf(w, "    Activities:          %s\n", strings.Join(cfg.Downtime.Activities, ", "))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Prayer length:         %d min\n", cfg.Schedule.PrayerMinutes)
	fmt.Fprintf(w, "  Prayer times API:      %s (method %d, timeout %s)\n", cfg.Prayer.BaseURL, cfg.Prayer.Method, cfg.Prayer.Timeout)
	fmt.Fprintln(w)

	notif := "off"
	if cfg.Notifications.Enabled {
		var via []string
		if cfg.Notifications.Desktop {
			via = append(via, "desktop")
		}
		if cfg.Notifications.MQTTBroker != "" {
			via = append(via, fmt.Sprintf("mqtt %s/%s", cfg.Notifications.MQTTBroker, cfg.Notifications.MQTTTopic))
		}
		notif = "on"
		if len(via) > 0 {
			notif += " (" + strings.Join(via, ", ") + ")"
		}
	}
	fmt.Fprintf(w, "  Notifications:         %s\n", notif)

	redis := "off"
	if cfg.Cache.RedisAddr != "" {
		redis = fmt.Sprintf("%s db %d, ttl %s", cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.TTL)
	}
	fmt.Fprintf(w, "  Shared cache:          %s\n", redis)
	fmt.Fprintf(w, "  MCP server:            %s\n", onOff(cfg.MCP.Enabled))
	fmt.Fprintf(w, "  Data dir:              %s\n", cfg.Storage.DataDir)
	fmt.Fprintf(w, "  Log level:             %s\n", cfg.Logging.Level)
	fmt.Fprintln(w)
}

// configJSON shapes the config for --json output. Secrets are left out.
func configJSON(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"mode": cfg.Mode,
		"downtime": map[string]interface{}{
			"rotation_duration": cfg.Downtime.RotationDuration.String(),
			"grip_duration":     cfg.Downtime.GripDuration.String(),
			"grip_cooldown":     cfg.Downtime.GripCooldown.String(),
			"grip_enabled":      cfg.Downtime.GripEnabled,
			"activities":        cfg.Downtime.Activities,
		},
		"schedule": map[string]interface{}{
			"prayer_minutes": cfg.Schedule.PrayerMinutes,
		},
		"prayer": map[string]interface{}{
			"base_url": cfg.Prayer.BaseURL,
			"method":   cfg.Prayer.Method,
			"timeout":  cfg.Prayer.Timeout.String(),
		},
		"notifications": map[string]interface{}{
			"enabled":     cfg.Notifications.Enabled,
			"desktop":     cfg.Notifications.Desktop,
			"mqtt_broker": cfg.Notifications.MQTTBroker,
			"mqtt_topic":  cfg.Notifications.MQTTTopic,
		},
		"cache": map[string]interface{}{
			"redis_addr": cfg.Cache.RedisAddr,
			"redis_db":   cfg.Cache.RedisDB,
			"ttl":        cfg.Cache.TTL.String(),
		},
		"mcp":     map[string]interface{}{"enabled": cfg.MCP.Enabled},
		"storage": map[string]interface{}{"data_dir": cfg.Storage.DataDir},
		"logging": map[string]interface{}{"level": cfg.Logging.Level, "json": cfg.Logging.JSON},
	}
}
