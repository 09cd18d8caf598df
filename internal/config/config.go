// Package config provides configuration management for Anchor.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/xvierd/anchor-cli/internal/domain"
)

// EnvPrefix prefixes environment variables that override config keys,
// for example ANCHOR_PRAYER_METHOD.
const EnvPrefix = "ANCHOR"

const defaultDataDir = "~/.anchor"

// Config holds all configuration for the Anchor application.
type Config struct {
	Mode          string             `mapstructure:"mode"`
	Downtime      DowntimeConfig     `mapstructure:"downtime"`
	Schedule      ScheduleConfig     `mapstructure:"schedule"`
	Prayer        PrayerConfig       `mapstructure:"prayer"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Cache         CacheConfig        `mapstructure:"cache"`
	MCP           MCPConfig          `mapstructure:"mcp"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// ThemeConfig holds theme customization settings (colors and icons).
type ThemeConfig struct {
	ColorStrict           string `mapstructure:"color_strict"`
	ColorDowntime         string `mapstructure:"color_downtime"`
	ColorGrip             string `mapstructure:"color_grip"`
	ColorTitle            string `mapstructure:"color_title"`
	ColorActivity         string `mapstructure:"color_activity"`
	ColorHelp             string `mapstructure:"color_help"`
	StrictGradientStart   string `mapstructure:"strict_gradient_start"`
	StrictGradientEnd     string `mapstructure:"strict_gradient_end"`
	DowntimeGradientStart string `mapstructure:"downtime_gradient_start"`
	DowntimeGradientEnd   string `mapstructure:"downtime_gradient_end"`
	GripGradientStart     string `mapstructure:"grip_gradient_start"`
	GripGradientEnd       string `mapstructure:"grip_gradient_end"`
	IconApp               string `mapstructure:"icon_app"`
	IconPrayer            string `mapstructure:"icon_prayer"`
	IconActivity          string `mapstructure:"icon_activity"`
	IconGrip              string `mapstructure:"icon_grip"`
	IconMeal              string `mapstructure:"icon_meal"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorStrict:           "#4ECDC4",
		ColorDowntime:         "#7C6FE0",
		ColorGrip:             "#F59E0B",
		ColorTitle:            "#6B7280",
		ColorActivity:         "#A0AEC0",
		ColorHelp:             "#95A5A6",
		StrictGradientStart:   "#4ECDC4",
		StrictGradientEnd:     "#2ECC71",
		DowntimeGradientStart: "#7C6FE0",
		DowntimeGradientEnd:   "#A78BFA",
		GripGradientStart:     "#F59E0B",
		GripGradientEnd:       "#EF4444",
		IconApp:               "⚓",
		IconPrayer:            "🕌",
		IconActivity:          "📋",
		IconGrip:              "✊",
		IconMeal:              "🍽",
	}
}

// DowntimeConfig holds the downtime rotation settings.
type DowntimeConfig struct {
	RotationDuration Duration `mapstructure:"rotation_duration"`
	GripDuration     Duration `mapstructure:"grip_duration"`
	GripCooldown     Duration `mapstructure:"grip_cooldown"`
	GripEnabled      bool     `mapstructure:"grip_enabled"`
	Activities       []string `mapstructure:"activities"`
}

// ToDomain converts the timing settings to the state machine config.
func (c DowntimeConfig) ToDomain() domain.DowntimeConfig {
	return domain.DowntimeConfig{
		RotationDuration: time.Duration(c.RotationDuration),
		GripDuration:     time.Duration(c.GripDuration),
		GripCooldown:     time.Duration(c.GripCooldown),
	}
}

// ScheduleConfig holds strict timeline settings.
type ScheduleConfig struct {
	PrayerMinutes int `mapstructure:"prayer_minutes"`
}

// PrayerConfig holds prayer times provider settings.
type PrayerConfig struct {
	BaseURL string   `mapstructure:"base_url"`
	Method  int      `mapstructure:"method"`
	Timeout Duration `mapstructure:"timeout"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Desktop      bool   `mapstructure:"desktop"`
	MQTTBroker   string `mapstructure:"mqtt_broker"`
	MQTTTopic    string `mapstructure:"mqtt_topic"`
	MQTTClientID string `mapstructure:"mqtt_client_id"`
	MQTTUsername string `mapstructure:"mqtt_username"`
	MQTTPassword string `mapstructure:"mqtt_password"`
}

// CacheConfig holds the optional shared prayer times cache settings.
type CacheConfig struct {
	RedisAddr     string   `mapstructure:"redis_addr"`
	RedisUsername string   `mapstructure:"redis_username"`
	RedisPassword string   `mapstructure:"redis_password"`
	RedisDB       int      `mapstructure:"redis_db"`
	TTL           Duration `mapstructure:"ttl"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dt := domain.DefaultDowntimeConfig()
	return &Config{
		Mode: string(domain.ModeStrict),
		Downtime: DowntimeConfig{
			RotationDuration: Duration(dt.RotationDuration),
			GripDuration:     Duration(dt.GripDuration),
			GripCooldown:     Duration(dt.GripCooldown),
			GripEnabled:      true,
			Activities:       append([]string(nil), domain.DefaultDowntimeActivities...),
		},
		Schedule: ScheduleConfig{
			PrayerMinutes: domain.DefaultPrayerMinutes,
		},
		Prayer: PrayerConfig{
			BaseURL: "https://api.aladhan.com/v1",
			Method:  3,
			Timeout: Duration(10 * time.Second),
		},
		Notifications: NotificationConfig{
			Enabled:      true,
			Desktop:      true,
			MQTTTopic:    "anchor/notifications",
			MQTTClientID: "anchor-cli",
		},
		Cache: CacheConfig{
			TTL: Duration(48 * time.Hour),
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from the default config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, creating it with
// defaults when missing. A .env file next to the config file or in the
// working directory is loaded first; ANCHOR_* variables override keys.
func LoadFrom(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := loadDotEnv(".env", filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configPath)
	setDefaults(v)

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := expandDataDir(cfg.Storage.DataDir, configDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would make the engine misbehave.
func (c *Config) Validate() error {
	if _, err := domain.ValidateMode(c.Mode); err != nil {
		return err
	}
	if c.Downtime.RotationDuration <= 0 {
		return fmt.Errorf("%w: downtime.rotation_duration must be positive", domain.ErrConfigInvalid)
	}
	if c.Downtime.GripDuration <= 0 {
		return fmt.Errorf("%w: downtime.grip_duration must be positive", domain.ErrConfigInvalid)
	}
	if c.Downtime.GripCooldown < 0 {
		return fmt.Errorf("%w: downtime.grip_cooldown cannot be negative", domain.ErrConfigInvalid)
	}
	if len(c.Downtime.Activities) == 0 {
		return fmt.Errorf("%w: downtime.activities cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Schedule.PrayerMinutes <= 0 {
		return fmt.Errorf("%w: schedule.prayer_minutes must be positive", domain.ErrConfigInvalid)
	}
	if c.Prayer.Method < 0 {
		return fmt.Errorf("%w: prayer.method cannot be negative", domain.ErrConfigInvalid)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: logging.level %q", domain.ErrConfigInvalid, c.Logging.Level)
	}
	return nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes the configuration to configPath.
func SaveTo(configPath string, cfg *Config) error {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")

	// Set all values
	v.Set("mode", cfg.Mode)
	v.Set("downtime.rotation_duration", cfg.Downtime.RotationDuration.String())
	v.Set("downtime.grip_duration", cfg.Downtime.GripDuration.String())
	v.Set("downtime.grip_cooldown", cfg.Downtime.GripCooldown.String())
	v.Set("downtime.grip_enabled", cfg.Downtime.GripEnabled)
	v.Set("downtime.activities", cfg.Downtime.Activities)
	v.Set("schedule.prayer_minutes", cfg.Schedule.PrayerMinutes)
	v.Set("prayer.base_url", cfg.Prayer.BaseURL)
	v.Set("prayer.method", cfg.Prayer.Method)
	v.Set("prayer.timeout", cfg.Prayer.Timeout.String())
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.desktop", cfg.Notifications.Desktop)
	v.Set("notifications.mqtt_broker", cfg.Notifications.MQTTBroker)
	v.Set("notifications.mqtt_topic", cfg.Notifications.MQTTTopic)
	v.Set("notifications.mqtt_client_id", cfg.Notifications.MQTTClientID)
	v.Set("notifications.mqtt_username", cfg.Notifications.MQTTUsername)
	v.Set("notifications.mqtt_password", cfg.Notifications.MQTTPassword)
	v.Set("cache.redis_addr", cfg.Cache.RedisAddr)
	v.Set("cache.redis_username", cfg.Cache.RedisUsername)
	v.Set("cache.redis_password", cfg.Cache.RedisPassword)
	v.Set("cache.redis_db", cfg.Cache.RedisDB)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("mcp.enabled", cfg.MCP.Enabled)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.json", cfg.Logging.JSON)
	v.Set("theme", themeValues(cfg.Theme))

	return v.WriteConfigAs(configPath)
}

// GetConfigPath returns the path to the config file. ANCHOR_CONFIG
// overrides the default location.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".anchor", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "anchor.db")
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadDotEnv loads each existing env file. Variables already set in the
// environment win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func expandDataDir(dir, configDir string) (string, error) {
	switch {
	case dir == "":
		return configDir, nil
	case dir == "~" || strings.HasPrefix(dir, "~/"):
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
	}
	return dir, nil
}

func themeValues(t ThemeConfig) map[string]any {
	return map[string]any{
		"color_strict":            t.ColorStrict,
		"color_downtime":          t.ColorDowntime,
		"color_grip":              t.ColorGrip,
		"color_title":             t.ColorTitle,
		"color_activity":          t.ColorActivity,
		"color_help":              t.ColorHelp,
		"strict_gradient_start":   t.StrictGradientStart,
		"strict_gradient_end":     t.StrictGradientEnd,
		"downtime_gradient_start": t.DowntimeGradientStart,
		"downtime_gradient_end":   t.DowntimeGradientEnd,
		"grip_gradient_start":     t.GripGradientStart,
		"grip_gradient_end":       t.GripGradientEnd,
		"icon_app":                t.IconApp,
		"icon_prayer":             t.IconPrayer,
		"icon_activity":           t.IconActivity,
		"icon_grip":               t.IconGrip,
		"icon_meal":               t.IconMeal,
	}
}

// setDefaults sets default values for viper. Every key needs a default so
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("mode", d.Mode)
	v.SetDefault("downtime.rotation_duration", d.Downtime.RotationDuration.String())
	v.SetDefault("downtime.grip_duration", d.Downtime.GripDuration.String())
	v.SetDefault("downtime.grip_cooldown", d.Downtime.GripCooldown.String())
	v.SetDefault("downtime.grip_enabled", d.Downtime.GripEnabled)
	v.SetDefault("downtime.activities", d.Downtime.Activities)
	v.SetDefault("schedule.prayer_minutes", d.Schedule.PrayerMinutes)
	v.SetDefault("prayer.base_url", d.Prayer.BaseURL)
	v.SetDefault("prayer.method", d.Prayer.Method)
	v.SetDefault("prayer.timeout", d.Prayer.Timeout.String())
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.desktop", d.Notifications.Desktop)
	v.SetDefault("notifications.mqtt_broker", "")
	v.SetDefault("notifications.mqtt_topic", d.Notifications.MQTTTopic)
	v.SetDefault("notifications.mqtt_client_id", d.Notifications.MQTTClientID)
	v.SetDefault("notifications.mqtt_username", "")
	v.SetDefault("notifications.mqtt_password", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_username", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", d.Cache.TTL.String())
	v.SetDefault("mcp.enabled", d.MCP.Enabled)
	v.SetDefault("storage.data_dir", defaultDataDir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.json", false)

	// Theme defaults
	for k, val := range themeValues(d.Theme) {
		v.SetDefault("theme."+k, val)
	}
}
