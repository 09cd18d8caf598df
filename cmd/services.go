package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xvierd/anchor-cli/internal/adapters/cache"
	"github.com/xvierd/anchor-cli/internal/adapters/notification"
	"github.com/xvierd/anchor-cli/internal/adapters/prayertimes"
	"github.com/xvierd/anchor-cli/internal/adapters/storage"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/logging"
	"github.com/xvierd/anchor-cli/internal/ports"
	"github.com/xvierd/anchor-cli/internal/services"
)

// redisConnectTimeout bounds the startup ping to the shared cache.
const redisConnectTimeout = 2 * time.Second

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config   *config.Config
	storage  ports.Storage
	redis    *cache.RedisCache
	mqtt     *notification.MQTT
	notifier ports.Notifier
	settings *services.SettingsService
	schedule *services.ScheduleService
	downtime *services.DowntimeService
	engine   *services.Engine
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	logging.Setup(cfg.Logging, nil)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("failed to load config, using defaults")
	}
	app.config = cfg

	// Determine database path
	if dbPath == "" {
		dbPath = config.GetDBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	// Initialize storage
	var err error
	app.storage, err = storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Prayer times come from Aladhan behind the local cache, plus Redis
	// when one is configured.
	caches := []ports.PrayerTimesCache{app.storage.PrayerTimes()}
	if cfg.Cache.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		app.redis, err = cache.NewRedis(pingCtx, cache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Username: cfg.Cache.RedisUsername,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      time.Duration(cfg.Cache.TTL),
		})
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("shared cache unavailable")
		} else {
			caches = append(caches, app.redis)
		}
	}
	client := prayertimes.NewClient(cfg.Prayer.BaseURL, cfg.Prayer.Method, time.Duration(cfg.Prayer.Timeout))
	provider := prayertimes.NewCachedProvider(client, cfg.Prayer.Method, caches...)

	app.notifier = newNotifier(cfg)

	// Initialize services
	app.settings = services.NewSettingsService(app.storage, cfg)
	app.schedule = services.NewScheduleService(provider)
	app.downtime = services.NewDowntimeService(app.settings, app.notifier, cfg)
	app.engine = services.NewEngine(app.settings, app.schedule, app.downtime, app.notifier, cfg)

	return nil
}

// newNotifier builds the notification fan-out from config.
func newNotifier(cfg *config.Config) ports.Notifier {
	if !cfg.Notifications.Enabled {
		return notification.Nop{}
	}
	notifiers := notification.Multi{notification.NewDesktop(&cfg.Notifications)}
	if cfg.Notifications.MQTTBroker != "" {
		m, err := notification.NewMQTT(cfg.Notifications)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.Notifications.MQTTBroker).Msg("mqtt notifications disabled")
		} else {
			app.mqtt = m
			notifiers = append(notifiers, m)
		}
	}
	return notifiers
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var errs []error
	if app.mqtt != nil {
		app.mqtt.Close()
		app.mqtt = nil
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
		app.redis = nil
	}
	if app.storage != nil {
		errs = append(errs, app.storage.Close())
		app.storage = nil
	}
	return errors.Join(errs...)
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
		cancel()
	}()

	return ctx
}
