// Package storage provides SQLite implementations of the storage ports.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/xvierd/anchor-cli/internal/ports"
	_ "modernc.org/sqlite"
)

// sqliteStorage implements the ports.Storage interface using SQLite.
type sqliteStorage struct {
	db           *sql.DB
	settingsRepo ports.SettingsRepository
	prayerCache  ports.PrayerTimesCache
}

// Ensure sqliteStorage implements ports.Storage.
var _ ports.Storage = (*sqliteStorage)(nil)

// New creates a new SQLite storage instance.
func New(dbPath string) (ports.Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serialises writers to the settings document and keeps
	// an in-memory database shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	storage := &sqliteStorage{
		db:           db,
		settingsRepo: newSettingsRepository(db),
		prayerCache:  newPrayerTimesRepository(db),
	}

	if err := storage.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// NewMemory creates a new in-memory SQLite storage instance for testing.
func NewMemory() (ports.Storage, error) {
	return New(":memory:")
}

// Settings returns the settings repository.
func (s *sqliteStorage) Settings() ports.SettingsRepository {
	return s.settingsRepo
}

// PrayerTimes returns the prayer times cache.
func (s *sqliteStorage) PrayerTimes() ports.PrayerTimesCache {
	return s.prayerCache
}

// Close closes the database connection.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// Migrate creates the database schema.
func (s *sqliteStorage) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS prayer_times (
		date TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		method INTEGER NOT NULL,
		fajr TEXT NOT NULL,
		dhuhr TEXT NOT NULL,
		asr TEXT NOT NULL,
		maghrib TEXT NOT NULL,
		isha TEXT NOT NULL,
		fetched_at DATETIME NOT NULL,
		PRIMARY KEY (date, latitude, longitude, method)
	);

	CREATE INDEX IF NOT EXISTS idx_prayer_times_fetched ON prayer_times(fetched_at);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}
