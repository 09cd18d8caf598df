// Package ports defines the interfaces (driven and driving ports)
// for the Anchor application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
)

// ErrCacheMiss is returned by a PrayerTimesCache that has no entry for a key.
var ErrCacheMiss = errors.New("cache miss")

// SettingsRepository persists the single UserSettings document.
// This is a driven port (implemented by adapters).
type SettingsRepository interface {
	// Get returns the stored settings or domain.ErrSettingsNotFound.
	Get(ctx context.Context) (*domain.UserSettings, error)

	// Set replaces the stored settings.
	Set(ctx context.Context, settings *domain.UserSettings) error

	// Delete removes the stored settings. Deleting nothing is not an error.
	Delete(ctx context.Context) error
}

// PrayerTimesKey identifies one day of prayer times for one location.
type PrayerTimesKey struct {
	Date      string
	Latitude  float64
	Longitude float64
	Method    int
}

// NewPrayerTimesKey builds a cache key for the calendar day of date in loc.
// Coordinates are rounded to two decimals (about 1 km) so small GPS jitter
// hits the same entry.
func NewPrayerTimesKey(date time.Time, loc *time.Location, lat, lon float64, method int) PrayerTimesKey {
	if loc == nil {
		loc = time.Local
	}
	return PrayerTimesKey{
		Date:      date.In(loc).Format("2006-01-02"),
		Latitude:  math.Round(lat*100) / 100,
		Longitude: math.Round(lon*100) / 100,
		Method:    method,
	}
}

// String returns the canonical form used by key-value caches.
func (k PrayerTimesKey) String() string {
	return fmt.Sprintf("%s:%.2f:%.2f:%d", k.Date, k.Latitude, k.Longitude, k.Method)
}

// PrayerTimesCache stores provider responses per day and location.
// This is a driven port (implemented by adapters).
type PrayerTimesCache interface {
	// Get returns the cached times or ErrCacheMiss.
	Get(ctx context.Context, key PrayerTimesKey) (*domain.PrayerTimes, error)

	// Put stores the times for key.
	Put(ctx context.Context, key PrayerTimesKey, times *domain.PrayerTimes) error
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Settings provides access to the settings document.
	Settings() SettingsRepository

	// PrayerTimes provides access to the local prayer times cache.
	PrayerTimes() PrayerTimesCache

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
