package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// prayerTimesRepository caches provider responses in SQLite.
type prayerTimesRepository struct {
	db *sql.DB
}

// newPrayerTimesRepository creates a new prayer times cache.
func newPrayerTimesRepository(db *sql.DB) ports.PrayerTimesCache {
	return &prayerTimesRepository{db: db}
}

// Get returns the cached times for key.
func (r *prayerTimesRepository) Get(ctx context.Context, key ports.PrayerTimesKey) (*domain.PrayerTimes, error) {
	query := `
		SELECT fajr, dhuhr, asr, maghrib, isha
		FROM prayer_times
		WHERE date = ? AND latitude = ? AND longitude = ? AND method = ?
	`

	var pt domain.PrayerTimes
	err := r.db.QueryRowContext(ctx, query, key.Date, key.Latitude, key.Longitude, key.Method).Scan(
		&pt.Fajr,
		&pt.Dhuhr,
		&pt.Asr,
		&pt.Maghrib,
		&pt.Isha,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prayer times: %w", err)
	}
	return &pt, nil
}

// Put stores the times for key, replacing any earlier entry.
func (r *prayerTimesRepository) Put(ctx context.Context, key ports.PrayerTimesKey, times *domain.PrayerTimes) error {
	if times == nil {
		return fmt.Errorf("failed to cache prayer times: nil times")
	}

	query := `
		INSERT INTO prayer_times (date, latitude, longitude, method, fajr, dhuhr, asr, maghrib, isha, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, latitude, longitude, method) DO UPDATE SET
			fajr = excluded.fajr,
			dhuhr = excluded.dhuhr,
			asr = excluded.asr,
			maghrib = excluded.maghrib,
			isha = excluded.isha,
			fetched_at = excluded.fetched_at
	`

	_, err := r.db.ExecContext(ctx, query,
		key.Date,
		key.Latitude,
		key.Longitude,
		key.Method,
		times.Fajr,
		times.Dhuhr,
		times.Asr,
		times.Maghrib,
		times.Isha,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache prayer times: %w", err)
	}
	return nil
}
