package ports

import (
	"context"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
)

// PrayerTimesProvider fetches the five prayer times for a calendar day.
// Failures wrap domain.ErrProviderUnavailable; values are never made up.
// This is a driven port (implemented by adapters).
type PrayerTimesProvider interface {
	Fetch(ctx context.Context, date time.Time, lat, lon float64) (*domain.PrayerTimes, error)
}
