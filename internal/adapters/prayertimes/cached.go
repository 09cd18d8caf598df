package prayertimes

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// CachedProvider consults caches in order before calling the wrapped
// provider, so each location is fetched at most once per day.
type CachedProvider struct {
	provider ports.PrayerTimesProvider
	caches   []ports.PrayerTimesCache
	method   int
}

// Ensure CachedProvider implements ports.PrayerTimesProvider.
var _ ports.PrayerTimesProvider = (*CachedProvider)(nil)

// NewCachedProvider wraps provider with the given caches. Nil caches are
// skipped.
func NewCachedProvider(provider ports.PrayerTimesProvider, method int, caches ...ports.PrayerTimesCache) *CachedProvider {
	cp := &CachedProvider{provider: provider, method: method}
	for _, c := range caches {
		if c != nil {
			cp.caches = append(cp.caches, c)
		}
	}
	return cp
}

// Fetch returns cached prayer times or fetches and stores them.
func (p *CachedProvider) Fetch(ctx context.Context, date time.Time, lat, lon float64) (*domain.PrayerTimes, error) {
	key := ports.NewPrayerTimesKey(date, date.Location(), lat, lon, p.method)

	for i, c := range p.caches {
		times, err := c.Get(ctx, key)
		if err == nil && times.Validate() == nil {
			p.fill(ctx, key, times, p.caches[:i])
			return times, nil
		}
		if err != nil && !errors.Is(err, ports.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key.String()).Msg("prayer times cache read failed")
		}
	}

	times, err := p.provider.Fetch(ctx, date, lat, lon)
	if err != nil {
		return nil, err
	}
	p.fill(ctx, key, times, p.caches)
	return times, nil
}

// fill writes times into caches, logging failures.
func (p *CachedProvider) fill(ctx context.Context, key ports.PrayerTimesKey, times *domain.PrayerTimes, caches []ports.PrayerTimesCache) {
	for _, c := range caches {
		if err := c.Put(ctx, key, times); err != nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("prayer times cache write failed")
		}
	}
}
