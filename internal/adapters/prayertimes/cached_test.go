package prayertimes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/anchor-cli/internal/adapters/storage"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

type fakeProvider struct {
	calls int
	times *domain.PrayerTimes
	err   error
}

func (f *fakeProvider) Fetch(ctx context.Context, date time.Time, lat, lon float64) (*domain.PrayerTimes, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t := *f.times
	return &t, nil
}

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key ports.PrayerTimesKey) (*domain.PrayerTimes, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Put(ctx context.Context, key ports.PrayerTimesKey, times *domain.PrayerTimes) error {
	return errors.New("connection refused")
}

var cairoTimes = &domain.PrayerTimes{Fajr: "04:38", Dhuhr: "12:02", Asr: "15:28", Maghrib: "17:59", Isha: "19:17"}

func setupCache(t *testing.T) ports.PrayerTimesCache {
	t.Helper()
	s, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.PrayerTimes()
}

func TestCachedProviderFetchesOncePerDay(t *testing.T) {
	ctx := context.Background()
	inner := &fakeProvider{times: cairoTimes}
	p := NewCachedProvider(inner, DefaultMethod, setupCache(t))

	for i := 0; i < 3; i++ {
		got, err := p.Fetch(ctx, testDate.Add(time.Duration(i)*time.Hour), 30.0444, 31.2357)
		require.NoError(t, err)
		assert.Equal(t, *cairoTimes, *got)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := p.Fetch(ctx, testDate.AddDate(0, 0, 1), 30.0444, 31.2357)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	_, err = p.Fetch(ctx, testDate, 21.42, 39.82)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedProviderBackfillsEarlierCaches(t *testing.T) {
	ctx := context.Background()
	local, shared := setupCache(t), setupCache(t)
	key := ports.NewPrayerTimesKey(testDate, time.UTC, 30.0444, 31.2357, DefaultMethod)
	require.NoError(t, shared.Put(ctx, key, cairoTimes))

	inner := &fakeProvider{err: domain.ErrProviderUnavailable}
	p := NewCachedProvider(inner, DefaultMethod, local, shared)

	got, err := p.Fetch(ctx, testDate, 30.0444, 31.2357)
	require.NoError(t, err)
	assert.Equal(t, *cairoTimes, *got)
	assert.Zero(t, inner.calls)

	warmed, err := local.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, *cairoTimes, *warmed)
}

func TestCachedProviderSurvivesBrokenCache(t *testing.T) {
	inner := &fakeProvider{times: cairoTimes}
	p := NewCachedProvider(inner, DefaultMethod, brokenCache{}, nil)

	got, err := p.Fetch(context.Background(), testDate, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, *cairoTimes, *got)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProviderPropagatesProviderError(t *testing.T) {
	inner := &fakeProvider{err: domain.ErrProviderUnavailable}
	p := NewCachedProvider(inner, DefaultMethod, setupCache(t))

	_, err := p.Fetch(context.Background(), testDate, 1, 2)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
