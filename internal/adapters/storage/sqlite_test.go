package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

func setupTestStorage(t *testing.T) ports.Storage {
	t.Helper()
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func newTestSettings(t *testing.T) *domain.UserSettings {
	t.Helper()
	s, err := domain.NewUserSettings(domain.Location{Latitude: 30.04, Longitude: 31.24, City: "Cairo", Timezone: "UTC"}, time.Now())
	if err != nil {
		t.Fatalf("NewUserSettings() error = %v", err)
	}
	return s
}

func TestNewMemory(t *testing.T) {
	storage := setupTestStorage(t)
	if storage == nil {
		t.Error("NewMemory() returned nil storage")
	}
	if err := storage.Migrate(); err != nil {
		t.Errorf("Migrate() twice error = %v", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()
	repo := storage.Settings()

	t.Run("get before set", func(t *testing.T) {
		_, err := repo.Get(ctx)
		if !errors.Is(err, domain.ErrSettingsNotFound) {
			t.Errorf("Get() error = %v, want ErrSettingsNotFound", err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		s := newTestSettings(t)
		s.Mode = domain.ModeDowntime
		if err := repo.Set(ctx, s); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := repo.Get(ctx)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Mode != domain.ModeDowntime {
			t.Errorf("Mode = %v, want downtime", got.Mode)
		}
		if got.Location == nil || got.Location.City != "Cairo" {
			t.Errorf("Location = %+v", got.Location)
		}
		if len(got.Schedule) != len(domain.PrayerOrder) {
			t.Errorf("Schedule has %d entries, want %d", len(got.Schedule), len(domain.PrayerOrder))
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newTestSettings(t)
		s.MealMode = domain.MealModeFasting
		if err := repo.Set(ctx, s); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := repo.Get(ctx)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.MealMode != domain.MealModeFasting || got.Mode != domain.ModeStrict {
			t.Errorf("Get() = mode %v meal %v", got.Mode, got.MealMode)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.Get(ctx); !errors.Is(err, domain.ErrSettingsNotFound) {
			t.Errorf("Get() after delete error = %v", err)
		}
		if err := repo.Delete(ctx); err != nil {
			t.Errorf("Delete() on empty store error = %v", err)
		}
	})
}

func TestSettingsRepository_PreservesDowntimeState(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	s := newTestSettings(t)
	start := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	s.Downtime.CurrentActivity = domain.ActivityGrip
	s.Downtime.ActivityStartTime = &start
	s.Downtime.PausedState = &domain.PausedState{Activity: "Quran", RemainingTime: 20 * time.Minute}

	if err := storage.Settings().Set(ctx, s); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := storage.Settings().Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Downtime.PausedState == nil || got.Downtime.PausedState.RemainingTime != 20*time.Minute {
		t.Errorf("PausedState = %+v", got.Downtime.PausedState)
	}
	if got.Downtime.ActivityStartTime == nil || !got.Downtime.ActivityStartTime.Equal(start) {
		t.Errorf("ActivityStartTime = %v, want %v", got.Downtime.ActivityStartTime, start)
	}
}

func TestPrayerTimesRepository(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()
	cache := storage.PrayerTimes()

	key := ports.NewPrayerTimesKey(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC, 30.04, 31.24, 5)
	times := &domain.PrayerTimes{Fajr: "04:38", Dhuhr: "12:02", Asr: "15:28", Maghrib: "17:59", Isha: "19:17"}

	if _, err := cache.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("Get() before put error = %v, want ErrCacheMiss", err)
	}

	if err := cache.Put(ctx, key, times); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if *got != *times {
		t.Errorf("Get() = %+v, want %+v", got, times)
	}

	updated := *times
	updated.Isha = "19:20"
	if err := cache.Put(ctx, key, &updated); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	got, _ = cache.Get(ctx, key)
	if got.Isha != "19:20" {
		t.Errorf("Isha = %q after overwrite", got.Isha)
	}

	other := key
	other.Date = "2024-03-11"
	if _, err := cache.Get(ctx, other); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("Get() other day error = %v, want ErrCacheMiss", err)
	}
}

func TestNew_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchor.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Settings().Set(ctx, newTestSettings(t)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_ = first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	got, err := second.Settings().Get(ctx)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Location.City != "Cairo" {
		t.Errorf("City = %q, want Cairo", got.Location.City)
	}
}
