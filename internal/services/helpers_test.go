package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xvierd/anchor-cli/internal/adapters/storage"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// at returns a fixture instant on 2024-03-10 UTC. Hours outside 0-23
// roll into the neighbouring days.
func at(h, m int) time.Time {
	return time.Date(2024, 3, 10, h, m, 0, 0, time.UTC)
}

func setupTestStorage(t *testing.T) ports.Storage {
	t.Helper()
	s, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeProvider returns the same five times for every date.
type fakeProvider struct {
	mu    sync.Mutex
	times domain.PrayerTimes
	err   error
	dates []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{times: domain.PrayerTimes{
		Fajr: "05:00", Dhuhr: "12:00", Asr: "15:30", Maghrib: "18:00", Isha: "19:30",
	}}
}

func (f *fakeProvider) Fetch(ctx context.Context, date time.Time, lat, lon float64) (*domain.PrayerTimes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date.Format("2006-01-02"))
	if f.err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, f.err)
	}
	pt := f.times
	return &pt, nil
}

// recorder is a notifier that keeps what it was asked to send.
type recorder struct {
	mu     sync.Mutex
	titles []string
	texts  []string
	err    error
}

func (r *recorder) Send(ctx context.Context, title, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

type testEnv struct {
	storage  ports.Storage
	provider *fakeProvider
	notifier *recorder
	cfg      *config.Config
	settings *SettingsService
	schedule *ScheduleService
	downtime *DowntimeService
	engine   *Engine
	clock    time.Time
}

// newTestEnv wires the services over in-memory storage. The settings
// service clock reads env.clock.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		storage:  setupTestStorage(t),
		provider: newFakeProvider(),
		notifier: &recorder{},
		cfg:      config.DefaultConfig(),
		clock:    at(10, 0),
	}
	env.settings = NewSettingsService(env.storage, env.cfg)
	env.settings.now = func() time.Time { return env.clock }
	env.schedule = NewScheduleService(env.provider)
	env.downtime = NewDowntimeService(env.settings, env.notifier, env.cfg)
	env.engine = NewEngine(env.settings, env.schedule, env.downtime, env.notifier, env.cfg)
	env.engine.now = func() time.Time { return env.clock }
	return env
}

// setup stores settings for a UTC location.
func (env *testEnv) setup(t *testing.T) *domain.UserSettings {
	t.Helper()
	us, err := env.settings.Setup(context.Background(), SetupRequest{
		Latitude: 30.04, Longitude: 31.24, City: "Cairo", Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return us
}
