package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// PrayerDay is one resolved prayer day: the anchors from one Fajr up to
// the next.
type PrayerDay struct {
	Date     time.Time
	Times    domain.PrayerTimes
	Anchors  domain.Anchors
	NextFajr time.Time
}

// ScheduleService resolves prayer days and builds timelines.
type ScheduleService struct {
	provider ports.PrayerTimesProvider
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(provider ports.PrayerTimesProvider) *ScheduleService {
	return &ScheduleService{provider: provider}
}

// ResolveDay returns the prayer day containing now. Before today's Fajr
// that is yesterday's day, closed by today's Fajr.
func (s *ScheduleService) ResolveDay(ctx context.Context, loc domain.Location, now time.Time) (*PrayerDay, error) {
	zone, err := loc.Zone()
	if err != nil {
		return nil, err
	}
	local := now.In(zone)
	today := noon(local, 0)

	todayDay, err := s.fetchDay(ctx, loc, zone, today)
	if err != nil {
		return nil, err
	}

	if now.Before(todayDay.Anchors.Fajr) {
		yesterday, err := s.fetchDay(ctx, loc, zone, noon(local, -1))
		if err != nil {
			return nil, err
		}
		yesterday.NextFajr = todayDay.Anchors.Fajr
		return yesterday, nil
	}

	tomorrow, err := s.fetchDay(ctx, loc, zone, noon(local, 1))
	if err != nil {
		return nil, err
	}
	todayDay.NextFajr = tomorrow.Anchors.Fajr
	return todayDay, nil
}

// fetchDay fetches and resolves the anchors of one calendar day.
func (s *ScheduleService) fetchDay(ctx context.Context, loc domain.Location, zone *time.Location, day time.Time) (*PrayerDay, error) {
	times, err := s.provider.Fetch(ctx, day, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prayer times for %s: %w", day.Format("2006-01-02"), err)
	}
	anchors, err := domain.ResolveAnchors(*times, zone, day)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prayer times for %s: %w", day.Format("2006-01-02"), err)
	}
	return &PrayerDay{Date: day, Times: *times, Anchors: anchors}, nil
}

// Timeline builds the timeline of the prayer day containing now.
func (s *ScheduleService) Timeline(ctx context.Context, settings *domain.UserSettings, now time.Time) (*domain.Timeline, *PrayerDay, error) {
	if settings.Location == nil {
		return nil, nil, domain.ErrLocationNotSet
	}
	day, err := s.ResolveDay(ctx, *settings.Location, now)
	if err != nil {
		return nil, nil, err
	}
	tl, err := domain.BuildTimeline(domain.TimelineInput{
		Activities: settings.Schedule,
		Anchors:    day.Anchors,
		NextFajr:   day.NextFajr,
		Now:        now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline: %w", err)
	}
	return tl, day, nil
}

// noon returns midday of the calendar day offset days from t, in t's zone.
// Midday keeps the date stable across DST changes.
func noon(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+offset, 12, 0, 0, 0, t.Location())
}
