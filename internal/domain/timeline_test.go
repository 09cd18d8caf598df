package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrayerTimes = PrayerTimes{
	Fajr:    "05:00",
	Dhuhr:   "12:00",
	Asr:     "15:30",
	Maghrib: "18:00",
	Isha:    "19:30",
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 10, h, m, 0, 0, time.UTC)
}

func minutes(n int) *int {
	return &n
}

func testAnchors(t *testing.T) (Anchors, time.Time) {
	t.Helper()
	day := at(9, 0)
	anchors, err := ResolveAnchors(testPrayerTimes, time.UTC, day)
	require.NoError(t, err)
	next, err := ParseTimeOfDay(testPrayerTimes.Fajr, time.UTC, EndOfDay(day.AddDate(0, 0, 1), time.UTC))
	require.NoError(t, err)
	return anchors, next
}

// scheduleWith returns the five prayers with extra activities placed after
// the given prayer.
func scheduleWith(after PrayerName, extra ...CustomActivity) []CustomActivity {
	var out []CustomActivity
	for _, p := range PrayerOrder {
		out = append(out, PrayerActivity(p))
		if p == after {
			out = append(out, extra...)
		}
	}
	return out
}

func build(t *testing.T, activities []CustomActivity, now time.Time) *Timeline {
	t.Helper()
	anchors, next := testAnchors(t)
	tl, err := BuildTimeline(TimelineInput{
		Activities: activities,
		Anchors:    anchors,
		NextFajr:   next,
		Now:        now,
	})
	require.NoError(t, err)
	return tl
}

func assertNoOverlap(t *testing.T, items []ScheduleItem) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Start.Before(items[i-1].End),
			"%s [%s] overlaps %s [%s]", items[i].Name, items[i].Start.Format("15:04"),
			items[i-1].Name, items[i-1].End.Format("15:04"))
	}
	for _, it := range items {
		assert.True(t, it.End.After(it.Start), "%s has non-positive length", it.Name)
	}
}

func TestResolveAnchors(t *testing.T) {
	anchors, next := testAnchors(t)

	assert.Equal(t, at(5, 0), anchors.Fajr)
	assert.Equal(t, at(12, 0), anchors.Dhuhr)
	assert.Equal(t, at(19, 30), anchors.Isha)
	assert.Equal(t, time.Date(2024, 3, 11, 5, 0, 0, 0, time.UTC), next)

	bad := testPrayerTimes
	bad.Asr = "11:00"
	_, err := ResolveAnchors(bad, time.UTC, at(9, 0))
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	bad = testPrayerTimes
	bad.Maghrib = "late"
	_, err = ResolveAnchors(bad, time.UTC, at(9, 0))
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestBuildTimelineDefaultScheduleTiles(t *testing.T) {
	tl := build(t, DefaultSchedule(), at(6, 0))

	// Five prayers, five Free Time blocks, and the next Fajr.
	require.Len(t, tl.Items, 11)
	assertNoOverlap(t, tl.Items)
	for i := 1; i < len(tl.Items); i++ {
		assert.Equal(t, tl.Items[i-1].End, tl.Items[i].Start, "gap before %s", tl.Items[i].Name)
	}

	first, last := tl.Items[0], tl.Items[len(tl.Items)-1]
	assert.Equal(t, "fajr", first.ID)
	assert.Equal(t, at(5, 15), first.End)
	assert.Equal(t, ItemIDNextFajr, last.ID)
	assert.True(t, last.IsPrayer)
	assert.Equal(t, "Free Time", tl.Items[1].Name)
	assert.False(t, tl.Items[1].IsCustom)
}

func TestBuildTimelineFillerShare(t *testing.T) {
	exercise := CustomActivity{ID: "exercise", Name: "Exercise", Type: ActivityAction, Duration: minutes(30)}
	work := CustomActivity{ID: "work", Name: "Deep Work", Type: ActivityFiller}

	tl := build(t, scheduleWith(PrayerFajr, exercise, work), at(6, 0))
	assertNoOverlap(t, tl.Items)

	require.Equal(t, "exercise", tl.Items[1].ID)
	require.Equal(t, "work", tl.Items[2].ID)
	assert.Equal(t, at(5, 15), tl.Items[1].Start)
	assert.Equal(t, at(5, 45), tl.Items[1].End)

	// Dhuhr - Fajr - 15 (prayer) - 30 (action).
	want := at(12, 0).Sub(at(5, 0)) - 15*time.Minute - 30*time.Minute
	assert.Equal(t, want, tl.Items[2].Duration())
	assert.Equal(t, at(12, 0), tl.Items[2].End)
	assert.True(t, tl.Items[2].IsCustom)

	assert.Equal(t, "work", tl.Current.ID)
	assert.Equal(t, "dhuhr", tl.Next.ID)
}

func TestBuildTimelineFillersSplitEvenly(t *testing.T) {
	a := CustomActivity{ID: "a", Name: "A", Type: ActivityFiller}
	b := CustomActivity{ID: "b", Name: "B", Type: ActivityFiller}
	c := CustomActivity{ID: "c", Name: "C", Type: ActivityFiller}

	// Asr block: 15:45 to 18:00 is 135 minutes.
	tl := build(t, scheduleWith(PrayerAsr, a, b, c), at(16, 0))
	assertNoOverlap(t, tl.Items)

	var total time.Duration
	for _, it := range tl.Items {
		if it.IsCustom {
			assert.Equal(t, 45*time.Minute, it.Duration(), it.ID)
			total += it.Duration()
		}
	}
	assert.Equal(t, 135*time.Minute, total)
}

func TestBuildTimelineOvercommittedBlockIsClipped(t *testing.T) {
	long := CustomActivity{ID: "long", Name: "Long", Type: ActivityAction, Duration: minutes(500)}
	filler := CustomActivity{ID: "filler", Name: "Filler", Type: ActivityFiller}

	tl := build(t, scheduleWith(PrayerFajr, long, filler), at(6, 0))
	assertNoOverlap(t, tl.Items)

	require.Equal(t, "long", tl.Items[1].ID)
	assert.Equal(t, at(12, 0), tl.Items[1].End)
	assert.Equal(t, "dhuhr", tl.Items[2].ID)
	for _, it := range tl.Items {
		assert.NotEqual(t, "filler", it.ID, "zero-length filler must be dropped")
	}
}

func TestBuildTimelineActivitiesBeforeFajrWrapIntoIsha(t *testing.T) {
	sleep := CustomActivity{ID: "sleep", Name: "Sleep", Type: ActivityFiller}
	activities := append([]CustomActivity{sleep}, DefaultSchedule()...)

	tl := build(t, activities, at(22, 0))
	assertNoOverlap(t, tl.Items)

	assert.Equal(t, "sleep", tl.Current.ID)
	assert.Equal(t, at(19, 45), tl.Current.Start)
	assert.Equal(t, time.Date(2024, 3, 11, 5, 0, 0, 0, time.UTC), tl.Current.End)
	assert.Equal(t, ItemIDNextFajr, tl.Next.ID)
}

func TestBuildTimelineLocate(t *testing.T) {
	read := CustomActivity{ID: "read", Name: "Read", Type: ActivityAction, Duration: minutes(10)}
	activities := scheduleWith(PrayerFajr, read)

	tests := []struct {
		name      string
		now       time.Time
		current   string
		next      string
		wantIndex bool
	}{
		{name: "prayer boundary belongs to prayer", now: at(12, 0), current: "dhuhr", next: "free-dhuhr", wantIndex: true},
		{name: "inside action", now: at(5, 20), current: "read", next: "dhuhr", wantIndex: true},
		{name: "end boundary belongs to next", now: at(5, 15), current: "read", wantIndex: true},
		{name: "gap is transition", now: at(6, 0), current: ItemIDTransition, next: "dhuhr"},
		{name: "before first item", now: at(4, 0), current: ItemIDTransition, next: "fajr"},
		{name: "next fajr wraps", now: time.Date(2024, 3, 11, 5, 10, 0, 0, time.UTC), current: ItemIDNextFajr, next: "fajr", wantIndex: true},
		{name: "after last item is ready", now: time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC), current: ItemIDReady, next: "fajr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := build(t, activities, tt.now)
			assert.Equal(t, tt.current, tl.Current.ID)
			if tt.next != "" {
				assert.Equal(t, tt.next, tl.Next.ID)
			}
			if tt.wantIndex {
				require.GreaterOrEqual(t, tl.CurrentIndex, 0)
				assert.Equal(t, tl.Items[tl.CurrentIndex].ID, tl.Current.ID)
				assert.Equal(t, tl.Items[(tl.CurrentIndex+1)%len(tl.Items)], tl.Next)
			} else {
				assert.Equal(t, -1, tl.CurrentIndex)
			}
		})
	}
}

func TestBuildTimelineTransitionSpan(t *testing.T) {
	read := CustomActivity{ID: "read", Name: "Read", Type: ActivityAction, Duration: minutes(10)}
	tl := build(t, scheduleWith(PrayerFajr, read), at(6, 0))

	require.Equal(t, ItemIDTransition, tl.Current.ID)
	assert.Equal(t, at(5, 25), tl.Current.Start)
	assert.Equal(t, at(12, 0), tl.Current.End)
	assert.True(t, tl.Current.IsSynthetic())
	assert.Equal(t, 6*time.Hour, tl.Remaining(at(6, 0)))

	early := build(t, DefaultSchedule(), at(4, 0))
	assert.Equal(t, at(4, 0), early.Current.Start)
	assert.Equal(t, at(5, 0), early.Current.End)
}

func TestBuildTimelineReadyIsZeroLength(t *testing.T) {
	now := time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)
	tl := build(t, DefaultSchedule(), now)

	assert.Equal(t, ItemIDReady, tl.Current.ID)
	assert.Equal(t, now, tl.Current.Start)
	assert.Equal(t, now, tl.Current.End)
	assert.Zero(t, tl.Remaining(now))
	assert.Zero(t, tl.Progress(now))
}

func TestBuildTimelineIsIdempotent(t *testing.T) {
	activities := scheduleWith(PrayerMaghrib,
		CustomActivity{ID: "dinner", Name: "Dinner", Type: ActivityAction, Duration: minutes(40)},
		CustomActivity{ID: "family", Name: "Family", Type: ActivityFiller},
	)
	first := build(t, activities, at(18, 30))
	second := build(t, activities, at(18, 30))
	assert.Equal(t, first, second)
}

func TestBuildTimelinePrayerDurationOverride(t *testing.T) {
	activities := DefaultSchedule()
	activities[1].Duration = minutes(30)

	tl := build(t, activities, at(12, 10))
	assert.Equal(t, "dhuhr", tl.Current.ID)
	assert.Equal(t, at(12, 30), tl.Current.End)
	assert.InDelta(t, 1.0/3.0, tl.Progress(at(12, 10)), 0.0001)
}

func TestBuildTimelineValidation(t *testing.T) {
	withoutAsr := func() []CustomActivity {
		s := DefaultSchedule()
		return append(s[:2], s[3:]...)
	}
	swapped := func() []CustomActivity {
		s := DefaultSchedule()
		s[1], s[2] = s[2], s[1]
		return s
	}
	duplicateID := scheduleWith(PrayerFajr,
		CustomActivity{ID: "x", Name: "One", Type: ActivityFiller},
		CustomActivity{ID: "x", Name: "Two", Type: ActivityFiller},
	)

	tests := []struct {
		name       string
		activities []CustomActivity
	}{
		{name: "missing prayer", activities: withoutAsr()},
		{name: "prayers out of order", activities: swapped()},
		{name: "duplicate prayer", activities: append(DefaultSchedule(), PrayerActivity(PrayerFajr))},
		{name: "duplicate id", activities: duplicateID},
		{name: "empty name", activities: scheduleWith(PrayerFajr, CustomActivity{ID: "x", Type: ActivityFiller})},
		{name: "unknown type", activities: scheduleWith(PrayerFajr, CustomActivity{ID: "x", Name: "X", Type: "chore"})},
		{name: "action without duration", activities: scheduleWith(PrayerFajr, CustomActivity{ID: "x", Name: "X", Type: ActivityAction})},
		{name: "negative duration", activities: scheduleWith(PrayerFajr, CustomActivity{ID: "x", Name: "X", Type: ActivityFiller, Duration: minutes(-5)})},
		{name: "empty", activities: nil},
	}

	anchors, next := testAnchors(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTimeline(TimelineInput{Activities: tt.activities, Anchors: anchors, NextFajr: next, Now: at(6, 0)})
			if !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("BuildTimeline() error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestBuildTimelineRejectsNextFajrBeforeIsha(t *testing.T) {
	anchors, _ := testAnchors(t)
	_, err := BuildTimeline(TimelineInput{
		Activities: DefaultSchedule(),
		Anchors:    anchors,
		NextFajr:   at(19, 0),
		Now:        at(6, 0),
	})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
