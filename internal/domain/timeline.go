package domain

import (
	"fmt"
	"sort"
	"time"
)

// Synthetic item ids.
const (
	ItemIDTransition = "transition"
	ItemIDReady      = "ready"
	ItemIDNextFajr   = "fajr-next"
	freeTimePrefix   = "free-"
)

// ScheduleItem is one materialized entry of the daily timeline. Items are
// recomputed on every build and never persisted.
type ScheduleItem struct {
	ID          string    `json:"id"`
	ActivityID  string    `json:"activityId,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Start       time.Time `json:"startTime"`
	End         time.Time `json:"endTime"`
	IsPrayer    bool      `json:"isPrayer"`
	IsCustom    bool      `json:"isCustom"`
}

// Duration returns the length of the item.
func (i ScheduleItem) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t falls in [Start, End).
func (i ScheduleItem) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// IsSynthetic reports whether the item was made up by the locator rather
// than laid out from configuration.
func (i ScheduleItem) IsSynthetic() bool {
	return i.ID == ItemIDTransition || i.ID == ItemIDReady
}

// TimelineInput carries everything the builder needs. The builder reads no
// clock; Now is the only notion of the present.
type TimelineInput struct {
	Activities []CustomActivity
	Anchors    Anchors
	NextFajr   time.Time
	Now        time.Time
}

// Timeline is the built schedule for one prayer day plus the located
// current and next items.
type Timeline struct {
	Items        []ScheduleItem `json:"schedule"`
	Current      ScheduleItem   `json:"current"`
	Next         ScheduleItem   `json:"next"`
	CurrentIndex int            `json:"currentIndex"`
}

// block is the span between two consecutive anchors and the activities
// configured for it.
type block struct {
	prayer  CustomActivity
	members []CustomActivity
}

// BuildTimeline lays out the activity list between prayer anchors and
// locates Now within the result.
func BuildTimeline(in TimelineInput) (*Timeline, error) {
	if err := ValidateSchedule(in.Activities); err != nil {
		return nil, err
	}
	if !in.NextFajr.After(in.Anchors.Isha) {
		return nil, fmt.Errorf("%w: next Fajr %s is not after Isha %s",
			ErrProviderUnavailable, in.NextFajr.Format(time.RFC3339), in.Anchors.Isha.Format(time.RFC3339))
	}

	blocks := groupBlocks(in.Activities)
	items := make([]ScheduleItem, 0, len(in.Activities)+len(blocks)+1)

	for bi, b := range blocks {
		prayer := PrayerName(b.prayer.ID)
		anchor := in.Anchors.At(prayer)
		blockEnd := in.NextFajr
		if bi+1 < len(blocks) {
			blockEnd = in.Anchors.At(PrayerName(blocks[bi+1].prayer.ID))
		}

		p := prayerItem(b.prayer, string(prayer), anchor, blockEnd)
		items = append(items, p)
		items = append(items, layoutBlock(b, p.End, blockEnd)...)
	}

	// Close the loop with tomorrow's Fajr.
	items = append(items, prayerItem(blocks[0].prayer, ItemIDNextFajr, in.NextFajr, time.Time{}))

	filtered := items[:0]
	for _, it := range items {
		if it.End.After(it.Start) {
			filtered = append(filtered, it)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Start.Before(filtered[j].Start)
	})

	tl := &Timeline{Items: filtered}
	tl.locate(in.Now)
	return tl, nil
}

// groupBlocks splits the ordered list into one block per prayer, starting at
// Fajr. Activities listed before Fajr wrap into the Isha block.
func groupBlocks(activities []CustomActivity) []block {
	start := 0
	for i, a := range activities {
		if a.ID == string(PrayerFajr) {
			start = i
			break
		}
	}

	blocks := make([]block, 0, len(PrayerOrder))
	n := len(activities)
	for k := 0; k < n; k++ {
		a := activities[(start+k)%n]
		if a.IsPrayer() {
			blocks = append(blocks, block{prayer: a})
			continue
		}
		last := &blocks[len(blocks)-1]
		last.members = append(last.members, a)
	}
	return blocks
}

// prayerItem materializes a prayer at its anchor. A zero limit means the
// item is not clipped.
func prayerItem(a CustomActivity, id string, anchor, limit time.Time) ScheduleItem {
	minutes := DefaultPrayerMinutes
	if a.Duration != nil {
		minutes = *a.Duration
	}
	end := AddMinutes(anchor, minutes)
	if !limit.IsZero() && end.After(limit) {
		end = limit
	}
	return ScheduleItem{
		ID:          id,
		ActivityID:  a.ID,
		Name:        a.Name,
		Description: fmt.Sprintf("%s prayer", PrayerName(a.ID).Label()),
		Start:       anchor,
		End:         end,
		IsPrayer:    true,
	}
}

// layoutBlock places the block's activities back to back from start.
// Actions take their fixed length; fillers split what remains evenly.
func layoutBlock(b block, start, end time.Time) []ScheduleItem {
	span := end.Sub(start)
	if len(b.members) == 0 {
		if span <= time.Minute {
			return nil
		}
		return []ScheduleItem{{
			ID:          freeTimePrefix + b.prayer.ID,
			Name:        "Free Time",
			Description: fmt.Sprintf("Open time after %s", PrayerName(b.prayer.ID).Label()),
			Start:       start,
			End:         end,
		}}
	}

	var actionTotal time.Duration
	fillers := 0
	for _, m := range b.members {
		if m.Type == ActivityFiller {
			fillers++
			continue
		}
		actionTotal += time.Duration(m.Minutes()) * time.Minute
	}

	var share, remainder time.Duration
	if fillers > 0 {
		if free := span - actionTotal; free > 0 {
			share = free / time.Duration(fillers)
			remainder = free - share*time.Duration(fillers)
		}
	}

	items := make([]ScheduleItem, 0, len(b.members))
	cursor := start
	seenFillers := 0
	for _, m := range b.members {
		length := time.Duration(m.Minutes()) * time.Minute
		if m.Type == ActivityFiller {
			seenFillers++
			length = share
			if seenFillers == fillers {
				length += remainder
			}
		}

		itemEnd := cursor.Add(length)
		if itemEnd.After(end) {
			itemEnd = end
		}
		items = append(items, ScheduleItem{
			ID:          m.ID,
			ActivityID:  m.ID,
			Name:        m.Name,
			Description: activityDescription(m),
			Start:       cursor,
			End:         itemEnd,
			IsCustom:    true,
		})
		cursor = itemEnd
	}
	return items
}

func activityDescription(a CustomActivity) string {
	if a.Description != "" {
		return a.Description
	}
	if a.Type == ActivityFiller {
		return "Flexible time"
	}
	return fmt.Sprintf("%d min", a.Minutes())
}

// locate sets Current, Next and CurrentIndex for now. Start is inclusive and
// End exclusive, so a boundary instant belongs to the item that starts there.
func (t *Timeline) locate(now time.Time) {
	n := len(t.Items)
	for i, it := range t.Items {
		if it.Contains(now) {
			t.Current = it
			t.CurrentIndex = i
			t.Next = t.Items[(i+1)%n]
			return
		}
	}

	t.CurrentIndex = -1
	for i, it := range t.Items {
		if !it.Start.After(now) {
			continue
		}
		start := now
		if i > 0 {
			start = t.Items[i-1].End
		}
		t.Current = ScheduleItem{
			ID:          ItemIDTransition,
			Name:        "Transition",
			Description: fmt.Sprintf("Until %s", it.Name),
			Start:       start,
			End:         it.Start,
		}
		t.Next = it
		return
	}

	t.Current = ScheduleItem{
		ID:          ItemIDReady,
		Name:        "Ready",
		Description: "Waiting for the next schedule",
		Start:       now,
		End:         now,
	}
	t.Next = t.Current
	if n > 0 {
		t.Next = t.Items[0]
	}
}

// Remaining returns how long the current item still runs at now.
func (t *Timeline) Remaining(now time.Time) time.Duration {
	if d := t.Current.End.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Progress returns the completed fraction of the current item.
func (t *Timeline) Progress(now time.Time) float64 {
	total := t.Current.Duration()
	if total <= 0 {
		return 0
	}
	elapsed := now.Sub(t.Current.Start)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 1
	}
	return float64(elapsed) / float64(total)
}
