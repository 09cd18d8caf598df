package domain

import (
	"fmt"
	"time"
)

// PrayerName identifies one of the five daily prayers.
type PrayerName string

const (
	PrayerFajr    PrayerName = "fajr"
	PrayerDhuhr   PrayerName = "dhuhr"
	PrayerAsr     PrayerName = "asr"
	PrayerMaghrib PrayerName = "maghrib"
	PrayerIsha    PrayerName = "isha"
)

// PrayerOrder lists the prayers in day order. The timeline and every
// iteration over prayers use this sequence.
var PrayerOrder = []PrayerName{
	PrayerFajr,
	PrayerDhuhr,
	PrayerAsr,
	PrayerMaghrib,
	PrayerIsha,
}

// Label returns the display name of the prayer.
func (p PrayerName) Label() string {
	switch p {
	case PrayerFajr:
		return "Fajr"
	case PrayerDhuhr:
		return "Dhuhr"
	case PrayerAsr:
		return "Asr"
	case PrayerMaghrib:
		return "Maghrib"
	case PrayerIsha:
		return "Isha"
	default:
		return "Unknown"
	}
}

// IsPrayerID reports whether id is one of the fixed prayer activity ids.
func IsPrayerID(id string) bool {
	for _, p := range PrayerOrder {
		if string(p) == id {
			return true
		}
	}
	return false
}

// PrayerTimes holds the five HH:MM strings returned by a provider for one day.
type PrayerTimes struct {
	Fajr    string `json:"Fajr"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// Get returns the time string for the given prayer.
func (pt PrayerTimes) Get(p PrayerName) string {
	switch p {
	case PrayerFajr:
		return pt.Fajr
	case PrayerDhuhr:
		return pt.Dhuhr
	case PrayerAsr:
		return pt.Asr
	case PrayerMaghrib:
		return pt.Maghrib
	case PrayerIsha:
		return pt.Isha
	default:
		return ""
	}
}

// Validate checks that all five times are well-formed.
func (pt PrayerTimes) Validate() error {
	for _, p := range PrayerOrder {
		if !ValidTimeOfDay(pt.Get(p)) {
			return fmt.Errorf("%w: %s time %q", ErrInvalidTimeOfDay, p.Label(), pt.Get(p))
		}
	}
	return nil
}

// Anchors holds the absolute instants of one prayer day.
type Anchors struct {
	Fajr    time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// At returns the instant of the given prayer.
func (a Anchors) At(p PrayerName) time.Time {
	switch p {
	case PrayerFajr:
		return a.Fajr
	case PrayerDhuhr:
		return a.Dhuhr
	case PrayerAsr:
		return a.Asr
	case PrayerMaghrib:
		return a.Maghrib
	case PrayerIsha:
		return a.Isha
	default:
		return time.Time{}
	}
}

// ResolveAnchors converts prayer times into instants on the calendar day of
// day in loc. All five anchors land on that day regardless of the hour of
// day passed in.
func ResolveAnchors(pt PrayerTimes, loc *time.Location, day time.Time) (Anchors, error) {
	ref := EndOfDay(day, loc)
	var a Anchors
	for _, p := range PrayerOrder {
		t, err := ParseTimeOfDay(pt.Get(p), loc, ref)
		if err != nil {
			return Anchors{}, fmt.Errorf("failed to parse %s: %w", p.Label(), err)
		}
		switch p {
		case PrayerFajr:
			a.Fajr = t
		case PrayerDhuhr:
			a.Dhuhr = t
		case PrayerAsr:
			a.Asr = t
		case PrayerMaghrib:
			a.Maghrib = t
		case PrayerIsha:
			a.Isha = t
		}
	}

	prev := a.Fajr
	for _, p := range PrayerOrder[1:] {
		if !a.At(p).After(prev) {
			return Anchors{}, fmt.Errorf("%w: %s does not follow the previous prayer", ErrProviderUnavailable, p.Label())
		}
		prev = a.At(p)
	}
	return a, nil
}
