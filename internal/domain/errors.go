// Package domain contains the core entities and pure computations for Anchor:
// prayer anchors, the daily timeline, the downtime rotation state machine,
// and countdown formatting. Nothing in this package performs I/O.
package domain

import "errors"

// Common domain errors.
var (
	ErrProviderUnavailable = errors.New("prayer times provider unavailable")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrSettingsNotFound    = errors.New("settings not found")
	ErrLocationNotSet      = errors.New("location not set")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrInvalidTimeOfDay    = errors.New("invalid time of day")
)
