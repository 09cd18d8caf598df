package domain

import (
	"fmt"
	"time"
)

// FormatCountdown renders the time left until target as "Hh Mm", "Mm Ss" or
// "Ss". A target that is not in the future renders as "Now".
func FormatCountdown(target, now time.Time) string {
	return FormatRemaining(target.Sub(now))
}

// FormatRemaining renders a duration the way FormatCountdown does.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Now"
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
