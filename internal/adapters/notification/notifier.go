// Package notification provides desktop and MQTT notification senders.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/xvierd/anchor-cli/internal/config"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// Desktop handles desktop notifications.
type Desktop struct {
	cfg    *config.NotificationConfig
	notify func(title, message string) error
}

// Ensure Desktop implements ports.Notifier.
var _ ports.Notifier = (*Desktop)(nil)

// NewDesktop creates a new desktop notifier with the given configuration.
func NewDesktop(cfg *config.NotificationConfig) *Desktop {
	return &Desktop{
		cfg: cfg,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Send displays a desktop notification if enabled.
func (n *Desktop) Send(ctx context.Context, title, text string) error {
	if !n.IsEnabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.notify(title, text); err != nil {
		return fmt.Errorf("failed to show desktop notification: %w", err)
	}
	return nil
}

// IsEnabled returns true if desktop notifications are enabled.
func (n *Desktop) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled && n.cfg.Desktop
}

// Multi fans a notification out to several senders. Every sender is tried;
// failures are joined.
type Multi []ports.Notifier

// Ensure Multi implements ports.Notifier.
var _ ports.Notifier = Multi(nil)

// Send delivers to every sender.
func (m Multi) Send(ctx context.Context, title, text string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards notifications.
type Nop struct{}

// Send does nothing.
func (Nop) Send(context.Context, string, string) error {
	return nil
}
