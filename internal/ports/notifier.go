package ports

import "context"

// Notifier delivers a short message to the user.
// This is a driven port (implemented by adapters).
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}
