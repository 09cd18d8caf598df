package ports

import (
	"context"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// MCPStateProvider provides state information to the MCP server.
// This is a driven port (implemented by services layer).
type MCPStateProvider interface {
	// GetCurrentState returns a snapshot without advancing the rotation.
	GetCurrentState(ctx context.Context) (*domain.CurrentState, error)

	// GetTimeline builds today's timeline regardless of the active mode.
	GetTimeline(ctx context.Context) (*domain.Timeline, error)

	// GetDowntimeState returns the stored rotation and when the current
	// activity ends, if it is running.
	GetDowntimeState(ctx context.Context) (*domain.DowntimeState, *time.Time, error)

	// Tick runs one coarse refresh, advancing the rotation if due.
	Tick(ctx context.Context) (*domain.CurrentState, error)

	// SetMode switches between strict and downtime mode.
	SetMode(ctx context.Context, mode domain.ScheduleMode) error

	// ListActivities returns the ordered daily loop.
	ListActivities(ctx context.Context) ([]domain.CustomActivity, error)

	// AddActivity inserts a user activity after the given id, or at the end.
	AddActivity(ctx context.Context, name string, t domain.ActivityType, minutes *int, afterID string) (domain.CustomActivity, error)
}
