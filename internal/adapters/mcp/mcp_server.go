// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.MCPStateProvider
	ctx           context.Context
	cancel        context.CancelFunc
	now           func() time.Time
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.MCPStateProvider, version string) *Server {
	s := &Server{
		stateProvider: stateProvider,
		now:           time.Now,
	}

	s.server = server.NewMCPServer(
		"anchor",
		version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_current_state",
			mcp.WithDescription("Get what should be happening now: the current and next item, countdown, and mode"),
		),
		s.handleGetCurrentState,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_timeline",
			mcp.WithDescription("Get today's prayer-anchored timeline with start and end times for every item"),
		),
		s.handleGetTimeline,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_downtime_state",
			mcp.WithDescription("Get the downtime rotation: activities, current activity, grip status, and paused activity"),
		),
		s.handleGetDowntimeState,
	)

	s.server.AddTool(
		mcp.NewTool(
			"tick",
			mcp.WithDescription("Run one refresh, advancing the downtime rotation if a transition is due"),
		),
		s.handleTick,
	)

	setModeTool := mcp.NewTool(
		"set_mode",
		mcp.WithDescription("Switch between the strict prayer schedule and the downtime rotation"),
		mcp.WithString(
			"mode",
			mcp.Required(),
			mcp.Description("Schedule mode"),
			mcp.Enum(string(domain.ModeStrict), string(domain.ModeDowntime)),
		),
	)
	s.server.AddTool(setModeTool, s.handleSetMode)

	s.server.AddTool(
		mcp.NewTool(
			"list_activities",
			mcp.WithDescription("List the ordered daily loop of prayers and activities"),
		),
		s.handleListActivities,
	)

	addActivityTool := mcp.NewTool(
		"add_activity",
		mcp.WithDescription("Add an activity to the daily loop"),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("The name of the activity"),
		),
		mcp.WithString(
			"type",
			mcp.Description("action has a fixed length, filler shares the free time of its block (default: filler)"),
			mcp.Enum(string(domain.ActivityAction), string(domain.ActivityFiller)),
		),
		mcp.WithNumber(
			"duration_minutes",
			mcp.Description("Length in minutes, required for actions"),
		),
		mcp.WithString(
			"after",
			mcp.Description("Id or name of the activity to insert after, for example dhuhr (default: end of the loop)"),
		),
	)
	s.server.AddTool(addActivityTool, s.handleAddActivity)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

// handleGetCurrentState handles the get_current_state tool.
func (s *Server) handleGetCurrentState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.GetCurrentState(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get current state: %v", err)), nil
	}
	return jsonResult(stateData(state, s.now()))
}

// handleGetTimeline handles the get_timeline tool.
func (s *Server) handleGetTimeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tl, err := s.stateProvider.GetTimeline(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build timeline: %v", err)), nil
	}

	items := make([]map[string]interface{}, 0, len(tl.Items))
	for i, it := range tl.Items {
		items = append(items, map[string]interface{}{
			"id":          it.ID,
			"name":        it.Name,
			"description": it.Description,
			"start":       it.Start.Format(timeLayout),
			"end":         it.End.Format(timeLayout),
			"is_prayer":   it.IsPrayer,
			"is_custom":   it.IsCustom,
			"is_current":  i == tl.CurrentIndex,
		})
	}

	return jsonResult(map[string]interface{}{
		"items":       items,
		"total_count": len(items),
		"current":     itemData(tl.Current),
		"next":        itemData(tl.Next),
		"remaining":   domain.FormatRemaining(tl.Remaining(s.now())),
	})
}

// handleGetDowntimeState handles the get_downtime_state tool.
func (s *Server) handleGetDowntimeState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ds, endsAt, err := s.stateProvider.GetDowntimeState(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get downtime state: %v", err)), nil
	}
	return jsonResult(downtimeData(ds, endsAt, s.now()))
}

// handleTick handles the tick tool.
func (s *Server) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.Tick(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to tick: %v", err)), nil
	}
	result := stateData(state, s.now())
	result["transition"] = string(state.Tick)
	result["notified"] = state.Notified
	return jsonResult(result)
}

// handleSetMode handles the set_mode tool.
func (s *Server) handleSetMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError("mode is required: " + err.Error()), nil
	}
	mode, err := domain.ValidateMode(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.stateProvider.SetMode(ctx, mode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set mode: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"mode":  string(mode),
		"label": mode.Label(),
	})
}

// handleListActivities handles the list_activities tool.
func (s *Server) handleListActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	activities, err := s.stateProvider.ListActivities(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list activities: %v", err)), nil
	}

	list := make([]map[string]interface{}, 0, len(activities))
	for i, a := range activities {
		list = append(list, activityData(i, a))
	}
	return jsonResult(map[string]interface{}{
		"activities":  list,
		"total_count": len(list),
	})
}

// handleAddActivity handles the add_activity tool.
func (s *Server) handleAddActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required: " + err.Error()), nil
	}
	activityType, err := domain.ValidateActivityType(request.GetString("type", string(domain.ActivityFiller)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var minutes *int
	if d := request.GetFloat("duration_minutes", 0); d > 0 {
		m := int(d)
		minutes = &m
	}

	activity, err := s.stateProvider.AddActivity(ctx, name, activityType, minutes, request.GetString("after", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add activity: %v", err)), nil
	}
	return jsonResult(activityData(-1, activity))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func stateData(state *domain.CurrentState, now time.Time) map[string]interface{} {
	result := map[string]interface{}{
		"mode":        string(state.Mode),
		"now":         state.Headline(),
		"next":        state.UpNext(),
		"countdown":   state.Countdown(now),
		"progress":    state.Progress(now),
		"computed_at": state.Computed.Format(timeLayout),
		"meals_today": state.MealsToday,
		"location":    nil,
	}
	if target, ok := state.Target(); ok {
		result["ends_at"] = target.Format(timeLayout)
	}
	if state.Location != nil {
		result["location"] = map[string]interface{}{
			"latitude":  state.Location.Latitude,
			"longitude": state.Location.Longitude,
			"city":      state.Location.City,
			"timezone":  state.Location.Timezone,
		}
	}
	if state.Timeline != nil {
		result["current_item"] = itemData(state.Timeline.Current)
		result["next_item"] = itemData(state.Timeline.Next)
	}
	if state.Downtime != nil {
		result["downtime"] = downtimeData(state.Downtime, state.EndsAt, now)
	}
	return result
}

func itemData(it domain.ScheduleItem) map[string]interface{} {
	return map[string]interface{}{
		"id":          it.ID,
		"name":        it.Name,
		"description": it.Description,
		"start":       it.Start.Format(timeLayout),
		"end":         it.End.Format(timeLayout),
		"is_prayer":   it.IsPrayer,
	}
}

func downtimeData(ds *domain.DowntimeState, endsAt *time.Time, now time.Time) map[string]interface{} {
	result := map[string]interface{}{
		"phase":            string(ds.Phase()),
		"activities":       ds.Activities,
		"current_activity": ds.CurrentActivity,
		"current_index":    ds.CurrentActivityIndex,
		"grip_enabled":     ds.GripStrengthEnabled,
		"quran_turn":       ds.QuranTurn,
		"paused":           nil,
	}
	if ds.ActivityStartTime != nil {
		result["started_at"] = ds.ActivityStartTime.Format(timeLayout)
	}
	if ds.LastGripTime != nil {
		result["last_grip_at"] = ds.LastGripTime.Format(timeLayout)
	}
	if endsAt != nil {
		result["ends_at"] = endsAt.Format(timeLayout)
		result["remaining"] = domain.FormatCountdown(*endsAt, now)
	}
	if ds.PausedState != nil {
		result["paused"] = map[string]interface{}{
			"activity":  ds.PausedState.Activity,
			"remaining": domain.FormatRemaining(ds.PausedState.RemainingTime),
		}
	}
	return result
}

func activityData(index int, a domain.CustomActivity) map[string]interface{} {
	data := map[string]interface{}{
		"id":        a.ID,
		"name":      a.Name,
		"type":      string(a.Type),
		"is_prayer": a.IsPrayer(),
	}
	if index >= 0 {
		data["position"] = index
	}
	if a.Duration != nil {
		data["duration_minutes"] = *a.Duration
	}
	if a.Description != "" {
		data["description"] = a.Description
	}
	return data
}
