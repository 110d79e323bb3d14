// Package mcp exposes the league read operations as Model Context Protocol
// tools over streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

// ServerName is reported to MCP clients.
const ServerName = "prixsix-standings"

// Dependencies are the read operations the tools call.
type Dependencies interface {
	Events(ctx context.Context, completedOnly bool) ([]model.EventDescriptor, error)
	Standings(ctx context.Context, eventID string, limit int, cursor string) (window.Window[model.StandingsRow], error)
	EventResults(ctx context.Context, eventID string, limit int, cursor string) (window.Window[model.TeamEventResult], error)
	LatestCompleted(ctx context.Context) (model.EventDescriptor, bool, error)
}

// ListEventsArgs are the arguments of list_events.
type ListEventsArgs struct {
	CompletedOnly bool `json:"completed_only,omitempty" jsonschema:"Only events with an official result or stored scores"`
}

// StandingsArgs are the arguments of standings.
type StandingsArgs struct {
	EventID string `json:"event_id,omitempty" jsonschema:"Event id such as china-gp (empty = latest completed)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Rows per page (0 = server default)"`
	Cursor  string `json:"cursor,omitempty" jsonschema:"Cursor returned by the previous page"`
}

// EventResultsArgs are the arguments of event_results.
type EventResultsArgs struct {
	EventID string `json:"event_id" jsonschema:"Event id such as china-sprint (required)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Rows per page (0 = server default)"`
	Cursor  string `json:"cursor,omitempty" jsonschema:"Cursor returned by the previous page"`
}

// Tools implements the tool handlers.
type Tools struct {
	deps   Dependencies
	logger logger.Logger
}

// NewTools creates tool handlers over deps.
func NewTools(deps Dependencies) *Tools {
	return &Tools{deps: deps, logger: logger.Named("mcp")}
}

// NewServer registers every tool on a new MCP server.
func NewServer(deps Dependencies, version string) *sdk.Server {
	t := NewTools(deps)
	server := sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: version}, nil)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "list_events",
		Description: "Season events (Sprint and Grand Prix) in chronological order with completion flags",
	}, t.ListEvents)
	sdk.AddTool(server, &sdk.Tool{
		Name:        "standings",
		Description: "One page of league standings as of an event: totals, ranks, gaps and rank changes",
	}, t.Standings)
	sdk.AddTool(server, &sdk.Tool{
		Name:        "event_results",
		Description: "One page of per-team graded results for a single event",
	}, t.EventResults)
	return server
}

// Handler serves the MCP server over streamable HTTP with JSON responses.
func Handler(deps Dependencies, version string) http.Handler {
	server := NewServer(deps, version)
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return server
	}, &sdk.StreamableHTTPOptions{JSONResponse: true})
}

// ListEvents handles list_events.
func (t *Tools) ListEvents(ctx context.Context, _ *sdk.CallToolRequest, args ListEventsArgs) (*sdk.CallToolResult, any, error) {
	events, err := t.deps.Events(ctx, args.CompletedOnly)
	if err != nil {
		return t.toolError(ctx, "list_events", err), nil, nil
	}
	return toolJSON(map[string]any{"events": events})
}

// Standings handles standings.
func (t *Tools) Standings(ctx context.Context, _ *sdk.CallToolRequest, args StandingsArgs) (*sdk.CallToolResult, any, error) {
	eventID := args.EventID
	if eventID == "" {
		ev, ok, err := t.deps.LatestCompleted(ctx)
		if err != nil {
			return t.toolError(ctx, "standings", err), nil, nil
		}
		if !ok {
			return t.toolError(ctx, "standings", fmt.Errorf("no completed events yet")), nil, nil
		}
		eventID = ev.ID
	}
	page, err := t.deps.Standings(ctx, eventID, args.Limit, args.Cursor)
	if err != nil {
		return t.toolError(ctx, "standings", err), nil, nil
	}
	return toolJSON(map[string]any{
		"event_id":    model.NormalizeID(eventID),
		"rows":        page.Rows,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
		"progress":    page.Progress(),
	})
}

// EventResults handles event_results.
func (t *Tools) EventResults(ctx context.Context, _ *sdk.CallToolRequest, args EventResultsArgs) (*sdk.CallToolResult, any, error) {
	if args.EventID == "" {
		return t.toolError(ctx, "event_results", fmt.Errorf("event_id is required")), nil, nil
	}
	page, err := t.deps.EventResults(ctx, args.EventID, args.Limit, args.Cursor)
	if err != nil {
		return t.toolError(ctx, "event_results", err), nil, nil
	}
	return toolJSON(map[string]any{
		"event_id":    model.NormalizeID(args.EventID),
		"rows":        page.Rows,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
		"progress":    page.Progress(),
	})
}

func (t *Tools) toolError(ctx context.Context, tool string, err error) *sdk.CallToolResult {
	metrics.RecordErrorByComponent("mcp", tool)
	t.logger.Warn(ctx, "tool call failed", logger.String("tool", tool), logger.Error(err))
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}

func toolJSON(v any) (*sdk.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(b)}},
	}, nil, nil
}
