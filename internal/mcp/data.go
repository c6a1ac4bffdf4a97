package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bhujal-ai/bhujal/internal/store"
)

// Year bounds for series queries, matching the HTTP surface.
const (
	minSeriesYear = 1950
	maxSeriesYear = 2100
)

// LocationsInput defines the (empty) input schema for list_locations.
type LocationsInput struct{}

// SeriesInput defines the input schema for get_series.
type SeriesInput struct {
	Location string `json:"location" jsonschema:"The place name, matched case-insensitively. Block names and district names both work."`
	FromYear int    `json:"from_year,omitempty" jsonschema:"Earliest year to include, inclusive. Zero means no lower bound."`
	ToYear   int    `json:"to_year,omitempty" jsonschema:"Latest year to include, inclusive. Zero means no upper bound."`
}

// locationJSON mirrors the HTTP location shape.
type locationJSON struct {
	State    string `json:"state"`
	District string `json:"district"`
	Block    string `json:"block,omitempty"`
	Name     string `json:"name"`
}

// readingJSON mirrors the HTTP reading shape.
type readingJSON struct {
	Year   int     `json:"year"`
	LevelM float64 `json:"level_m_bgl"`
	Stage  string  `json:"stage"`
}

func (s *Server) registerDataTools() error {
	locSchema, err := jsonschema.For[LocationsInput](nil)
	if err != nil {
		return fmt.Errorf("schema for list_locations: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_locations",
		Description: "List every location present in the groundwater data, with its state, district, and block.",
		InputSchema: locSchema,
	}, s.ListLocations)

	seriesSchema, err := jsonschema.For[SeriesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for get_series: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_series",
		Description: "Get the year-by-year water levels (meters below ground) and assessment stages for one location, oldest first.",
		InputSchema: seriesSchema,
	}, s.GetSeries)

	return nil
}

// ListLocations handles the list_locations MCP tool call.
func (s *Server) ListLocations(ctx context.Context, req *mcp.CallToolRequest, input LocationsInput) (*mcp.CallToolResult, any, error) {
	locs, err := s.store.Locations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list_locations failed: %w", err)
	}

	out := make([]locationJSON, 0, len(locs))
	for _, l := range locs {
		out = append(out, locationJSON{
			State:    l.State,
			District: l.District,
			Block:    l.Block,
			Name:     l.Name(),
		})
	}

	return dataToMCP(map[string]any{
		"locations": out,
		"total":     len(out),
		"source":    s.store.Source(),
	}), nil, nil
}

// GetSeries handles the get_series MCP tool call.
func (s *Server) GetSeries(ctx context.Context, req *mcp.CallToolRequest, input SeriesInput) (*mcp.CallToolResult, any, error) {
	name := strings.TrimSpace(input.Location)
	if name == "" {
		return errorResult("location must not be empty"), nil, nil
	}
	from := clampYear(input.FromYear)
	to := clampYear(input.ToYear)

	locs, err := s.store.Locations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get_series failed: %w", err)
	}
	var loc *store.Location
	for i := range locs {
		if strings.EqualFold(locs[i].Name(), name) {
			loc = &locs[i]
			break
		}
	}
	if loc == nil {
		return errorResult("unknown location: %q", name), nil, nil
	}

	readings, err := s.store.Series(ctx, *loc, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("get_series failed: %w", err)
	}

	rows := make([]readingJSON, 0, len(readings))
	for _, rd := range readings {
		rows = append(rows, readingJSON{Year: rd.Year, LevelM: rd.LevelM, Stage: rd.Stage})
	}

	return dataToMCP(map[string]any{
		"location": locationJSON{
			State:    loc.State,
			District: loc.District,
			Block:    loc.Block,
			Name:     loc.Name(),
		},
		"readings": rows,
		"total":    len(rows),
		"source":   s.store.Source(),
	}), nil, nil
}

// clampYear bounds a year into the plausible assessment window.
// Zero passes through, meaning unbounded.
func clampYear(y int) int {
	if y == 0 {
		return 0
	}
	if y < minSeriesYear {
		return minSeriesYear
	}
	if y > maxSeriesYear {
		return maxSeriesYear
	}
	return y
}
