package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bhujal-ai/bhujal/internal/log"
	"github.com/bhujal-ai/bhujal/internal/store"
)

// Year bounds for series queries. Assessments are annual figures from
// recent decades, so anything outside this window is a typo.
const (
	MinSeriesYear = 1950
	MaxSeriesYear = 2100
)

// Store is the read-only slice of the data layer the API serves
// directly, bypassing the question pipeline.
type Store interface {
	Source() string
	Ping(ctx context.Context) error
	Locations(ctx context.Context) ([]store.Location, error)
	Series(ctx context.Context, loc store.Location, fromYear, toYear int) ([]store.Reading, error)
}

// DataHandler serves raw readings so clients can build their own
// views instead of scraping answer text.
type DataHandler struct {
	store  Store
	logger log.Logger
}

// NewDataHandler creates a data handler backed by the given store.
func NewDataHandler(store Store, logger log.Logger) *DataHandler {
	return &DataHandler{store: store, logger: logger}
}

// RegisterRoutes registers data routes on the given mux.
func (h *DataHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/locations", h.listLocations)
	mux.HandleFunc("GET /api/v1/series", h.series)
}

// LocationResponse is one place present in the data.
type LocationResponse struct {
	State    string `json:"state"`
	District string `json:"district"`
	Block    string `json:"block,omitempty"`
	Name     string `json:"name"`
}

// listLocations returns every distinct place in the data.
func (h *DataHandler) listLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.store.Locations(r.Context())
	if err != nil {
		h.logger.Error("failed to list locations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list locations")
		return
	}

	resp := make([]LocationResponse, 0, len(locs))
	for _, l := range locs {
		resp = append(resp, LocationResponse{
			State:    l.State,
			District: l.District,
			Block:    l.Block,
			Name:     l.Name(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"locations": resp,
		"total":     len(resp),
		"source":    h.store.Source(),
	})
}

// ReadingResponse is one assessment row for a location.
type ReadingResponse struct {
	Year   int     `json:"year"`
	LevelM float64 `json:"level_m_bgl"`
	Stage  string  `json:"stage"`
}

// series returns the readings for one place, oldest first.
// Query parameters:
//   - location: place name, matched case-insensitively (required)
//   - from, to: optional year bounds, inclusive
func (h *DataHandler) series(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("location"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "location parameter is required")
		return
	}
	from := parseIntParam(r, "from", 0, MinSeriesYear, MaxSeriesYear)
	to := parseIntParam(r, "to", 0, MinSeriesYear, MaxSeriesYear)

	locs, err := h.store.Locations(r.Context())
	if err != nil {
		h.logger.Error("failed to list locations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to resolve location")
		return
	}
	var loc *store.Location
	for i := range locs {
		if strings.EqualFold(locs[i].Name(), name) {
			loc = &locs[i]
			break
		}
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "unknown_location", "no readings for "+strconv.Quote(name))
		return
	}

	readings, err := h.store.Series(r.Context(), *loc, from, to)
	if err != nil {
		h.logger.Error("failed to load series", "error", err, "location", loc.Name())
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load readings")
		return
	}

	rows := make([]ReadingResponse, 0, len(readings))
	for _, rd := range readings {
		rows = append(rows, ReadingResponse{Year: rd.Year, LevelM: rd.LevelM, Stage: rd.Stage})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location": LocationResponse{
			State:    loc.State,
			District: loc.District,
			Block:    loc.Block,
			Name:     loc.Name(),
		},
		"readings": rows,
		"total":    len(rows),
		"source":   h.store.Source(),
	})
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
