// Package store persists groundwater assessment readings.
//
// Two backends share one method set: SQLite (modernc.org/sqlite, the
// default for local use) and PostgreSQL (pgx, for serve deployments).
// Both are read-only at query time; rows change only through ReplaceAll,
// which the load command guards with a file lock.
//
// Schema is managed by golang-migrate with migrations embedded at
// compile time, one directory per backend.
package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates no reading matches the requested location
	// and year. Callers translate it into an insufficient-data answer,
	// never a user-facing error.
	ErrNotFound = errors.New("no matching readings")

	// ErrNoRows indicates a bulk load produced zero usable rows.
	ErrNoRows = errors.New("no usable rows")
)

// Extraction stage categories, as assessed by groundwater authorities.
const (
	StageSafe          = "Safe"
	StageSemiCritical  = "Semi-critical"
	StageCritical      = "Critical"
	StageOverExploited = "Over-exploited"
)

// Stages lists the categories from least to most stressed.
var Stages = []string{StageSafe, StageSemiCritical, StageCritical, StageOverExploited}

// NormalizeStage maps free-form stage spellings from source files to a
// canonical category. Unrecognized values pass through trimmed so the
// caller can decide whether to keep or drop the row.
func NormalizeStage(s string) string {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "over"):
		return StageOverExploited
	case strings.Contains(l, "semi"):
		return StageSemiCritical
	case strings.Contains(l, "critical"):
		return StageCritical
	case strings.Contains(l, "safe"):
		return StageSafe
	default:
		return strings.TrimSpace(s)
	}
}

// Reading is one groundwater assessment row: the depth to water in
// meters below ground level for a location in a given year, plus the
// extraction stage assigned by the assessment.
type Reading struct {
	State    string
	District string
	Block    string
	Year     int
	LevelM   float64
	Stage    string
}

// Location identifies one distinct place present in the data.
// District-level assessment rows leave Block empty.
type Location struct {
	State    string
	District string
	Block    string
}

// Name returns the most specific non-empty name of the location.
func (l Location) Name() string {
	if l.Block != "" {
		return l.Block
	}
	if l.District != "" {
		return l.District
	}
	return l.State
}

// Location returns the reading's location triple.
func (r Reading) Location() Location {
	return Location{State: r.State, District: r.District, Block: r.Block}
}
