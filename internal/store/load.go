package store

import (
	"bytes"
	"context"
	"encoding/csv"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/bhujal-ai/bhujal/internal/log"
)

// Sentinel errors for the CSV loader.
var (
	// ErrMissingColumn indicates the CSV header lacks one of the required
	// columns (state, district, block, year or a water-level column).
	ErrMissingColumn = errors.New("required column missing")

	// ErrLockHeld indicates another process is currently loading data.
	ErrLockHeld = errors.New("load lock held by another process")
)

// Column aliases seen across official groundwater assessment exports.
// Headers are canonicalised before matching, so "District Name",
// "district-name" and "DISTRICT_NAME" all resolve to district.
var (
	stateAliases    = []string{"state", "state_name"}
	districtAliases = []string{"district", "district_name"}
	blockAliases    = []string{"block", "assessment_unit", "taluka", "tehsil"}
	yearAliases     = []string{"year", "assessment_year"}
	stageAliases    = []string{"stage", "stage_of_extraction", "category"}
)

// lockRetryDelay is how often a blocked loader re-attempts the file lock.
const lockRetryDelay = 250 * time.Millisecond

//go:embed seed.csv
var seedCSV []byte

// Writer is the slice of a backend the loader needs. Both SQLite and
// Postgres satisfy it.
type Writer interface {
	Count(ctx context.Context) (int64, error)
	ReplaceAll(ctx context.Context, rows []Reading) error
}

// canonHeader lowercases a header cell and collapses every run of
// non-alphanumeric characters to a single underscore.
func canonHeader(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// findColumn returns the index of the first header matching any alias,
// or -1 when none is present.
func findColumn(canon []string, aliases []string) int {
	for _, a := range aliases {
		for i, c := range canon {
			if c == a {
				return i
			}
		}
	}
	return -1
}

// pickLevel chooses the water-level column. Post-monsoon readings are
// preferred over pre-monsoon, falling back to any depth or level column.
func pickLevel(canon []string) int {
	pre, post, depth := -1, -1, -1
	for i, c := range canon {
		switch {
		case strings.Contains(c, "post") && strings.Contains(c, "monsoon"):
			if post < 0 {
				post = i
			}
		case strings.Contains(c, "pre") && strings.Contains(c, "monsoon"):
			if pre < 0 {
				pre = i
			}
		case strings.Contains(c, "depth") || strings.Contains(c, "level"):
			if depth < 0 {
				depth = i
			}
		}
	}
	if post >= 0 {
		return post
	}
	if pre >= 0 {
		return pre
	}
	return depth
}

// parseYear accepts integer years and integer-valued floats such as
// "2018.0", which some spreadsheet exports produce.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// ParseCSV reads groundwater readings from r. The header row is matched
// against the known column aliases; rows with an unparseable year or
// water level are skipped and counted. Later duplicates of the same
// (state, district, block, year) replace earlier ones, so a re-exported
// row wins over a stale one.
//
// Returns the readings in first-seen order and the number of skipped rows.
func ParseCSV(r io.Reader) ([]Reading, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	canon := make([]string, len(header))
	for i, h := range header {
		canon[i] = canonHeader(h)
	}

	stateIdx := findColumn(canon, stateAliases)
	districtIdx := findColumn(canon, districtAliases)
	blockIdx := findColumn(canon, blockAliases)
	yearIdx := findColumn(canon, yearAliases)
	stageIdx := findColumn(canon, stageAliases)
	levelIdx := pickLevel(canon)

	for _, col := range []struct {
		name string
		idx  int
	}{
		{"state", stateIdx},
		{"district", districtIdx},
		{"block", blockIdx},
		{"year", yearIdx},
		{"level", levelIdx},
	} {
		if col.idx < 0 {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, col.name)
		}
	}

	need := max(stateIdx, districtIdx, blockIdx, yearIdx, levelIdx)
	if stageIdx > need {
		need = stageIdx
	}

	var (
		rows    []Reading
		skipped int
		seen    = map[Location]map[int]int{} // location -> year -> rows index
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}
		if len(rec) <= need {
			skipped++
			continue
		}
		year, ok := parseYear(rec[yearIdx])
		if !ok {
			skipped++
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSpace(rec[levelIdx]), 64)
		if err != nil || math.IsNaN(level) {
			skipped++
			continue
		}
		rd := Reading{
			State:    strings.TrimSpace(rec[stateIdx]),
			District: strings.TrimSpace(rec[districtIdx]),
			Block:    strings.TrimSpace(rec[blockIdx]),
			Year:     year,
			LevelM:   level,
		}
		if stageIdx >= 0 {
			rd.Stage = NormalizeStage(rec[stageIdx])
		}
		loc := rd.Location()
		if years, ok := seen[loc]; ok {
			if i, dup := years[year]; dup {
				rows[i] = rd
				continue
			}
		} else {
			seen[loc] = map[int]int{}
		}
		seen[loc][year] = len(rows)
		rows = append(rows, rd)
	}
	return rows, skipped, nil
}

// LoadCSV parses the file at path and replaces the backend's readings
// with its contents. The count of loaded rows is returned.
func LoadCSV(ctx context.Context, w Writer, path string, logger log.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, skipped, err := ParseCSV(f)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if skipped > 0 {
		logger.Warn("rows skipped during parse", "path", path, "skipped", skipped)
	}
	if err := w.ReplaceAll(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// AcquireLoadLock takes the exclusive file lock that serialises bulk
// loads, retrying until ctx expires. The returned release function must
// be called once the load finishes.
func AcquireLoadLock(ctx context.Context, lockPath string) (release func(), err error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire load lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, lockPath)
	}
	return func() { _ = fl.Unlock() }, nil
}

// EnsureSeed loads the embedded sample dataset into an empty store so a
// fresh install can answer questions before any official export is
// ingested. A store that already holds readings is left untouched.
func EnsureSeed(ctx context.Context, w Writer, logger log.Logger) error {
	n, err := w.Count(ctx)
	if err != nil {
		return fmt.Errorf("count readings: %w", err)
	}
	if n > 0 {
		return nil
	}
	rows, _, err := ParseCSV(bytes.NewReader(seedCSV))
	if err != nil {
		return fmt.Errorf("parse seed data: %w", err)
	}
	if err := w.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	logger.Info("seed dataset applied", "rows", len(rows))
	return nil
}
