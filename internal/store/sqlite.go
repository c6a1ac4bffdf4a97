package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/bhujal-ai/bhujal/internal/log"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrationsFS embed.FS

// SQLite is the embedded single-file backend. It is the default store
// for the chat, ask and mcp commands.
type SQLite struct {
	db     *sql.DB
	logger log.Logger
}

// OpenSQLite opens (creating if needed) the database at dbPath and
// applies pending migrations.
func OpenSQLite(dbPath string, logger log.Logger) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	// Concurrent readers during a load command wait instead of failing
	// with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("sqlite store opened", "path", dbPath)
	return &SQLite{db: db, logger: logger}, nil
}

// migrateSQLite applies all pending migrations from the embedded set.
func migrateSQLite(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}

	source, err := iofs.New(sqliteMigrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// No m.Close() here: WithInstance does not own the *sql.DB and
	// closing would tear down the shared connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}

// Source names this backend in answer citations.
func (s *SQLite) Source() string {
	return "SQLite gw_levels"
}

// Series returns the readings for loc ordered by year ascending,
// optionally bounded by fromYear/toYear (inclusive, 0 = unbounded).
func (s *SQLite) Series(ctx context.Context, loc Location, fromYear, toYear int) ([]Reading, error) {
	if toYear == 0 {
		toYear = 9999
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, district, block, year, level_m, stage
		 FROM gw_levels
		 WHERE state = ? AND district = ? AND block = ? AND year BETWEEN ? AND ?
		 ORDER BY year ASC`,
		loc.State, loc.District, loc.Block, fromYear, toYear,
	)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// ReadingAt returns the reading for loc in the named year.
// Returns ErrNotFound when no such row exists.
func (s *SQLite) ReadingAt(ctx context.Context, loc Location, year int) (*Reading, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state, district, block, year, level_m, stage
		 FROM gw_levels
		 WHERE state = ? AND district = ? AND block = ? AND year = ?`,
		loc.State, loc.District, loc.Block, year,
	)
	return scanReading(row, loc, year)
}

// Latest returns the most recent reading for loc.
// Returns ErrNotFound when the location has no rows.
func (s *SQLite) Latest(ctx context.Context, loc Location) (*Reading, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state, district, block, year, level_m, stage
		 FROM gw_levels
		 WHERE state = ? AND district = ? AND block = ?
		 ORDER BY year DESC
		 LIMIT 1`,
		loc.State, loc.District, loc.Block,
	)
	return scanReading(row, loc, 0)
}

// Locations returns every distinct (state, district, block) triple.
// The pipeline builds its read-only name index from this at startup.
func (s *SQLite) Locations(ctx context.Context) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT state, district, block
		 FROM gw_levels
		 ORDER BY state, district, block`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.State, &l.District, &l.Block); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locs = append(locs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}

	return locs, nil
}

// Count returns the number of readings.
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM gw_levels").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return n, nil
}

// YearRange returns the minimum and maximum assessment years present.
// Returns ErrNotFound for an empty table.
func (s *SQLite) YearRange(ctx context.Context) (minYear, maxYear int, err error) {
	var lo, hi sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MIN(year), MAX(year) FROM gw_levels").Scan(&lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("querying year range: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return 0, 0, ErrNotFound
	}
	return int(lo.Int64), int(hi.Int64), nil
}

// ReplaceAll atomically replaces every reading with rows.
func (s *SQLite) ReplaceAll(ctx context.Context, rows []Reading) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM gw_levels"); err != nil {
		return fmt.Errorf("clearing readings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gw_levels (state, district, block, year, level_m, stage)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.State, r.District, r.Block, r.Year, r.LevelM, r.Stage); err != nil {
			return fmt.Errorf("inserting reading %s/%d: %w", r.Location().Name(), r.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}

	s.logger.Info("readings replaced", "rows", len(rows))
	return nil
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanner abstracts *sql.Row for single-row scans.
type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner, loc Location, year int) (*Reading, error) {
	var r Reading
	err := row.Scan(&r.State, &r.District, &r.Block, &r.Year, &r.LevelM, &r.Stage)
	if errors.Is(err, sql.ErrNoRows) {
		if year > 0 {
			return nil, fmt.Errorf("%w: %s in %d", ErrNotFound, loc.Name(), year)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("scanning reading: %w", err)
	}
	return &r, nil
}

func scanReadings(rows *sql.Rows) ([]Reading, error) {
	var out []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.State, &r.District, &r.Block, &r.Year, &r.LevelM, &r.Stage); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return out, nil
}
