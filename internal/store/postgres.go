package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx v5 driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhujal-ai/bhujal/internal/log"
)

//go:embed migrations/postgres/*.sql
var postgresMigrationsFS embed.FS

// Postgres is the pooled backend for serve deployments, where several
// requests read concurrently.
type Postgres struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// OpenPostgres runs migrations against connURL and opens a connection
// pool. connURL must be a postgres:// or postgresql:// URL.
func OpenPostgres(ctx context.Context, connURL string, logger log.Logger) (*Postgres, error) {
	if err := migratePostgres(connURL, logger); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Debug("postgres store opened")
	return &Postgres{pool: pool, logger: logger}, nil
}

// migratePostgres applies pending migrations using the embedded set.
// golang-migrate manages the schema_migrations table; only migrations
// not yet applied are executed.
func migratePostgres(connURL string, logger log.Logger) error {
	source, err := iofs.New(postgresMigrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	dbURL, err := toMigrateURL(connURL)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("closing migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("closing migration connection", "error", dbErr)
		}
	}()

	version, dirty, verErr := m.Version()
	if verErr != nil && !errors.Is(verErr, migrate.ErrNilVersion) {
		return fmt.Errorf("checking migration version: %w", verErr)
	}
	if dirty {
		return fmt.Errorf("database in dirty migration state (version=%d), manual cleanup required", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("running migrations: %w", err)
	}

	if v, d, err := m.Version(); err == nil {
		logger.Info("migrations completed", "version", v, "dirty", d)
	}
	return nil
}

// toMigrateURL converts a postgres:// or postgresql:// URL to pgx5://
// for golang-migrate's pgx v5 driver.
func toMigrateURL(connURL string) (string, error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", fmt.Errorf("parsing database URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme: %s (expected postgres or postgresql)", u.Scheme)
	}
}

// Source names this backend in answer citations.
func (p *Postgres) Source() string {
	return "PostgreSQL gw_levels"
}

// Series returns the readings for loc ordered by year ascending,
// optionally bounded by fromYear/toYear (inclusive, 0 = unbounded).
func (p *Postgres) Series(ctx context.Context, loc Location, fromYear, toYear int) ([]Reading, error) {
	if toYear == 0 {
		toYear = 9999
	}
	rows, err := p.pool.Query(ctx,
		`SELECT state, district, block, year, level_m, stage
		 FROM gw_levels
		 WHERE state = $1 AND district = $2 AND block = $3 AND year BETWEEN $4 AND $5
		 ORDER BY year ASC`,
		loc.State, loc.District, loc.Block, fromYear, toYear,
	)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

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

// ReadingAt returns the reading for loc in the named year.
// Returns ErrNotFound when no such row exists.
func (p *Postgres) ReadingAt(ctx context.Context, loc Location, year int) (*Reading, error) {
	var r Reading
	err := p.pool.QueryRow(ctx,
		`SELECT state, district, block, year, level_m, stage
		 FROM gw_levels
		 WHERE state = $1 AND district = $2 AND block = $3 AND year = $4`,
		loc.State, loc.District, loc.Block, year,
	).Scan(&r.State, &r.District, &r.Block, &r.Year, &r.LevelM, &r.Stage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %d", ErrNotFound, loc.Name(), year)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning reading: %w", err)
	}
	return &r, nil
}

// Latest returns the most recent reading for loc.
// Returns ErrNotFound when the location has no rows.
func (p *Postgres) Latest(ctx context.Context, loc Location) (*Reading, error) {
	var r Reading
	err := p.pool.QueryRow(ctx,
		`SELECT state, district, block, year, level_m, stage
		 FROM gw_levels
		 WHERE state = $1 AND district = $2 AND block = $3
		 ORDER BY year DESC
		 LIMIT 1`,
		loc.State, loc.District, loc.Block,
	).Scan(&r.State, &r.District, &r.Block, &r.Year, &r.LevelM, &r.Stage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("scanning reading: %w", err)
	}
	return &r, nil
}

// Locations returns every distinct (state, district, block) triple.
func (p *Postgres) Locations(ctx context.Context) ([]Location, error) {
	rows, err := p.pool.Query(ctx,
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
func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM gw_levels").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting readings: %w", err)
	}
	return n, nil
}

// YearRange returns the minimum and maximum assessment years present.
// Returns ErrNotFound for an empty table.
func (p *Postgres) YearRange(ctx context.Context) (minYear, maxYear int, err error) {
	var lo, hi *int
	if err := p.pool.QueryRow(ctx, "SELECT MIN(year), MAX(year) FROM gw_levels").Scan(&lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("querying year range: %w", err)
	}
	if lo == nil || hi == nil {
		return 0, 0, ErrNotFound
	}
	return *lo, *hi, nil
}

// ReplaceAll atomically replaces every reading with rows.
func (p *Postgres) ReplaceAll(ctx context.Context, rows []Reading) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM gw_levels"); err != nil {
		return fmt.Errorf("clearing readings: %w", err)
	}

	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.State, r.District, r.Block, r.Year, r.LevelM, r.Stage}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"gw_levels"},
		[]string{"state", "district", "block", "year", "level_m", "stage"},
		pgx.CopyFromRows(src),
	); err != nil {
		return fmt.Errorf("copying readings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}

	p.logger.Info("readings replaced", "rows", len(rows))
	return nil
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
