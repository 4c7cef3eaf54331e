package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cup_editor/internal/waypoint"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool holding the waypoint
// catalog: every waypoint ever imported, keyed by name, with a count of
// how many imports contributed it.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS waypoints (
		name                TEXT PRIMARY KEY,
		code                TEXT NOT NULL DEFAULT '',
		country             TEXT NOT NULL DEFAULT '',
		latitude            DOUBLE PRECISION NOT NULL,
		longitude           DOUBLE PRECISION NOT NULL,
		elevation           TEXT NOT NULL DEFAULT '',
		style               INTEGER NOT NULL DEFAULT 1,
		runway_direction    TEXT NOT NULL DEFAULT '',
		runway_length       TEXT NOT NULL DEFAULT '',
		runway_width        TEXT NOT NULL DEFAULT '',
		frequency           TEXT NOT NULL DEFAULT '',
		description         TEXT NOT NULL DEFAULT '',
		source_count        INTEGER NOT NULL DEFAULT 1,
		first_seen          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_waypoints_style ON waypoints(style);
	CREATE INDEX IF NOT EXISTS idx_waypoints_country ON waypoints(country);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CatalogEntry is a waypoint in the catalog with its observation
// metadata.
type CatalogEntry struct {
	Waypoint    waypoint.Waypoint
	SourceCount int
	FirstSeen   time.Time
	LastSeen    time.Time
}

// UpsertWaypoint inserts or updates a catalog entry. Re-imports of the
// same name overwrite the fields and bump the source count.
func (d *PostgresDB) UpsertWaypoint(ctx context.Context, w waypoint.Waypoint) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO waypoints (name, code, country, latitude, longitude, elevation, style,
			runway_direction, runway_length, runway_width, frequency, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (name) DO UPDATE SET
			code = EXCLUDED.code,
			country = EXCLUDED.country,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			elevation = EXCLUDED.elevation,
			style = EXCLUDED.style,
			runway_direction = EXCLUDED.runway_direction,
			runway_length = EXCLUDED.runway_length,
			runway_width = EXCLUDED.runway_width,
			frequency = EXCLUDED.frequency,
			description = EXCLUDED.description,
			source_count = waypoints.source_count + 1,
			last_seen = NOW()
	`, w.Name, w.Code, w.Country, w.Latitude, w.Longitude, w.Elevation, w.Style,
		w.RunwayDirection, w.RunwayLength, w.RunwayWidth, w.Frequency, w.Description)
	return err
}

// GetWaypoint retrieves a catalog entry by name, nil when absent.
func (d *PostgresDB) GetWaypoint(ctx context.Context, name string) (*CatalogEntry, error) {
	var e CatalogEntry
	err := d.pool.QueryRow(ctx, `
		SELECT name, code, country, latitude, longitude, elevation, style,
			runway_direction, runway_length, runway_width, frequency, description,
			source_count, first_seen, last_seen
		FROM waypoints WHERE name = $1
	`, name).Scan(&e.Waypoint.Name, &e.Waypoint.Code, &e.Waypoint.Country,
		&e.Waypoint.Latitude, &e.Waypoint.Longitude, &e.Waypoint.Elevation, &e.Waypoint.Style,
		&e.Waypoint.RunwayDirection, &e.Waypoint.RunwayLength, &e.Waypoint.RunwayWidth,
		&e.Waypoint.Frequency, &e.Waypoint.Description,
		&e.SourceCount, &e.FirstSeen, &e.LastSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListWaypoints retrieves all catalog entries seen in at least
// minSources imports, ordered by name.
func (d *PostgresDB) ListWaypoints(ctx context.Context, minSources int) ([]CatalogEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT name, code, country, latitude, longitude, elevation, style,
			runway_direction, runway_length, runway_width, frequency, description,
			source_count, first_seen, last_seen
		FROM waypoints
		WHERE source_count >= $1
		ORDER BY name
	`, minSources)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		err := rows.Scan(&e.Waypoint.Name, &e.Waypoint.Code, &e.Waypoint.Country,
			&e.Waypoint.Latitude, &e.Waypoint.Longitude, &e.Waypoint.Elevation, &e.Waypoint.Style,
			&e.Waypoint.RunwayDirection, &e.Waypoint.RunwayLength, &e.Waypoint.RunwayWidth,
			&e.Waypoint.Frequency, &e.Waypoint.Description,
			&e.SourceCount, &e.FirstSeen, &e.LastSeen)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteWaypoint removes a catalog entry by name.
func (d *PostgresDB) DeleteWaypoint(ctx context.Context, name string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM waypoints WHERE name = $1`, name)
	return err
}

// CountByStyle returns catalog entry counts grouped by waypoint style.
func (d *PostgresDB) CountByStyle(ctx context.Context) (map[int]int, error) {
	rows, err := d.pool.Query(ctx, `SELECT style, COUNT(*) FROM waypoints GROUP BY style`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var style, count int
		if err := rows.Scan(&style, &count); err != nil {
			return nil, err
		}
		counts[style] = count
	}
	return counts, rows.Err()
}

// Pool returns the underlying connection pool for advanced operations.
func (d *PostgresDB) Pool() *pgxpool.Pool {
	return d.pool
}
