package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"cup_editor/internal/waypoint"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for the append-only import
// archive: one row per file import plus every waypoint row that import
// carried.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id              UUID,
			session_id      String,
			filename        LowCardinality(String),
			format          LowCardinality(String),
			waypoint_count  UInt32,
			skipped         UInt32,
			warning_count   UInt32,
			duration_ms     UInt32,
			imported_at     DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(imported_at)
		ORDER BY (imported_at, id)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS import_waypoints (
			import_id        UUID,
			name             String,
			code             LowCardinality(String),
			country          LowCardinality(String),
			latitude         Float64,
			longitude        Float64,
			elevation        String,
			style            UInt8,
			runway_direction String,
			runway_length    String,
			runway_width     String,
			frequency        String,
			description      String,
			imported_at      DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(imported_at)
		ORDER BY (import_id, name)`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// ImportRecord describes one completed file import.
type ImportRecord struct {
	ID            string
	SessionID     string
	Filename      string
	Format        string
	WaypointCount uint32
	Skipped       uint32
	WarningCount  uint32
	Duration      time.Duration
	ImportedAt    time.Time
}

// RecordImport stores the summary row for one import.
func (d *ClickHouseDB) RecordImport(ctx context.Context, r ImportRecord) error {
	err := d.conn.Exec(ctx, `
		INSERT INTO imports (id, session_id, filename, format, waypoint_count, skipped, warning_count, duration_ms, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.SessionID, r.Filename, r.Format, r.WaypointCount, r.Skipped, r.WarningCount,
		uint32(r.Duration.Milliseconds()), r.ImportedAt)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}
	return nil
}

// ArchiveWaypoints stores the waypoints of one import as a batch.
func (d *ClickHouseDB) ArchiveWaypoints(ctx context.Context, importID string, ws []waypoint.Waypoint) error {
	if len(ws) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO import_waypoints (import_id, name, code, country, latitude, longitude,
			elevation, style, runway_direction, runway_length, runway_width, frequency, description)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range ws {
		w := &ws[i]
		err := batch.Append(importID, w.Name, w.Code, w.Country, w.Latitude, w.Longitude,
			w.Elevation, uint8(w.Style), w.RunwayDirection, w.RunwayLength, w.RunwayWidth,
			w.Frequency, w.Description)
		if err != nil {
			return fmt.Errorf("append waypoint %d: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// RecentImports returns the most recent import summaries, newest first.
func (d *ClickHouseDB) RecentImports(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.conn.Query(ctx, `
		SELECT id, session_id, filename, format, waypoint_count, skipped, warning_count, duration_ms, imported_at
		FROM imports
		ORDER BY imported_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var r ImportRecord
		var durationMs uint32
		err := rows.Scan(&r.ID, &r.SessionID, &r.Filename, &r.Format,
			&r.WaypointCount, &r.Skipped, &r.WarningCount, &durationMs, &r.ImportedAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}
