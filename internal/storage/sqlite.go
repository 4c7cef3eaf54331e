// Package storage provides persistence for waypoint editing sessions and
// the accumulated waypoint catalog.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cup_editor/internal/waypoint"
)

// SessionDB wraps a SQLite database holding per-session waypoint lists.
// Each browser session owns one ordered list; the list is replaced
// wholesale on every mutation so the on-disk order always matches what
// the client sees.
type SessionDB struct {
	db *sql.DB
}

// OpenSessions opens or creates a SQLite session database at the given path.
func OpenSessions(path string) (*SessionDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSessionSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SessionDB{db: db}, nil
}

// Close closes the database connection.
func (d *SessionDB) Close() error {
	return d.db.Close()
}

func createSessionSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS session_waypoints (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		code TEXT,
		country TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		elevation TEXT,
		style INTEGER NOT NULL DEFAULT 1,
		runway_direction TEXT,
		runway_length TEXT,
		runway_width TEXT,
		frequency TEXT,
		description TEXT,
		PRIMARY KEY (session_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_session_waypoints_name ON session_waypoints(session_id, name);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return migrateSessionSchema(db)
}

// migrateSessionSchema adds new columns to existing databases.
func migrateSessionSchema(db *sql.DB) error {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('sessions') WHERE name='filename'`).Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err := db.Exec(`ALTER TABLE sessions ADD COLUMN filename TEXT NOT NULL DEFAULT ''`)
		if err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return err
		}
	}
	return nil
}

// Touch creates the session row if it does not exist and bumps its
// updated_at timestamp.
func (d *SessionDB) Touch(sessionID string) error {
	_, err := d.db.Exec(`
		INSERT INTO sessions (id) VALUES (?)
		ON CONFLICT (id) DO UPDATE SET updated_at = datetime('now')
	`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// SetFilename records the name of the file the session is editing.
func (d *SessionDB) SetFilename(sessionID, filename string) error {
	if err := d.Touch(sessionID); err != nil {
		return err
	}
	_, err := d.db.Exec(`UPDATE sessions SET filename = ?, updated_at = datetime('now') WHERE id = ?`,
		filename, sessionID)
	return err
}

// Filename returns the file name the session is editing, empty when the
// session is unknown or has no file loaded.
func (d *SessionDB) Filename(sessionID string) (string, error) {
	var name string
	err := d.db.QueryRow(`SELECT filename FROM sessions WHERE id = ?`, sessionID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

// Put replaces the session's waypoint list with ws, preserving slice
// order as the stored position.
func (d *SessionDB) Put(sessionID string, ws []waypoint.Waypoint) error {
	if err := d.Touch(sessionID); err != nil {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM session_waypoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear waypoints: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO session_waypoints (session_id, position, name, code, country, latitude, longitude,
			elevation, style, runway_direction, runway_length, runway_width, frequency, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range ws {
		w := &ws[i]
		_, err := stmt.Exec(sessionID, i, w.Name, w.Code, w.Country, w.Latitude, w.Longitude,
			w.Elevation, w.Style, w.RunwayDirection, w.RunwayLength, w.RunwayWidth,
			w.Frequency, w.Description)
		if err != nil {
			return fmt.Errorf("insert waypoint %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Get returns the session's waypoint list in stored order. An unknown
// session yields an empty list.
func (d *SessionDB) Get(sessionID string) ([]waypoint.Waypoint, error) {
	rows, err := d.db.Query(`
		SELECT name, code, country, latitude, longitude, elevation, style,
			runway_direction, runway_length, runway_width, frequency, description
		FROM session_waypoints WHERE session_id = ? ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query waypoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ws []waypoint.Waypoint
	for rows.Next() {
		var w waypoint.Waypoint
		var code, country, elevation, rwDir, rwLen, rwWidth, freq, desc sql.NullString
		err := rows.Scan(&w.Name, &code, &country, &w.Latitude, &w.Longitude, &elevation,
			&w.Style, &rwDir, &rwLen, &rwWidth, &freq, &desc)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		w.Code = code.String
		w.Country = country.String
		w.Elevation = elevation.String
		w.RunwayDirection = rwDir.String
		w.RunwayLength = rwLen.String
		w.RunwayWidth = rwWidth.String
		w.Frequency = freq.String
		w.Description = desc.String
		ws = append(ws, w)
	}
	return ws, rows.Err()
}

// Clear removes the session's waypoints and resets its filename. The
// session row itself stays so the cookie remains valid.
func (d *SessionDB) Clear(sessionID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM session_waypoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear waypoints: %w", err)
	}
	if _, err := tx.Exec(`UPDATE sessions SET filename = '', updated_at = datetime('now') WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("reset filename: %w", err)
	}
	return tx.Commit()
}

// PruneBefore deletes sessions not updated since the cutoff and returns
// the number removed.
func (d *SessionDB) PruneBefore(cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Format("2006-01-02 15:04:05")

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Cascade is not guaranteed without foreign_keys pragma, delete explicitly.
	if _, err := tx.Exec(`
		DELETE FROM session_waypoints WHERE session_id IN
			(SELECT id FROM sessions WHERE updated_at < ?)
	`, ts); err != nil {
		return 0, fmt.Errorf("prune waypoints: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM sessions WHERE updated_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// SessionStats holds aggregate numbers about stored sessions.
type SessionStats struct {
	Sessions  int
	Waypoints int
	ByStyle   map[int]int
}

// Stats returns aggregate statistics about stored sessions.
func (d *SessionDB) Stats() (*SessionStats, error) {
	stats := &SessionStats{ByStyle: make(map[int]int)}

	if err := d.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&stats.Sessions); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM session_waypoints`).Scan(&stats.Waypoints); err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`SELECT style, COUNT(*) FROM session_waypoints GROUP BY style`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var style, count int
		if err := rows.Scan(&style, &count); err != nil {
			return nil, err
		}
		stats.ByStyle[style] = count
	}
	return stats, rows.Err()
}
