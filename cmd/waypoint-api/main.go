// Package main provides the waypoint-api server for the web-based
// waypoint editor.
//
// The server keeps a waypoint list per browser session in SQLite,
// accumulates every imported waypoint into a PostgreSQL catalog, and
// archives import runs in ClickHouse. The catalog and archive are
// optional: without -catalog or -archive the server runs on SQLite
// alone.
//
// Usage:
//
//	waypoint-api [options]
//
// Options:
//
//	-db PATH            SQLite session database (default: sessions.db)
//	-port N             HTTP port (default: 8080)
//	-elevation          Enable online elevation lookups
//	-catalog            Enable the PostgreSQL waypoint catalog
//	-archive            Enable the ClickHouse import archive
//	-pg-host HOST       PostgreSQL host (default: localhost, env: POSTGRES_HOST)
//	-pg-port PORT       PostgreSQL port (default: 5432, env: POSTGRES_PORT)
//	-pg-database DB     PostgreSQL database (default: waypoints, env: POSTGRES_DATABASE)
//	-pg-user USER       PostgreSQL user (default: cup, env: POSTGRES_USER)
//	-pg-password PASS   PostgreSQL password (default: cup, env: POSTGRES_PASSWORD)
//	-ch-host HOST       ClickHouse host (default: localhost, env: CLICKHOUSE_HOST)
//	-ch-port PORT       ClickHouse port (default: 9000, env: CLICKHOUSE_PORT)
//	-ch-database DB     ClickHouse database (default: cup_editor, env: CLICKHOUSE_DATABASE)
//	-ch-user USER       ClickHouse user (default: default, env: CLICKHOUSE_USER)
//	-ch-password PASS   ClickHouse password (env: CLICKHOUSE_PASSWORD)
//
// API Endpoints:
//
//	GET    /api/v1/health                    Health check.
//	GET    /api/v1/styles                    Waypoint style labels.
//	GET    /api/v1/waypoints                 List session waypoints.
//	POST   /api/v1/waypoints                 Add a waypoint.
//	PUT    /api/v1/waypoints/{index}         Update a waypoint by list index.
//	DELETE /api/v1/waypoints/{index}         Delete a waypoint by list index.
//	POST   /api/v1/upload                    Upload and parse a .cup or .csv file.
//	GET    /api/v1/download/cup              Download the session as a CUP file.
//	POST   /api/v1/clear                     Drop the session's waypoints.
//	GET    /api/v1/elevation/{lat}/{lon}     Terrain elevation lookup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"cup_editor/internal/api"
	"cup_editor/internal/elevation"
	"cup_editor/internal/storage"
)

func main() {
	dbPath := flag.String("db", "sessions.db", "SQLite session database path")
	port := flag.Int("port", 8080, "HTTP port for API server")
	withElevation := flag.Bool("elevation", false, "Enable online elevation lookups")
	withCatalog := flag.Bool("catalog", false, "Enable the PostgreSQL waypoint catalog")
	withArchive := flag.Bool("archive", false, "Enable the ClickHouse import archive")

	pgHost := flag.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := flag.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgUser := flag.String("pg-user", envOrDefault("POSTGRES_USER", "cup"), "PostgreSQL user")
	pgPassword := flag.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "cup"), "PostgreSQL password")
	pgDB := flag.String("pg-database", envOrDefault("POSTGRES_DATABASE", "waypoints"), "PostgreSQL database")

	chHost := flag.String("ch-host", envOrDefault("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	chPort := flag.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", 9000), "ClickHouse port")
	chUser := flag.String("ch-user", envOrDefault("CLICKHOUSE_USER", "default"), "ClickHouse user")
	chPassword := flag.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", ""), "ClickHouse password")
	chDB := flag.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", "cup_editor"), "ClickHouse database")

	flag.Parse()

	ctx := context.Background()

	sessions, err := storage.OpenSessions(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = sessions.Close() }()

	cfg := api.Config{Port: *port}

	if *withElevation {
		cfg.Elevation = elevation.NewClient()
	}

	if *withCatalog {
		pg, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			Database: *pgDB,
			User:     *pgUser,
			Password: *pgPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening PostgreSQL: %v\n", err)
			os.Exit(1)
		}
		defer pg.Close()

		if err := pg.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating PostgreSQL schema: %v\n", err)
			os.Exit(1)
		}
		cfg.Catalog = pg
	}

	if *withArchive {
		ch, err := storage.OpenClickHouse(ctx, storage.ClickHouseConfig{
			Host:     *chHost,
			Port:     *chPort,
			Database: *chDB,
			User:     *chUser,
			Password: *chPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening ClickHouse: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = ch.Close() }()

		if err := ch.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating ClickHouse schema: %v\n", err)
			os.Exit(1)
		}
		cfg.Archive = ch
	}

	server := api.NewServer(sessions, cfg)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
