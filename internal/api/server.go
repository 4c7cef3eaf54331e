// Package api provides the REST API for the waypoint editor. Each
// browser session owns an independent waypoint list, addressed by a
// cookie, kept sorted by lowercase name.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"cup_editor/internal/codec/csvfmt"
	"cup_editor/internal/codec/cup"
	"cup_editor/internal/storage"
	"cup_editor/internal/waypoint"
)

const (
	sessionCookie = "cup_session"
	maxUploadSize = 16 << 20 // 16 MB
)

// Store is the per-session waypoint persistence the server needs.
// *storage.SessionDB satisfies it.
type Store interface {
	Get(sessionID string) ([]waypoint.Waypoint, error)
	Put(sessionID string, ws []waypoint.Waypoint) error
	Clear(sessionID string) error
	SetFilename(sessionID, filename string) error
	Filename(sessionID string) (string, error)
}

// ElevationSource resolves terrain elevation for a coordinate. A nil
// source disables elevation features; lookup failures degrade to "no
// elevation" rather than failing the request.
type ElevationSource interface {
	Lookup(ctx context.Context, lat, lon float64) (float64, error)
}

// Archive records completed imports. A nil archive disables recording.
type Archive interface {
	RecordImport(ctx context.Context, r storage.ImportRecord) error
	ArchiveWaypoints(ctx context.Context, importID string, ws []waypoint.Waypoint) error
}

// Catalog accumulates every imported waypoint. A nil catalog disables
// accumulation.
type Catalog interface {
	UpsertWaypoint(ctx context.Context, w waypoint.Waypoint) error
}

// Server serves the waypoint editing API.
type Server struct {
	store     Store
	elevation ElevationSource
	archive   Archive
	catalog   Catalog
	port      int
}

// Config holds configuration for the API server.
type Config struct {
	Port      int
	Elevation ElevationSource
	Archive   Archive
	Catalog   Catalog
}

// NewServer creates a new waypoint API server.
func NewServer(store Store, cfg Config) *Server {
	return &Server{
		store:     store,
		elevation: cfg.Elevation,
		archive:   cfg.Archive,
		catalog:   cfg.Catalog,
		port:      cfg.Port,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Mount("/api/v1", s.Router())

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Waypoint API starting at http://localhost%s", addr)
	return http.ListenAndServe(addr, r)
}

// Router returns the API routes for mounting under a path prefix.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/styles", s.handleStyles)

	r.Get("/waypoints", s.handleListWaypoints)
	r.Post("/waypoints", s.handleAddWaypoint)
	r.Put("/waypoints/{index}", s.handleUpdateWaypoint)
	r.Delete("/waypoints/{index}", s.handleDeleteWaypoint)

	r.Post("/upload", s.handleUpload)
	r.Get("/download/{format}", s.handleDownload)
	r.Post("/clear", s.handleClear)

	r.Get("/elevation/{lat}/{lon}", s.handleElevation)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionID returns the session identifier from the request cookie,
// minting a new one when absent.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sortByName keeps the list in the order the editor displays it.
func sortByName(ws []waypoint.Waypoint) {
	sort.SliceStable(ws, func(i, j int) bool {
		return strings.ToLower(ws[i].Name) < strings.ToLower(ws[j].Name)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, waypoint.StyleNames)
}

func (s *Server) handleListWaypoints(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.Get(s.sessionID(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].ToMap())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddWaypoint(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.fillElevation(r.Context(), data)

	wp, err := waypoint.FromMap(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session := s.sessionID(w, r)
	ws, err := s.store.Get(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ws = append(ws, *wp)
	sortByName(ws)
	if err := s.store.Put(session, ws); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "waypoint": wp.ToMap()})
}

func (s *Server) handleUpdateWaypoint(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	session := s.sessionID(w, r)
	ws, err := s.store.Get(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if index < 0 || index >= len(ws) {
		writeError(w, http.StatusNotFound, "waypoint index out of range")
		return
	}

	// A coordinate move invalidates the stored elevation, refresh it.
	old := &ws[index]
	lat, latOK := numberField(data, "latitude")
	lon, lonOK := numberField(data, "longitude")
	moved := latOK && lonOK && (lat != old.Latitude || lon != old.Longitude)
	if moved {
		delete(data, "elevation")
	}
	s.fillElevation(r.Context(), data)

	wp, err := waypoint.FromMap(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws[index] = *wp
	sortByName(ws)
	if err := s.store.Put(session, ws); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "waypoint": wp.ToMap()})
}

func (s *Server) handleDeleteWaypoint(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index")
		return
	}

	session := s.sessionID(w, r)
	ws, err := s.store.Get(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if index < 0 || index >= len(ws) {
		writeError(w, http.StatusNotFound, "waypoint index out of range")
		return
	}

	deleted := ws[index]
	ws = append(ws[:index], ws[index+1:]...)
	if err := s.store.Put(session, ws); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted.ToMap()})
}

func (s *Server) handleElevation(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	lon, lonErr := strconv.ParseFloat(chi.URLParam(r, "lon"), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	if s.elevation == nil {
		writeError(w, http.StatusServiceUnavailable, "elevation service not configured")
		return
	}

	elev, err := s.elevation.Lookup(r.Context(), lat, lon)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "elevation": elev})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer func() { _ = file.Close() }()

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".cup" && ext != ".csv" {
		writeError(w, http.StatusBadRequest, "invalid file type, only .cup and .csv files are allowed")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	start := time.Now()
	var ws []waypoint.Waypoint
	var skipped int
	var warnings []string
	format := strings.TrimPrefix(ext, ".")

	if ext == ".cup" {
		result := cup.Parse(string(content))
		ws, skipped, warnings = result.Waypoints, result.Skipped, result.Warnings
	} else {
		result := csvfmt.Parse(string(content))
		ws, skipped, warnings = result.Waypoints, result.Skipped, result.Warnings
	}

	session := s.sessionID(w, r)
	if err := s.store.Put(session, ws); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.SetFilename(session, filename); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.recordImport(r.Context(), storage.ImportRecord{
		ID:            uuid.NewString(),
		SessionID:     session,
		Filename:      filename,
		Format:        format,
		WaypointCount: uint32(len(ws)),
		Skipped:       uint32(skipped),
		WarningCount:  uint32(len(warnings)),
		Duration:      time.Since(start),
		ImportedAt:    time.Now().UTC(),
	}, ws)

	out := make([]map[string]any, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].ToMap())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   fmt.Sprintf("Loaded %d waypoints from %s", len(ws), filename),
		"waypoints": out,
		"skipped":   skipped,
		"warnings":  warnings,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if strings.ToLower(chi.URLParam(r, "format")) != "cup" {
		writeError(w, http.StatusBadRequest, "only the cup format is supported")
		return
	}

	session := s.sessionID(w, r)
	ws, err := s.store.Get(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(ws) == 0 {
		writeError(w, http.StatusBadRequest, "no waypoints to download")
		return
	}

	legacy := r.URL.Query().Get("legacy") == "1"
	content := cup.WriteWith(ws, cup.WriteOptions{Legacy: legacy})

	filename, _ := s.store.Filename(session)
	if !strings.HasSuffix(strings.ToLower(filename), ".cup") {
		filename = "waypoints.cup"
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(s.sessionID(w, r)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "All waypoints cleared"})
}

// fillElevation looks up the elevation for a waypoint payload that has
// coordinates but no elevation. Lookup failures are logged and ignored.
func (s *Server) fillElevation(ctx context.Context, data map[string]any) {
	if s.elevation == nil {
		return
	}
	if elev, _ := data["elevation"].(string); elev != "" {
		return
	}
	lat, latOK := numberField(data, "latitude")
	lon, lonOK := numberField(data, "longitude")
	if !latOK || !lonOK {
		return
	}

	elev, err := s.elevation.Lookup(ctx, lat, lon)
	if err != nil {
		log.Printf("elevation lookup skipped for %f,%f: %v", lat, lon, err)
		return
	}
	if elev > 0 {
		data["elevation"] = strconv.FormatFloat(elev, 'f', -1, 64) + "m"
	}
}

// recordImport archives the import and folds its waypoints into the
// catalog, best effort.
func (s *Server) recordImport(ctx context.Context, rec storage.ImportRecord, ws []waypoint.Waypoint) {
	if s.archive != nil {
		if err := s.archive.RecordImport(ctx, rec); err != nil {
			log.Printf("record import: %v", err)
		} else if err := s.archive.ArchiveWaypoints(ctx, rec.ID, ws); err != nil {
			log.Printf("archive waypoints: %v", err)
		}
	}
	if s.catalog != nil {
		for i := range ws {
			if err := s.catalog.UpsertWaypoint(ctx, ws[i]); err != nil {
				log.Printf("catalog upsert %q: %v", ws[i].Name, err)
				break
			}
		}
	}
}

func numberField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
