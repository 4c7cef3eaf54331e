package storage

import (
	"path/filepath"
	"testing"
	"time"

	"cup_editor/internal/waypoint"
)

func openTestSessions(t *testing.T) *SessionDB {
	t.Helper()

	db, err := OpenSessions(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open sessions db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testWaypoints() []waypoint.Waypoint {
	return []waypoint.Waypoint{
		{
			Name:      "Borsk",
			Code:      "BRK",
			Country:   "PL",
			Latitude:  52.765234,
			Longitude: 23.186783,
			Elevation: "504.0m",
			Style:     2,
			Frequency: "123.500",
		},
		{
			Name:        "Chamonix",
			Country:     "FR",
			Latitude:    45.923,
			Longitude:   6.869,
			Elevation:   "1035m",
			Style:       0,
			Description: "Valley landing",
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openTestSessions(t)

	want := testWaypoints()
	if err := db.Put("session-1", want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := db.Get("session-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d waypoints, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("waypoint %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPutReplacesList(t *testing.T) {
	db := openTestSessions(t)

	if err := db.Put("session-1", testWaypoints()); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := db.Put("session-1", testWaypoints()[:1]); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := db.Get("session-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d waypoints after replace, want 1", len(got))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	db := openTestSessions(t)

	if err := db.Put("session-a", testWaypoints()); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := db.Put("session-b", testWaypoints()[:1]); err != nil {
		t.Fatalf("put b: %v", err)
	}

	a, _ := db.Get("session-a")
	b, _ := db.Get("session-b")
	if len(a) != 2 || len(b) != 1 {
		t.Errorf("session lists mixed: a=%d b=%d", len(a), len(b))
	}
}

func TestGetUnknownSession(t *testing.T) {
	db := openTestSessions(t)

	got, err := db.Get("never-seen")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unknown session: got %d waypoints, want 0", len(got))
	}
}

func TestClear(t *testing.T) {
	db := openTestSessions(t)

	if err := db.Put("session-1", testWaypoints()); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.SetFilename("session-1", "alps.cup"); err != nil {
		t.Fatalf("set filename: %v", err)
	}

	if err := db.Clear("session-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got, _ := db.Get("session-1")
	if len(got) != 0 {
		t.Errorf("got %d waypoints after clear, want 0", len(got))
	}
	name, _ := db.Filename("session-1")
	if name != "" {
		t.Errorf("filename after clear: got %q, want empty", name)
	}
}

func TestFilename(t *testing.T) {
	db := openTestSessions(t)

	if err := db.SetFilename("session-1", "alps.cup"); err != nil {
		t.Fatalf("set filename: %v", err)
	}
	name, err := db.Filename("session-1")
	if err != nil {
		t.Fatalf("filename: %v", err)
	}
	if name != "alps.cup" {
		t.Errorf("filename: got %q, want alps.cup", name)
	}

	name, err = db.Filename("unknown")
	if err != nil {
		t.Fatalf("filename unknown: %v", err)
	}
	if name != "" {
		t.Errorf("unknown session filename: got %q, want empty", name)
	}
}

func TestPruneBefore(t *testing.T) {
	db := openTestSessions(t)

	if err := db.Put("old-session", testWaypoints()); err != nil {
		t.Fatalf("put: %v", err)
	}

	// A future cutoff removes everything written so far.
	n, err := db.PruneBefore(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d sessions, want 1", n)
	}

	got, _ := db.Get("old-session")
	if len(got) != 0 {
		t.Errorf("got %d waypoints after prune, want 0", len(got))
	}
}

func TestStats(t *testing.T) {
	db := openTestSessions(t)

	if err := db.Put("session-1", testWaypoints()); err != nil {
		t.Fatalf("put: %v", err)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Sessions != 1 {
		t.Errorf("sessions: got %d, want 1", stats.Sessions)
	}
	if stats.Waypoints != 2 {
		t.Errorf("waypoints: got %d, want 2", stats.Waypoints)
	}
	if stats.ByStyle[2] != 1 || stats.ByStyle[0] != 1 {
		t.Errorf("by style: got %v", stats.ByStyle)
	}
}
