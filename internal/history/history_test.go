package history

import "testing"

func TestOpenRecordAndRecent(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.RunID() == "" {
		t.Fatal("expected a non-empty run ID")
	}

	if err := db.Record(EventPhaseChanged, "science->default"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := db.Record(EventLaunched, "task-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	events, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Kind != EventLaunched {
		t.Fatalf("events[0].Kind = %v, want EventLaunched (newest first)", events[0].Kind)
	}
	if events[0].RunID != db.RunID() {
		t.Fatalf("events[0].RunID = %q, want %q", events[0].RunID, db.RunID())
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/history"
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
