package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestRepo creates an in-memory SQLite database with the schema applied.
func setupTestRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	repo := NewSQLiteRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return repo, db
}

// insertRow inserts a history row with a specific timestamp.
func insertRow(t *testing.T, db *sql.DB, deviceID, stateJSON, source string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO state_history (device_id, state, source, created_at) VALUES (?, ?, ?, ?)",
		deviceID,
		stateJSON,
		source,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert history row: %v", err)
	}
}

func TestInit_Idempotent(t *testing.T) {
	repo, _ := setupTestRepo(t)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
}

// TestRecord verifies history writes and retrieval.
func TestRecord(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	state := map[string]string{"switch": "1", "brightness": "80"}
	if err := repo.Record(ctx, "aa11", state, SourceStatus); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := repo.Recent(ctx, "aa11", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.DeviceID != "aa11" {
		t.Errorf("DeviceID = %q, want %q", entry.DeviceID, "aa11")
	}
	if entry.Source != SourceStatus {
		t.Errorf("Source = %q, want %q", entry.Source, SourceStatus)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want non-zero")
	}
	if entry.State["switch"] != "1" {
		t.Errorf("State[switch] = %q, want %q", entry.State["switch"], "1")
	}
	if entry.State["brightness"] != "80" {
		t.Errorf("State[brightness] = %q, want %q", entry.State["brightness"], "80")
	}
}

func TestRecord_Defaults(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Record(ctx, "", map[string]string{}, SourceStatus); err == nil {
		t.Error("Record() expected error for empty device id")
	}

	// Nil state and empty source fall back to an empty snapshot and the
	// status source.
	if err := repo.Record(ctx, "aa11", nil, ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	entries, err := repo.Recent(ctx, "aa11", 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if entries[0].Source != SourceStatus {
		t.Errorf("Source = %q, want %q", entries[0].Source, SourceStatus)
	}
	if len(entries[0].State) != 0 {
		t.Errorf("State = %v, want empty", entries[0].State)
	}
}

// TestRecent verifies ordering and limit enforcement.
func TestRecent(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertRow(t, db, "aa11", `{"switch":"0"}`, SourceCommand, now.Add(-2*time.Hour))
	insertRow(t, db, "aa11", `{"switch":"1"}`, SourceStatus, now.Add(-1*time.Hour))
	insertRow(t, db, "aa11", `{"switch":"1","brightness":"40"}`, SourceStatus, now)
	insertRow(t, db, "bb22", `{"switch":"1"}`, SourceStatus, now)

	entries, err := repo.Recent(ctx, "aa11", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now) {
		t.Errorf("entry[0] CreatedAt = %s, want %s", entries[0].CreatedAt, now)
	}
	if !entries[1].CreatedAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("entry[1] CreatedAt = %s, want %s", entries[1].CreatedAt, now.Add(-1*time.Hour))
	}
}

func TestRecent_SameSecondOrdering(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	// Two records landing within the same second must still come back
	// newest first.
	if err := repo.Record(ctx, "aa11", map[string]string{"switch": "0"}, SourceStatus); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := repo.Record(ctx, "aa11", map[string]string{"switch": "1"}, SourceStatus); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := repo.Recent(ctx, "aa11", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
	if entries[0].State["switch"] != "1" {
		t.Errorf("entry[0] State[switch] = %q, want %q (newest first)", entries[0].State["switch"], "1")
	}
}

func TestRecent_LimitClamping(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 210; i++ {
		insertRow(t, db, "aa11", `{"switch":"1"}`, SourceStatus, now.Add(-time.Duration(i)*time.Minute))
	}

	entries, err := repo.Recent(ctx, "aa11", 500)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != maxLimit {
		t.Errorf("entries length = %d, want %d (clamped)", len(entries), maxLimit)
	}

	entries, err = repo.Recent(ctx, "aa11", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != defaultLimit {
		t.Errorf("entries length = %d, want %d (default)", len(entries), defaultLimit)
	}
}

func TestRecent_UnknownDevice(t *testing.T) {
	repo, _ := setupTestRepo(t)

	entries, err := repo.Recent(context.Background(), "missing", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries length = %d, want 0", len(entries))
	}

	if _, err := repo.Recent(context.Background(), "", 10); err == nil {
		t.Error("Recent() expected error for empty device id")
	}
}

// TestPrune verifies old entries are removed.
func TestPrune(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertRow(t, db, "aa11", `{"switch":"1"}`, SourceStatus, now.Add(-40*24*time.Hour))
	insertRow(t, db, "aa11", `{"switch":"0"}`, SourceStatus, now.Add(-12*time.Hour))

	deleted, err := repo.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.Recent(ctx, "aa11", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now.Add(-12 * time.Hour)) {
		t.Errorf("remaining CreatedAt = %s, want %s", entries[0].CreatedAt, now.Add(-12*time.Hour))
	}

	if _, err := repo.Prune(ctx, 0); err == nil {
		t.Error("Prune() expected error for non-positive duration")
	}
}
