package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

func mustOpen(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// mustInit opens an in-memory database with the schema applied.
func mustInit(t *testing.T) *sql.DB {
	t.Helper()
	db := mustOpen(t)
	if err := Initialize(db); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return db
}

// createTestIssue creates an open issue with the given title, sleeping 1ms
// afterwards so consecutive calls get distinct created_at values.
func createTestIssue(t *testing.T, conn *sql.DB, title string) *model.Issue {
	t.Helper()
	issue, err := CreateIssue(context.Background(), conn, model.NewIssue{Title: title})
	if err != nil {
		t.Fatalf("CreateIssue(%q): %v", title, err)
	}
	time.Sleep(time.Millisecond)
	return issue
}

func ref(n int64) *int64 { return &n }

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestOpenSetsWALMode(t *testing.T) {
	db := mustOpen(t)

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("querying journal_mode: %v", err)
	}
	// In-memory databases may report "memory" instead of "wal" since WAL
	// requires a file. Accept both.
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestOpenSetsForeignKeys(t *testing.T) {
	db := mustOpen(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("querying foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenSetsBusyTimeout(t *testing.T) {
	db := mustOpen(t)

	var timeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("querying busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestInitializeCreatesAllTables(t *testing.T) {
	db := mustInit(t)

	tables := []string{"meta", "issues", "comments", "labels", "issue_labels"}

	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	db := mustInit(t)

	if err := Initialize(db); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != currentSchemaVersion {
		t.Errorf("schema_version = %d after double init, want %d", v, currentSchemaVersion)
	}
}

func TestMigrateNoOpAtLatestVersion(t *testing.T) {
	db := mustInit(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != currentSchemaVersion {
		t.Errorf("schema_version = %d after Migrate, want %d", v, currentSchemaVersion)
	}
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	db := mustInit(t)

	if _, err := db.Exec(`UPDATE meta SET value = '99' WHERE key = 'schema_version'`); err != nil {
		t.Fatalf("bumping schema version: %v", err)
	}
	if err := Migrate(db); err == nil {
		t.Error("expected error migrating a newer schema, got nil")
	}
}

func TestForeignKeyEnforcement(t *testing.T) {
	db := mustInit(t)

	now := formatStamp(time.Now())
	_, err := db.Exec(
		"INSERT INTO comments (issue_id, body, created_at) VALUES (999, 'test', ?)",
		now,
	)
	if err == nil {
		t.Error("expected foreign key violation, got nil")
	}
}

func TestSchemaRejectsInvalidStatus(t *testing.T) {
	db := mustInit(t)

	now := formatStamp(time.Now())
	_, err := db.Exec(
		"INSERT INTO issues (title, status, created_at, updated_at) VALUES ('x', 'bogus', ?, ?)",
		now, now,
	)
	if err == nil {
		t.Error("expected CHECK violation for unknown status, got nil")
	}
}

func TestCascadeDeleteIssueRemovesCommentsAndLinks(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "cascade")
	if _, err := CreateComment(ctx, db, issue.ID, nil, "a comment"); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if _, err := ReplaceIssueLabels(ctx, db, issue.ID, []string{"bug"}); err != nil {
		t.Fatalf("ReplaceIssueLabels: %v", err)
	}

	if _, err := db.Exec("DELETE FROM issues WHERE id = ?", issue.ID); err != nil {
		t.Fatalf("deleting issue: %v", err)
	}

	for _, table := range []string{"comments", "issue_labels"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE issue_id = ?", issue.ID).Scan(&count); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s: expected 0 rows after cascade delete, got %d", table, count)
		}
	}

	// The label row itself survives.
	n, err := CountLabels(ctx, db)
	if err != nil {
		t.Fatalf("CountLabels: %v", err)
	}
	if n != 1 {
		t.Errorf("CountLabels = %d, want 1", n)
	}
}

func TestStampLayoutSortsLexically(t *testing.T) {
	base := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	a := formatStamp(base)
	b := formatStamp(base.Add(100 * time.Millisecond))
	c := formatStamp(base.Add(time.Second))
	if !(a < b && b < c) {
		t.Errorf("stamps not ordered: %q, %q, %q", a, b, c)
	}

	parsed, err := model.ParseTime(b)
	if err != nil {
		t.Fatalf("ParseTime(%q): %v", b, err)
	}
	if !parsed.Equal(base.Add(100 * time.Millisecond)) {
		t.Errorf("round trip = %v, want %v", parsed, base.Add(100*time.Millisecond))
	}
}

func TestPing(t *testing.T) {
	db := mustOpen(t)
	ctx := context.Background()

	if err := Ping(ctx, db); err == nil {
		t.Error("Ping on an uninitialized database succeeded, want error")
	}

	if err := Ping(ctx, mustInit(t)); err != nil {
		t.Errorf("Ping after Initialize: %v", err)
	}
}
