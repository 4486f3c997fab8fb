package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

func TestCheckVersion(t *testing.T) {
	current := &model.Issue{ID: 1, Version: 3}

	next, err := CheckVersion(3, current)
	if err != nil {
		t.Fatalf("CheckVersion(3): %v", err)
	}
	if next.Version != 4 {
		t.Errorf("next.Version = %d, want 4", next.Version)
	}
	if current.Version != 3 {
		t.Errorf("current mutated: Version = %d", current.Version)
	}

	_, err = CheckVersion(2, current)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("CheckVersion(2) err = %v, want ConflictError", err)
	}
	if conflict.Current != 3 || conflict.Expected != 2 {
		t.Errorf("conflict = %+v, want expected 2 current 3", conflict)
	}
}

func TestUpdateIssueBumpsVersion(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "Login broken")

	updated, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{
		Status:  strPtr(string(model.StatusInProgress)),
		Version: intPtr(1),
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}
	if updated.Status != model.StatusInProgress {
		t.Errorf("Status = %q, want in_progress", updated.Status)
	}
	if updated.Title != "Login broken" {
		t.Errorf("Title changed to %q", updated.Title)
	}
	if !updated.UpdatedAt.After(issue.UpdatedAt) {
		t.Errorf("UpdatedAt %v not after %v", updated.UpdatedAt, issue.UpdatedAt)
	}

	stored, err := GetIssue(ctx, db, issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if stored.Version != 2 || stored.Status != model.StatusInProgress {
		t.Errorf("stored = version %d status %q", stored.Version, stored.Status)
	}
}

func TestUpdateIssueSequentialUpdates(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "counter")
	const n = 5
	for i := 0; i < n; i++ {
		if _, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{
			Description: strPtr("pass"),
			Version:     intPtr(1 + i),
		}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	got, err := GetIssue(ctx, db, issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if got.Version != 1+n {
		t.Errorf("Version = %d, want %d", got.Version, 1+n)
	}
}

func TestUpdateIssueStaleVersion(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "stale")
	if _, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{
		Status:  strPtr(string(model.StatusInProgress)),
		Version: intPtr(1),
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{
		Status:  strPtr(string(model.StatusClosed)),
		Version: intPtr(1),
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.Current != 2 {
		t.Errorf("conflict.Current = %d, want 2", conflict.Current)
	}

	got, err := GetIssue(ctx, db, issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if got.Status != model.StatusInProgress || got.Version != 2 {
		t.Errorf("rejected update was applied: status %q version %d", got.Status, got.Version)
	}
}

func TestUpdateIssueMissingVersion(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "no version")
	_, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{Title: strPtr("new")})

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["version"]; !ok {
		t.Errorf("expected version error, got %v", verr.Fields)
	}
}

func TestUpdateIssueNotFound(t *testing.T) {
	db := mustInit(t)

	_, err := UpdateIssue(context.Background(), db, 404, model.IssuePatch{Version: intPtr(1)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateIssueAssigneeTriState(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue, err := CreateIssue(ctx, db, model.NewIssue{Title: "owned", Assignee: ref(7)})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	// Absent assignee leaves it alone.
	got, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{Title: strPtr("renamed"), Version: intPtr(1)})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if got.Assignee == nil || *got.Assignee != 7 {
		t.Errorf("Assignee = %v, want 7", got.Assignee)
	}

	// Explicit null clears it.
	got, err = UpdateIssue(ctx, db, issue.ID, model.IssuePatch{
		Assignee: model.OptionalRef{Set: true},
		Version:  intPtr(2),
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if got.Assignee != nil {
		t.Errorf("Assignee = %v, want nil", *got.Assignee)
	}
}

func TestUpdateIssueConcurrentWritersOneWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docket.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Initialize(db); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	ctx := context.Background()
	issue := createTestIssue(t, db, "contended")

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := UpdateIssue(ctx, db, issue.ID, model.IssuePatch{
				Description: strPtr("writer"),
				Version:     intPtr(1),
			})
			mu.Lock()
			defer mu.Unlock()
			var conflict *ConflictError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &conflict):
				conflicts++
			default:
				t.Errorf("writer %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if conflicts != writers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, writers-1)
	}

	got, err := GetIssue(ctx, db, issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
}
