package db

import (
	"context"
	"errors"
	"testing"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

func TestBulkUpdateStatus(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	a := createTestIssue(t, db, "a")
	b := createTestIssue(t, db, "b")

	updated, err := BulkUpdateStatus(ctx, db, []model.StatusChange{
		{ID: a.ID, Status: model.StatusResolved},
		{ID: b.ID, Status: model.StatusClosed},
	})
	if err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("got %d issues, want 2", len(updated))
	}
	if updated[0].ID != a.ID || updated[0].Status != model.StatusResolved || updated[0].Version != 2 {
		t.Errorf("updated[0] = %+v", updated[0])
	}
	if updated[1].ID != b.ID || updated[1].Status != model.StatusClosed || updated[1].Version != 2 {
		t.Errorf("updated[1] = %+v", updated[1])
	}
}

func TestBulkUpdateStatusAllOrNothing(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	var ids []int
	for _, title := range []string{"one", "two", "four", "five"} {
		ids = append(ids, createTestIssue(t, db, title).ID)
	}

	changes := []model.StatusChange{
		{ID: ids[0], Status: model.StatusClosed},
		{ID: ids[1], Status: model.StatusClosed},
		{ID: 9999, Status: model.StatusClosed},
		{ID: ids[2], Status: model.StatusClosed},
		{ID: ids[3], Status: model.StatusClosed},
	}
	_, err := BulkUpdateStatus(ctx, db, changes)

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["items[2].id"]; !ok {
		t.Errorf("expected error on items[2].id, got %v", verr.Fields)
	}

	for _, id := range ids {
		got, err := GetIssue(ctx, db, id)
		if err != nil {
			t.Fatalf("GetIssue(%d): %v", id, err)
		}
		if got.Status != model.StatusOpen || got.Version != 1 {
			t.Errorf("issue %d modified: status %q version %d", id, got.Status, got.Version)
		}
	}
}

func TestBulkUpdateStatusValidation(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "target")

	tests := []struct {
		name    string
		changes []model.StatusChange
		field   string
	}{
		{"empty list", nil, "non_field_errors"},
		{"zero id", []model.StatusChange{{ID: 0, Status: model.StatusClosed}}, "items[0].id"},
		{"negative id", []model.StatusChange{{ID: -3, Status: model.StatusClosed}}, "items[0].id"},
		{"missing status", []model.StatusChange{{ID: issue.ID}}, "items[0].status"},
		{"unknown status", []model.StatusChange{
			{ID: issue.ID, Status: model.StatusClosed},
			{ID: issue.ID, Status: "archived"},
		}, "items[1].status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BulkUpdateStatus(ctx, db, tt.changes)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected error on %q, got %v", tt.field, verr.Fields)
			}
		})
	}

	got, err := GetIssue(ctx, db, issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d after rejected batches, want 1", got.Version)
	}
}

func TestBulkUpdateStatusDuplicateIDs(t *testing.T) {
	db := mustInit(t)
	ctx := context.Background()

	issue := createTestIssue(t, db, "twice")
	updated, err := BulkUpdateStatus(ctx, db, []model.StatusChange{
		{ID: issue.ID, Status: model.StatusInProgress},
		{ID: issue.ID, Status: model.StatusResolved},
	})
	if err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}
	if updated[1].Status != model.StatusResolved || updated[1].Version != 3 {
		t.Errorf("final = status %q version %d, want resolved 3", updated[1].Status, updated[1].Version)
	}
}
