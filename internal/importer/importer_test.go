package importer

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
)

func mustInit(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Initialize(conn); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return conn
}

func countIssues(t *testing.T, conn *sql.DB) int {
	t.Helper()
	n, err := db.CountIssues(context.Background(), conn)
	if err != nil {
		t.Fatalf("CountIssues: %v", err)
	}
	return n
}

func TestImportPartialSuccess(t *testing.T) {
	conn := mustInit(t)

	input := "title,description,status,assignee\n" +
		"Login broken,Users cannot sign in,open,7\n" +
		"Bad row,,archived,\n" +
		"Slow search,,in_progress,\n"

	res, err := Import(context.Background(), conn, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if res.TotalRows != 3 || res.Created != 2 || res.Failed != 1 {
		t.Errorf("result = total %d created %d failed %d, want 3/2/1", res.TotalRows, res.Created, res.Failed)
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != 2 {
		t.Fatalf("errors = %+v, want one error on row 2", res.Errors)
	}
	if _, ok := res.Errors[0].Errors["status"]; !ok {
		t.Errorf("row 2 errors = %v, want status error", res.Errors[0].Errors)
	}
	if got := countIssues(t, conn); got != 2 {
		t.Errorf("stored issues = %d, want 2", got)
	}

	first, err := db.GetIssue(context.Background(), conn, res.IssueIDs[0])
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if first.Title != "Login broken" || first.Assignee == nil || *first.Assignee != 7 || first.Version != 1 {
		t.Errorf("first issue = %+v", first)
	}
}

func TestImportRowValidation(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
		msg   string
	}{
		{"blank title", "   ,desc,open,", "title", model.MsgTitleBlank},
		{"missing status", "Title,,,", "status", model.MsgRequired},
		{"unknown status", "Title,,done,", "status", `"done" is not a valid choice.`},
		{"non-integer assignee", "Title,,open,bob", "assignee", model.MsgNotInteger},
		{"wrong field count", "Title,open", "non_field_errors", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := mustInit(t)
			input := "title,description,status,assignee\n" + tt.row + "\n"

			res, err := Import(context.Background(), conn, strings.NewReader(input))
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if res.Failed != 1 || res.Created != 0 {
				t.Fatalf("result = %+v, want one failure", res)
			}
			msgs, ok := res.Errors[0].Errors[tt.field]
			if !ok {
				t.Fatalf("errors = %v, want %q", res.Errors[0].Errors, tt.field)
			}
			if tt.msg != "" && (len(msgs) != 1 || msgs[0] != tt.msg) {
				t.Errorf("%s messages = %v, want [%q]", tt.field, msgs, tt.msg)
			}
		})
	}
}

func TestImportMissingHeadersRejectsFile(t *testing.T) {
	conn := mustInit(t)

	input := "title,status\nLogin broken,open\n"
	res, err := Import(context.Background(), conn, strings.NewReader(input))

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	msgs := verr.Fields["file"]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "description, assignee") {
		t.Errorf("file errors = %v", msgs)
	}
	if got := countIssues(t, conn); got != 0 {
		t.Errorf("stored issues = %d, want 0", got)
	}
}

func TestImportEmptyFile(t *testing.T) {
	conn := mustInit(t)

	_, err := Import(context.Background(), conn, strings.NewReader(""))
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestImportHeaderNormalization(t *testing.T) {
	conn := mustInit(t)

	input := "\ufeffTitle , Status,Assignee,Description,extra\n" +
		"Reordered,resolved,,notes,ignored\n"

	res, err := Import(context.Background(), conn, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("result = %+v, want one created", res)
	}

	issue, err := db.GetIssue(context.Background(), conn, res.IssueIDs[0])
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if issue.Status != model.StatusResolved || issue.Description != "notes" || issue.Assignee != nil {
		t.Errorf("issue = %+v", issue)
	}
}

func TestImportHeaderOnly(t *testing.T) {
	conn := mustInit(t)

	res, err := Import(context.Background(), conn, strings.NewReader("title,description,status,assignee\n"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.TotalRows != 0 || res.Errors == nil {
		t.Errorf("result = %+v, want zero rows and non-nil errors", res)
	}
}
