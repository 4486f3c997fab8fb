// Package importer creates issues from CSV files one row at a time. Every row
// is validated and stored on its own, so a bad row is reported and skipped
// while the rows around it are still created.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// RequiredHeaders lists the columns every import file must declare. Extra
// columns are ignored.
var RequiredHeaders = []string{"title", "description", "status", "assignee"}

// RowError records why one data row was rejected. Row is 1-based and counts
// data rows only, so the first line after the header is row 1.
type RowError struct {
	Row    int                 `json:"row"`
	Errors map[string][]string `json:"errors"`
}

// Result summarizes an import.
type Result struct {
	TotalRows int        `json:"total_rows"`
	Created   int        `json:"created"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`

	// IssueIDs holds the IDs of the created issues in row order.
	IssueIDs []int `json:"-"`
}

type outcomeKind int

const (
	outcomeCreated outcomeKind = iota
	outcomeInvalid
)

// rowOutcome is the result of processing a single row.
type rowOutcome struct {
	kind   outcomeKind
	issue  *model.Issue
	fields map[string][]string
}

// record applies one row outcome to the summary.
func (r *Result) record(row int, o rowOutcome) {
	r.TotalRows++
	switch o.kind {
	case outcomeCreated:
		r.Created++
		r.IssueIDs = append(r.IssueIDs, o.issue.ID)
	case outcomeInvalid:
		r.Failed++
		r.Errors = append(r.Errors, RowError{Row: row, Errors: o.fields})
	}
}

// Import reads a CSV stream and creates one issue per valid row. A file
// without every required header is rejected with a *model.ValidationError
// before any row is read.
//
// Each created row is committed in its own transaction. A store failure
// stops the import and is returned together with the partial result; rows
// created before it stay committed.
func Import(ctx context.Context, conn *sql.DB, r io.Reader) (*Result, error) {
	log := zerolog.Ctx(ctx)

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.FieldError("file", "The submitted file is empty.")
		}
		return nil, model.FieldError("file", fmt.Sprintf("Could not read CSV header: %v", err))
	}

	columns, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: make([]RowError, 0), IssueIDs: make([]int, 0)}
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return res, fmt.Errorf("reading row %d: %w", row, err)
			}
			res.record(row, invalid("non_field_errors", perr.Err.Error()))
			continue
		}

		in, fields := parseRow(record, columns)
		if fields != nil {
			log.Debug().Int("row", row).Interface("errors", fields).Msg("import row rejected")
			res.record(row, rowOutcome{kind: outcomeInvalid, fields: fields})
			continue
		}

		issue, err := db.CreateIssue(ctx, conn, in)
		if err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				res.record(row, rowOutcome{kind: outcomeInvalid, fields: verr.Fields})
				continue
			}
			return res, fmt.Errorf("creating issue from row %d: %w", row, err)
		}
		res.record(row, rowOutcome{kind: outcomeCreated, issue: issue})
	}

	log.Info().
		Int("total_rows", res.TotalRows).
		Int("created", res.Created).
		Int("failed", res.Failed).
		Msg("import finished")
	return res, nil
}

// indexHeader maps each required column to its position. Names are trimmed
// and compared case-insensitively; a leading byte order mark is dropped.
func indexHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := columns[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, model.FieldError("file",
			fmt.Sprintf("CSV is missing required columns: %s.", strings.Join(missing, ", ")))
	}
	return columns, nil
}

// parseRow validates one record. It returns the field errors when the row is
// invalid, nil otherwise.
func parseRow(record []string, columns map[string]int) (model.NewIssue, map[string][]string) {
	get := func(name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	var in model.NewIssue
	verr := model.NewValidationError()

	in.Title = strings.TrimSpace(get("title"))
	if in.Title == "" {
		verr.Add("title", model.MsgTitleBlank)
	}

	in.Description = get("description")

	status := strings.TrimSpace(get("status"))
	if status == "" {
		verr.Add("status", model.MsgRequired)
	} else if err := model.ValidateStatus(model.Status(status)); err != nil {
		verr.Add("status", err.Error())
	} else {
		in.Status = model.Status(status)
	}

	assignee, err := model.ParseRef(get("assignee"))
	if err != nil {
		verr.Add("assignee", model.MsgNotInteger)
	} else {
		in.Assignee = assignee
	}

	if verr.HasErrors() {
		return in, verr.Fields
	}
	return in, nil
}

func invalid(field, msg string) rowOutcome {
	return rowOutcome{kind: outcomeInvalid, fields: map[string][]string{field: {msg}}}
}
