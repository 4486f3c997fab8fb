package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ConflictError is returned when an optimistic update carries a version that
// no longer matches the stored row. Current is the authoritative stored
// version, so the caller can refetch and retry.
type ConflictError struct {
	IssueID  int
	Expected int
	Current  int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on issue %d: expected %d, current %d", e.IssueID, e.Expected, e.Current)
}

const issueColumns = `id, title, description, status, assignee, version, created_at, updated_at`

// ListOptions holds filtering and pagination options for ListIssues.
type ListOptions struct {
	Status   model.Status // filter by exact status
	Assignee *int64       // filter by assignee reference
	Limit    int          // max results, 0 for no limit
	Offset   int          // for pagination
}

// CreateIssue validates and inserts a new issue at version 1 and returns the
// stored row.
func CreateIssue(ctx context.Context, db *sql.DB, in model.NewIssue) (*model.Issue, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var issue *model.Issue
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		issue, err = insertIssue(ctx, tx, in, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// insertIssue writes a validated issue and reads it back.
func insertIssue(ctx context.Context, tx *sql.Tx, in model.NewIssue, now time.Time) (*model.Issue, error) {
	ts := formatStamp(now)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO issues (title, description, status, assignee, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		in.Title,
		in.Description,
		string(in.Status),
		nilIfNilRef(in.Assignee),
		ts,
		ts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting issue: %w", err)
	}

	id64, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}

	return getIssue(ctx, tx, int(id64))
}

// GetIssue retrieves an issue by ID.
func GetIssue(ctx context.Context, db *sql.DB, id int) (*model.Issue, error) {
	return getIssue(ctx, db, id)
}

func getIssue(ctx context.Context, q queryer, id int) (*model.Issue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssueFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning issue: %w", err)
	}
	return issue, nil
}

// GetIssueDetail retrieves an issue with its comments and labels.
func GetIssueDetail(ctx context.Context, db *sql.DB, id int) (*model.IssueDetail, error) {
	issue, err := GetIssue(ctx, db, id)
	if err != nil {
		return nil, err
	}

	comments, err := ListComments(ctx, db, id)
	if err != nil {
		return nil, err
	}

	labels, err := GetIssueLabels(ctx, db, id)
	if err != nil {
		return nil, err
	}

	return &model.IssueDetail{Issue: *issue, Comments: comments, Labels: labels}, nil
}

// ListIssues retrieves issues matching the given filters, newest first. It
// returns the page of issues and the total count of matching rows (ignoring
// Limit/Offset).
func ListIssues(ctx context.Context, db *sql.DB, opts ListOptions) ([]*model.Issue, int, error) {
	var (
		whereClauses []string
		args         []any
	)

	if opts.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.Assignee != nil {
		whereClauses = append(whereClauses, "assignee = ?")
		args = append(args, *opts.Assignee)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var totalCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues `+whereSQL, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("counting issues: %w", err)
	}

	query := `SELECT ` + issueColumns + ` FROM issues ` + whereSQL + ` ORDER BY created_at DESC, id DESC`
	mainArgs := make([]any, len(args))
	copy(mainArgs, args)

	if opts.Limit > 0 {
		query += " LIMIT ?"
		mainArgs = append(mainArgs, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			mainArgs = append(mainArgs, opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, mainArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	issues := make([]*model.Issue, 0)
	for rows.Next() {
		issue, err := scanIssueFrom(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating issue rows: %w", err)
	}

	return issues, totalCount, nil
}

// CountIssues returns the total number of issues in the database.
func CountIssues(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return count, nil
}

// CountByStatus returns a map of status -> count for all issues.
func CountByStatus(ctx context.Context, db *sql.DB) (map[model.Status]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	result := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		result[model.Status(status)] = count
	}
	return result, rows.Err()
}

// ClearAllData deletes all issues, comments, labels and associations within
// a single transaction. The schema and meta table are preserved.
func ClearAllData(ctx context.Context, db *sql.DB) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		tables := []string{
			"issue_labels",
			"comments",
			"issues",
			"labels",
		}
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// --- helpers ---

// scanIssueFrom scans a single issue from any scanner (*sql.Row or *sql.Rows).
func scanIssueFrom(s scanner) (*model.Issue, error) {
	var i model.Issue
	var assignee sql.NullInt64
	var status, createdAt, updatedAt string

	err := s.Scan(
		&i.ID, &i.Title, &i.Description, &status, &assignee,
		&i.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Status = model.Status(status)
	if assignee.Valid {
		a := assignee.Int64
		i.Assignee = &a
	}

	t, err := model.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t

	t, err = model.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	i.UpdatedAt = t

	return &i, nil
}

// stampLayout is fixed-width so stored timestamps sort lexically in time order.
const stampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatStamp renders a timestamp for storage.
func formatStamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// nilIfNilRef returns nil if p is nil, otherwise returns *p (for sql parameter binding).
func nilIfNilRef(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
