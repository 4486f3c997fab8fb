package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// CheckVersion compares the caller's expected version against the stored row.
// On a match it returns a copy of current with the version advanced by one;
// otherwise it returns a *ConflictError carrying the stored version.
func CheckVersion(expected int, current *model.Issue) (*model.Issue, error) {
	if expected != current.Version {
		return nil, &ConflictError{
			IssueID:  current.ID,
			Expected: expected,
			Current:  current.Version,
		}
	}
	next := *current
	next.Version = current.Version + 1
	return &next, nil
}

// UpdateIssue applies an optimistic, version-checked patch to one issue. The
// read, the version comparison and the write happen in one transaction, and
// the UPDATE itself is guarded on the version it read, so two writers holding
// the same version can never both succeed.
//
// Only fields present in the patch are written. On success the returned issue
// carries the new version, which is exactly the old version plus one.
func UpdateIssue(ctx context.Context, db *sql.DB, id int, patch model.IssuePatch) (*model.Issue, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	expected := *patch.Version

	var updated *model.Issue
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		current, err := getIssue(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := CheckVersion(expected, current)
		if err != nil {
			return err
		}

		applied := patch.Apply(*next)
		applied.UpdatedAt = time.Now().UTC()

		if err := writeIssue(ctx, tx, &applied, current.Version); err != nil {
			return err
		}
		updated = &applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// writeIssue persists every mutable column of issue, guarded on the version
// the caller read. Zero affected rows means another writer got there first;
// the stored version is re-read so the conflict reports it.
func writeIssue(ctx context.Context, tx *sql.Tx, issue *model.Issue, readVersion int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE issues
		 SET title = ?, description = ?, status = ?, assignee = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		issue.Title,
		issue.Description,
		string(issue.Status),
		nilIfNilRef(issue.Assignee),
		issue.Version,
		formatStamp(issue.UpdatedAt),
		issue.ID,
		readVersion,
	)
	if err != nil {
		return fmt.Errorf("updating issue: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	current, err := getIssue(ctx, tx, issue.ID)
	if err != nil {
		return err
	}
	return &ConflictError{IssueID: issue.ID, Expected: readVersion, Current: current.Version}
}
