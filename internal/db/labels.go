package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// ReplaceIssueLabels replaces the issue's label set with exactly the given
// names, atomically. Names are trimmed and deduplicated; a blank name rejects
// the whole request before anything is written. Each distinct name is resolved
// to a label row, created on first use. The resolved labels are returned in
// first-occurrence order.
//
// The issue row itself (version, updated_at) is not modified.
func ReplaceIssueLabels(ctx context.Context, db *sql.DB, issueID int, names []string) ([]*model.Label, error) {
	normalized, err := model.NormalizeLabelNames(names)
	if err != nil {
		return nil, err
	}

	labels := make([]*model.Label, 0, len(normalized))
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)`, issueID).Scan(&exists); err != nil {
			return fmt.Errorf("checking issue existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		for _, name := range normalized {
			label, err := getOrCreateLabel(ctx, tx, name)
			if err != nil {
				return fmt.Errorf("resolving label %q: %w", name, err)
			}
			labels = append(labels, label)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM issue_labels WHERE issue_id = ?`, issueID); err != nil {
			return fmt.Errorf("clearing issue labels: %w", err)
		}
		for _, label := range labels {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO issue_labels (issue_id, label_id) VALUES (?, ?)`,
				issueID, label.ID,
			); err != nil {
				return fmt.Errorf("linking label %q: %w", label.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// getOrCreateLabel resolves name to its label row, inserting it if absent.
// The insert is a no-op when the unique name already exists, including when a
// concurrent writer created it first, and the row is then read back, so at
// most one row ever exists per name.
func getOrCreateLabel(ctx context.Context, tx *sql.Tx, name string) (*model.Label, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO labels (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name,
	); err != nil {
		return nil, fmt.Errorf("inserting label: %w", err)
	}

	var l model.Label
	err := tx.QueryRowContext(ctx, `SELECT id, name FROM labels WHERE name = ?`, name).Scan(&l.ID, &l.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("label %q vanished after insert", name)
		}
		return nil, fmt.Errorf("querying label: %w", err)
	}
	return &l, nil
}

// GetIssueLabels returns the labels attached to an issue, sorted alphabetically by name.
func GetIssueLabels(ctx context.Context, db *sql.DB, issueID int) ([]*model.Label, error) {
	return getIssueLabels(ctx, db, issueID)
}

func getIssueLabels(ctx context.Context, q queryer, issueID int) ([]*model.Label, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT l.id, l.name FROM labels l
		 JOIN issue_labels il ON il.label_id = l.id
		 WHERE il.issue_id = ?
		 ORDER BY l.name`, issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying issue labels: %w", err)
	}
	defer rows.Close()

	labels := make([]*model.Label, 0)
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating label rows: %w", err)
	}

	return labels, nil
}

// ListAllLabels returns every label along with the count of issues using it,
// sorted alphabetically by name.
func ListAllLabels(ctx context.Context, db *sql.DB) ([]*model.LabelWithCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT l.id, l.name, COUNT(il.issue_id) AS issue_count
		 FROM labels l
		 LEFT JOIN issue_labels il ON il.label_id = l.id
		 GROUP BY l.id
		 ORDER BY l.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying labels: %w", err)
	}
	defer rows.Close()

	labels := make([]*model.LabelWithCount, 0)
	for rows.Next() {
		var lc model.LabelWithCount
		if err := rows.Scan(&lc.ID, &lc.Name, &lc.IssueCount); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, &lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating label rows: %w", err)
	}

	return labels, nil
}

// CountLabels returns the number of label rows.
func CountLabels(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM labels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting labels: %w", err)
	}
	return n, nil
}
