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

// CreateComment appends a comment to an issue and returns the stored row.
// The body must be non-empty after trimming. Returns ErrNotFound when the
// issue does not exist. The issue row itself is not modified.
func CreateComment(ctx context.Context, db *sql.DB, issueID int, author *int64, body string) (*model.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, model.FieldError("body", model.MsgCommentBlank)
	}

	var comment *model.Comment
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)", issueID).Scan(&exists); err != nil {
			return fmt.Errorf("checking issue existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO comments (issue_id, author, body, created_at)
			 VALUES (?, ?, ?, ?)`,
			issueID,
			nilIfNilRef(author),
			body,
			formatStamp(time.Now().UTC()),
		)
		if err != nil {
			return fmt.Errorf("inserting comment: %w", err)
		}

		id64, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}

		comment, err = getComment(ctx, tx, int(id64))
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments retrieves all comments for an issue, ordered by creation time ascending.
func ListComments(ctx context.Context, db *sql.DB, issueID int) ([]*model.Comment, error) {
	return listComments(ctx, db, issueID)
}

func listComments(ctx context.Context, q queryer, issueID int) ([]*model.Comment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, issue_id, author, body, created_at
		 FROM comments WHERE issue_id = ? ORDER BY created_at ASC, id ASC`, issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		c, err := scanCommentFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comment rows: %w", err)
	}

	return comments, nil
}

func getComment(ctx context.Context, q queryer, id int) (*model.Comment, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, issue_id, author, body, created_at
		 FROM comments WHERE id = ?`, id,
	)

	c, err := scanCommentFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning comment: %w", err)
	}

	return c, nil
}

// scanCommentFrom scans a single comment from any scanner (*sql.Row or *sql.Rows).
func scanCommentFrom(s scanner) (*model.Comment, error) {
	var c model.Comment
	var author sql.NullInt64
	var createdAt string

	err := s.Scan(&c.ID, &c.IssueID, &author, &c.Body, &createdAt)
	if err != nil {
		return nil, err
	}

	if author.Valid {
		a := author.Int64
		c.Author = &a
	}

	t, err := model.ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = t

	return &c, nil
}
