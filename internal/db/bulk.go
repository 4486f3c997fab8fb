package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// BulkUpdateStatus sets the status of several issues as one all-or-nothing
// unit. The whole batch is validated before the first write: every item must
// carry a non-zero issue ID, a recognized status, and reference an existing
// issue. The first invalid item fails the request with a ValidationError and
// leaves the store untouched.
//
// Items are applied in input order. Each item is one mutation of its issue, so
// the issue's version advances by one per item. The returned issues reflect
// the state written by each item, in input order.
func BulkUpdateStatus(ctx context.Context, db *sql.DB, changes []model.StatusChange) ([]*model.Issue, error) {
	if len(changes) == 0 {
		return nil, model.FieldError("non_field_errors", "Expected a non-empty list of items.")
	}
	for i, c := range changes {
		if err := validateStatusChange(i, c); err != nil {
			return nil, err
		}
	}

	updated := make([]*model.Issue, 0, len(changes))
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		for i, c := range changes {
			if _, err := getIssue(ctx, tx, c.ID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return model.FieldError(itemKey(i, "id"), fmt.Sprintf("Issue %d does not exist.", c.ID))
				}
				return err
			}
		}

		now := formatStamp(time.Now().UTC())
		for _, c := range changes {
			res, err := tx.ExecContext(ctx,
				`UPDATE issues SET status = ?, version = version + 1, updated_at = ? WHERE id = ?`,
				string(c.Status), now, c.ID,
			)
			if err != nil {
				return fmt.Errorf("updating issue %d: %w", c.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("checking rows affected: %w", err)
			}
			if n != 1 {
				return fmt.Errorf("updating issue %d: %d rows affected", c.ID, n)
			}

			issue, err := getIssue(ctx, tx, c.ID)
			if err != nil {
				return err
			}
			updated = append(updated, issue)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// validateStatusChange checks one batch item without touching the store. An
// ID of zero is treated the same as a missing ID.
func validateStatusChange(i int, c model.StatusChange) error {
	verr := model.NewValidationError()
	if c.ID == 0 {
		verr.Add(itemKey(i, "id"), model.MsgRequired)
	} else if c.ID < 0 {
		verr.Add(itemKey(i, "id"), "Ensure this value is greater than or equal to 1.")
	}
	if c.Status == "" {
		verr.Add(itemKey(i, "status"), model.MsgRequired)
	} else if err := model.ValidateStatus(c.Status); err != nil {
		verr.Add(itemKey(i, "status"), err.Error())
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func itemKey(i int, field string) string {
	return fmt.Sprintf("items[%d].%s", i, field)
}
