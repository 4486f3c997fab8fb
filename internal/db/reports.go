package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// TopAssignees groups issues with a non-null assignee by assignee and orders
// the groups by descending issue count. Groups with equal counts come back in
// no defined order. A limit of zero returns every group.
func TopAssignees(ctx context.Context, db *sql.DB, limit int) ([]model.AssigneeCount, error) {
	query := `SELECT assignee, COUNT(*) AS issue_count
	          FROM issues
	          WHERE assignee IS NOT NULL
	          GROUP BY assignee
	          ORDER BY issue_count DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying top assignees: %w", err)
	}
	defer rows.Close()

	out := make([]model.AssigneeCount, 0)
	for rows.Next() {
		var ac model.AssigneeCount
		if err := rows.Scan(&ac.Assignee, &ac.IssueCount); err != nil {
			return nil, fmt.Errorf("scanning assignee count: %w", err)
		}
		out = append(out, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignee rows: %w", err)
	}
	return out, nil
}

// ResolutionLatency averages updated_at - created_at over resolved and closed
// issues. With no such issues the report has a nil Average.
func ResolutionLatency(ctx context.Context, db *sql.DB) (model.LatencyReport, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT created_at, updated_at FROM issues WHERE status IN (?, ?)`,
		string(model.StatusResolved), string(model.StatusClosed),
	)
	if err != nil {
		return model.LatencyReport{}, fmt.Errorf("querying resolved issues: %w", err)
	}
	defer rows.Close()

	var durations []time.Duration
	for rows.Next() {
		var createdAt, updatedAt string
		if err := rows.Scan(&createdAt, &updatedAt); err != nil {
			return model.LatencyReport{}, fmt.Errorf("scanning timestamps: %w", err)
		}
		created, err := model.ParseTime(createdAt)
		if err != nil {
			return model.LatencyReport{}, fmt.Errorf("parsing created_at: %w", err)
		}
		updated, err := model.ParseTime(updatedAt)
		if err != nil {
			return model.LatencyReport{}, fmt.Errorf("parsing updated_at: %w", err)
		}
		durations = append(durations, updated.Sub(created))
	}
	if err := rows.Err(); err != nil {
		return model.LatencyReport{}, fmt.Errorf("iterating resolved issues: %w", err)
	}

	return averageLatency(durations), nil
}

// averageLatency returns the arithmetic mean, accumulated in float64 so a
// large sample cannot overflow the nanosecond sum.
func averageLatency(durations []time.Duration) model.LatencyReport {
	if len(durations) == 0 {
		return model.LatencyReport{}
	}
	var sum float64
	for _, d := range durations {
		sum += float64(d)
	}
	avg := time.Duration(sum / float64(len(durations)))
	return model.LatencyReport{Average: &avg, Samples: len(durations)}
}

// Timeline reconstructs a chronological event list for one issue from its
// current state: a created event, a status_change event when the issue was
// modified after creation, one event per comment, and a single label_update
// event when the issue currently carries labels. It is not an audit log;
// intermediate status and label changes are not recoverable.
func Timeline(ctx context.Context, db *sql.DB, issueID int) ([]model.TimelineEvent, error) {
	var (
		issue    *model.Issue
		comments []*model.Comment
		labels   []*model.Label
	)
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		if issue, err = getIssue(ctx, tx, issueID); err != nil {
			return err
		}
		if comments, err = listComments(ctx, tx, issueID); err != nil {
			return err
		}
		labels, err = getIssueLabels(ctx, tx, issueID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return BuildTimeline(issue, comments, labels), nil
}

// BuildTimeline merges the synthetic events and sorts them ascending by
// timestamp. Events with equal timestamps keep the order created,
// status_change, comments, label_update.
func BuildTimeline(issue *model.Issue, comments []*model.Comment, labels []*model.Label) []model.TimelineEvent {
	events := make([]model.TimelineEvent, 0, len(comments)+3)

	events = append(events, model.TimelineEvent{
		Type:      model.EventCreated,
		Timestamp: issue.CreatedAt,
	})

	if !issue.UpdatedAt.Equal(issue.CreatedAt) {
		events = append(events, model.TimelineEvent{
			Type:      model.EventStatusChange,
			Timestamp: issue.UpdatedAt,
			Status:    issue.Status,
		})
	}

	for _, c := range comments {
		events = append(events, model.TimelineEvent{
			Type:      model.EventComment,
			Timestamp: c.CreatedAt,
			CommentID: c.ID,
			Author:    c.Author,
			Body:      c.Body,
		})
	}

	if len(labels) > 0 {
		names := make([]string, len(labels))
		for i, l := range labels {
			names[i] = l.Name
		}
		events = append(events, model.TimelineEvent{
			Type:      model.EventLabelUpdate,
			Timestamp: issue.UpdatedAt,
			Labels:    names,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}
