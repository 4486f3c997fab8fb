package model

import (
	"encoding/json"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
)

// AssigneeCount is one row of the top-assignees report. Assignee is the raw
// user reference, not a resolved display name.
type AssigneeCount struct {
	Assignee   int64 `json:"assignee"`
	IssueCount int   `json:"issue_count"`
}

// LatencyReport is the mean of updated_at - created_at over resolved and
// closed issues. Average is nil when there is nothing to average.
//
// updated_at is the last modification of any kind, so this is a proxy for
// resolution latency rather than the time the issue actually resolved.
type LatencyReport struct {
	Average *time.Duration
	Samples int
}

// HasData reports whether the report has at least one sample.
func (r LatencyReport) HasData() bool {
	return r.Average != nil
}

// MarshalJSON renders the average in seconds, or null when there is no data.
func (r LatencyReport) MarshalJSON() ([]byte, error) {
	out := struct {
		Average *float64 `json:"average_resolution_time"`
		Human   *string  `json:"average_resolution_human"`
		Samples int      `json:"sample_size"`
	}{Samples: r.Samples}

	if r.Average != nil {
		secs := r.Average.Seconds()
		human := HumanDuration(*r.Average)
		out.Average = &secs
		out.Human = &human
	}
	return json.Marshal(out)
}

// HumanDuration renders d coarsely, e.g. "3 hours" or "2 days".
func HumanDuration(d time.Duration) string {
	return strings.TrimSpace(humanize.RelTime(time.Time{}, time.Time{}.Add(d), "", ""))
}

// EventType names a kind of timeline event.
type EventType string

const (
	EventCreated      EventType = "created"
	EventStatusChange EventType = "status_change"
	EventComment      EventType = "comment"
	EventLabelUpdate  EventType = "label_update"
)

// TimelineEvent is one entry in an issue timeline reconstructed from current
// state. Only the fields relevant to the event type are populated.
type TimelineEvent struct {
	Type      EventType
	Timestamp time.Time
	Status    Status
	CommentID int
	Author    *int64
	Body      string
	Labels    []string
}

// MarshalJSON implements custom JSON serialization for TimelineEvent.
func (e TimelineEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      EventType `json:"type"`
		Timestamp string    `json:"timestamp"`
		Status    string    `json:"status,omitempty"`
		CommentID int       `json:"comment_id,omitempty"`
		Author    *int64    `json:"author,omitempty"`
		Body      string    `json:"body,omitempty"`
		Labels    []string  `json:"labels,omitempty"`
	}{
		Type:      e.Type,
		Timestamp: FormatTime(e.Timestamp),
		Status:    string(e.Status),
		CommentID: e.CommentID,
		Author:    e.Author,
		Body:      e.Body,
		Labels:    e.Labels,
	})
}
