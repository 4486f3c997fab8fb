package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status represents the workflow state of an issue. Transitions between
// statuses are unconstrained; the enum only defines the legal values.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var validStatuses = []Status{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

// Statuses returns the recognized status values in display order.
func Statuses() []Status {
	out := make([]Status, len(validStatuses))
	copy(out, validStatuses)
	return out
}

// ValidateStatus returns an error if s is not a recognized status.
func ValidateStatus(s Status) error {
	for _, v := range validStatuses {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("%q is not a valid choice.", string(s))
}

// IsTerminal reports whether the status counts as finished work for the
// resolution latency report.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// Icon returns a single-rune status marker for terminal rendering.
func (s Status) Icon() string {
	switch s {
	case StatusOpen:
		return "\u25cb" // ○
	case StatusInProgress:
		return "\u25d0" // ◐
	case StatusResolved:
		return "\u2714" // ✔
	case StatusClosed:
		return "\u2716" // ✖
	default:
		return "?"
	}
}

// Color returns a color name string suitable for terminal rendering.
func (s Status) Color() string {
	switch s {
	case StatusOpen:
		return "blue"
	case StatusInProgress:
		return "yellow"
	case StatusResolved:
		return "green"
	case StatusClosed:
		return "gray"
	default:
		return "white"
	}
}

// ParseID parses a positive integer issue ID.
func ParseID(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("empty issue ID")
	}

	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid issue ID %q: %w", input, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid issue ID %q: must be positive", input)
	}

	return id, nil
}

// ParseRef parses an optional user reference. A blank string means no
// reference; anything else must be an integer.
func ParseRef(input string) (*int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", input, err)
	}
	return &n, nil
}

// Issue represents a tracked issue. Version starts at 1 and increases by
// exactly one on every successful mutation of the row.
type Issue struct {
	ID          int
	Title       string
	Description string
	Status      Status
	Assignee    *int64
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// issueJSON is the JSON wire format for Issue.
type issueJSON struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Assignee    *int64 `json:"assignee"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (i Issue) toJSON() issueJSON {
	return issueJSON{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Status:      string(i.Status),
		Assignee:    i.Assignee,
		Version:     i.Version,
		CreatedAt:   FormatTime(i.CreatedAt),
		UpdatedAt:   FormatTime(i.UpdatedAt),
	}
}

// MarshalJSON implements custom JSON serialization for Issue.
func (i Issue) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.toJSON())
}

// IssueDetail is an issue together with its comments and labels.
type IssueDetail struct {
	Issue
	Comments []*Comment
	Labels   []*Label
}

// MarshalJSON implements custom JSON serialization for IssueDetail.
func (d IssueDetail) MarshalJSON() ([]byte, error) {
	comments := d.Comments
	if comments == nil {
		comments = []*Comment{}
	}
	labels := d.Labels
	if labels == nil {
		labels = []*Label{}
	}
	return json.Marshal(struct {
		issueJSON
		Comments []*Comment `json:"comments"`
		Labels   []*Label   `json:"labels"`
	}{
		issueJSON: d.Issue.toJSON(),
		Comments:  comments,
		Labels:    labels,
	})
}

// FormatTime renders a timestamp the way it is stored and served.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses a stored timestamp. RFC3339 values without fractional
// seconds are accepted as well.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
