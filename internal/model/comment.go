package model

import (
	"encoding/json"
	"time"
)

// Comment represents a comment on an issue. Comments are append-only and the
// owning issue never changes after creation.
type Comment struct {
	ID        int
	IssueID   int
	Author    *int64
	Body      string
	CreatedAt time.Time
}

// commentJSON is the JSON wire format for Comment.
type commentJSON struct {
	ID        int    `json:"id"`
	IssueID   int    `json:"issue"`
	Author    *int64 `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// MarshalJSON implements custom JSON serialization for Comment.
func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(commentJSON{
		ID:        c.ID,
		IssueID:   c.IssueID,
		Author:    c.Author,
		Body:      c.Body,
		CreatedAt: FormatTime(c.CreatedAt),
	})
}
