package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OptionalRef is a nullable user reference that also remembers whether it was
// present in the request at all, so "absent" and "explicit null" differ.
type OptionalRef struct {
	Set   bool
	Value *int64
}

// IssuePatch is a partial change set for an issue. Nil fields are left
// untouched. Version is the caller's expected version and is never written.
type IssuePatch struct {
	Title       *string
	Description *string
	Status      *string
	Assignee    OptionalRef
	Version     *int
}

// Validate checks the patch before the store is touched. A missing version is
// a validation failure, not a conflict.
func (p IssuePatch) Validate() error {
	verr := NewValidationError()

	if p.Version == nil {
		verr.Add("version", MsgRequired)
	} else if *p.Version < 1 {
		verr.Add("version", "Ensure this value is greater than or equal to 1.")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		verr.Add("title", MsgBlank)
	}
	if p.Status != nil {
		if err := ValidateStatus(Status(*p.Status)); err != nil {
			verr.Add("status", err.Error())
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Apply returns a copy of issue with the patch fields written over it. The
// version and timestamps are left for the caller to manage.
func (p IssuePatch) Apply(issue Issue) Issue {
	if p.Title != nil {
		issue.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		issue.Description = *p.Description
	}
	if p.Status != nil {
		issue.Status = Status(*p.Status)
	}
	if p.Assignee.Set {
		issue.Assignee = p.Assignee.Value
	}
	return issue
}

// DecodeIssuePatch decodes a JSON object into an IssuePatch. Unknown keys are
// ignored; keys with the wrong JSON type are reported per field.
func DecodeIssuePatch(data []byte) (IssuePatch, error) {
	var p IssuePatch

	raw, err := decodeObject(data)
	if err != nil {
		return p, err
	}

	verr := NewValidationError()
	if v, ok := raw["title"]; ok {
		s, ok := decodeString(v)
		if !ok {
			verr.Add("title", "Not a valid string.")
		} else {
			p.Title = &s
		}
	}
	if v, ok := raw["description"]; ok {
		s, ok := decodeString(v)
		if !ok {
			verr.Add("description", "Not a valid string.")
		} else {
			p.Description = &s
		}
	}
	if v, ok := raw["status"]; ok {
		s, ok := decodeString(v)
		if !ok {
			verr.Add("status", "Not a valid string.")
		} else {
			p.Status = &s
		}
	}
	if v, ok := raw["assignee"]; ok {
		ref, ok := decodeRef(v)
		if !ok {
			verr.Add("assignee", MsgNotInteger)
		} else {
			p.Assignee = OptionalRef{Set: true, Value: ref}
		}
	}
	if v, ok := raw["version"]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err != nil || isNull(v) {
			verr.Add("version", MsgNotInteger)
		} else {
			p.Version = &n
		}
	}

	if verr.HasErrors() {
		return p, verr
	}
	return p, nil
}

// NewIssue is the input for creating an issue.
type NewIssue struct {
	Title       string
	Description string
	Status      Status
	Assignee    *int64
}

// Validate normalizes and checks the input. An empty status defaults to open.
func (n *NewIssue) Validate() error {
	verr := NewValidationError()

	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		verr.Add("title", MsgBlank)
	}
	if n.Status == "" {
		n.Status = StatusOpen
	}
	if err := ValidateStatus(n.Status); err != nil {
		verr.Add("status", err.Error())
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// DecodeNewIssue decodes a JSON object into a NewIssue.
func DecodeNewIssue(data []byte) (NewIssue, error) {
	var n NewIssue

	raw, err := decodeObject(data)
	if err != nil {
		return n, err
	}

	verr := NewValidationError()
	if v, ok := raw["title"]; ok {
		if s, ok := decodeString(v); ok {
			n.Title = s
		} else {
			verr.Add("title", "Not a valid string.")
		}
	} else {
		verr.Add("title", MsgRequired)
	}
	if v, ok := raw["description"]; ok {
		if s, ok := decodeString(v); ok {
			n.Description = s
		} else {
			verr.Add("description", "Not a valid string.")
		}
	}
	if v, ok := raw["status"]; ok {
		if s, ok := decodeString(v); ok {
			n.Status = Status(s)
		} else {
			verr.Add("status", "Not a valid string.")
		}
	}
	if v, ok := raw["assignee"]; ok {
		if ref, ok := decodeRef(v); ok {
			n.Assignee = ref
		} else {
			verr.Add("assignee", MsgNotInteger)
		}
	}

	if verr.HasErrors() {
		return n, verr
	}
	return n, nil
}

// StatusChange is one member of a bulk status update.
type StatusChange struct {
	ID     int    `json:"id"`
	Status Status `json:"status"`
}

// NewComment is the input for adding a comment to an issue.
type NewComment struct {
	Author *int64
	Body   string
}

// DecodeNewComment decodes a JSON object into a NewComment. The body must be
// present; blankness is checked by the store.
func DecodeNewComment(data []byte) (NewComment, error) {
	var c NewComment

	raw, err := decodeObject(data)
	if err != nil {
		return c, err
	}

	verr := NewValidationError()
	if v, ok := raw["body"]; ok {
		if s, ok := decodeString(v); ok {
			c.Body = s
		} else {
			verr.Add("body", "Not a valid string.")
		}
	} else {
		verr.Add("body", MsgRequired)
	}
	if v, ok := raw["author"]; ok {
		if ref, ok := decodeRef(v); ok {
			c.Author = ref
		} else {
			verr.Add("author", MsgNotInteger)
		}
	}

	if verr.HasErrors() {
		return c, verr
	}
	return c, nil
}

// DecodeLabelNames decodes {"labels": [...]} into the raw, untrimmed names.
func DecodeLabelNames(data []byte) ([]string, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	v, ok := raw["labels"]
	if !ok {
		return nil, FieldError("labels", MsgRequired)
	}
	var items []json.RawMessage
	if isNull(v) || json.Unmarshal(v, &items) != nil {
		return nil, FieldError("labels", "Expected a list of items.")
	}

	verr := NewValidationError()
	names := make([]string, len(items))
	for i, item := range items {
		s, ok := decodeString(item)
		if !ok {
			verr.Add(indexKey("labels", i), "Not a valid string.")
			continue
		}
		names[i] = s
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return names, nil
}

// DecodeStatusChanges decodes a JSON array of {"id", "status"} objects. A
// body that is not an array is rejected as a whole. Value checks are left to
// the bulk mutator.
func DecodeStatusChanges(data []byte) ([]StatusChange, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, FieldError("non_field_errors", "Expected a list of items.")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, FieldError("non_field_errors", "JSON parse error: "+err.Error())
	}

	verr := NewValidationError()
	changes := make([]StatusChange, len(items))
	for i, item := range items {
		obj, err := decodeObject(item)
		if err != nil {
			verr.Add(indexKey("items", i), "Invalid data. Expected a dictionary.")
			continue
		}
		if v, ok := obj["id"]; ok && !isNull(v) {
			if err := json.Unmarshal(v, &changes[i].ID); err != nil {
				verr.Add(indexKey("items", i)+".id", MsgNotInteger)
			}
		}
		if v, ok := obj["status"]; ok && !isNull(v) {
			s, ok := decodeString(v)
			if !ok {
				verr.Add(indexKey("items", i)+".status", "Not a valid string.")
			}
			changes[i].Status = Status(s)
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return changes, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, FieldError("non_field_errors", "Invalid data. Expected a dictionary.")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, FieldError("non_field_errors", "JSON parse error: "+err.Error())
	}
	return raw, nil
}

func decodeString(v json.RawMessage) (string, bool) {
	var s string
	if isNull(v) {
		return "", false
	}
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeRef accepts null, an integer, or a string holding an integer.
func decodeRef(v json.RawMessage) (*int64, bool) {
	if isNull(v) {
		return nil, true
	}
	var n int64
	if err := json.Unmarshal(v, &n); err == nil {
		return &n, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, false
	}
	ref, err := ParseRef(s)
	if err != nil {
		return nil, false
	}
	return ref, true
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
