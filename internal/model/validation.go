package model

import (
	"fmt"
	"sort"
	"strings"
)

// Messages shared by every entry point that validates the same field.
const (
	MsgRequired     = "This field is required."
	MsgBlank        = "This field may not be blank."
	MsgNotInteger   = "A valid integer is required."
	MsgTitleBlank   = "Title cannot be empty."
	MsgCommentBlank = "Comment body cannot be empty."
)

// ValidationError carries field-level validation failures. It is produced
// before any store mutation takes place.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError returns a ValidationError with a single message for field.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

// Add records msg against field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// HasErrors reports whether any field failed.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func indexKey(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
