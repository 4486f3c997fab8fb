package output

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// ErrorCode represents a machine-readable error classification.
type ErrorCode string

// Error code constants.
const (
	ErrGeneral    ErrorCode = "GENERAL_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrConflict   ErrorCode = "CONFLICT"
)

// Exit code constants.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitNotFound   = 2
	ExitValidation = 3
	ExitConflict   = 4
)

// ClassifyError maps store and validation errors to an ErrorCode. Anything
// it does not recognize is ErrGeneral.
func ClassifyError(err error) ErrorCode {
	var verr *model.ValidationError
	var cerr *db.ConflictError
	switch {
	case errors.As(err, &verr):
		return ErrValidation
	case errors.As(err, &cerr):
		return ErrConflict
	case errors.Is(err, db.ErrNotFound):
		return ErrNotFound
	default:
		return ErrGeneral
	}
}

// ExitCodeForError maps an ErrorCode to its corresponding exit code.
func ExitCodeForError(code ErrorCode) int {
	switch code {
	case ErrNotFound:
		return ExitNotFound
	case ErrValidation:
		return ExitValidation
	case ErrConflict:
		return ExitConflict
	default:
		return ExitGeneral
	}
}

// successEnvelope is the JSON structure for successful responses.
type successEnvelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// errorEnvelope is the JSON structure for error responses.
// Fields carries per-field messages for validation errors and
// CurrentVersion the stored version for conflicts.
type errorEnvelope struct {
	OK             bool                `json:"ok"`
	Error          string              `json:"error"`
	Code           ErrorCode           `json:"code"`
	Fields         map[string][]string `json:"fields,omitempty"`
	CurrentVersion int                 `json:"current_version,omitempty"`
}

// writeJSONSuccess writes a success envelope to w.
func writeJSONSuccess(w io.Writer, data any, message string) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(successEnvelope{
		OK:      true,
		Data:    data,
		Message: message,
	})
}

// writeJSONError writes an error envelope to w.
func writeJSONError(w io.Writer, err error, code ErrorCode) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	env := errorEnvelope{
		OK:    false,
		Error: err.Error(),
		Code:  code,
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		env.Fields = verr.Fields
	}
	var cerr *db.ConflictError
	if errors.As(err, &cerr) {
		env.CurrentVersion = cerr.Current
	}

	enc.Encode(env)
}
