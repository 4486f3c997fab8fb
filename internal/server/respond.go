package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type detailBody struct {
	Detail string `json:"detail"`
}

type conflictBody struct {
	Detail         string `json:"detail"`
	CurrentVersion int    `json:"current_version"`
}

func detail(msg string) detailBody { return detailBody{Detail: msg} }

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error onto the HTTP error taxonomy. Validation failures
// carry their field map as the body. Store failures are logged and hidden
// behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())

	var verr *model.ValidationError
	var conflict *db.ConflictError
	switch {
	case errors.As(err, &verr):
		log.Debug().Interface("fields", verr.Fields).Msg("validation failed")
		JSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, db.ErrNotFound):
		log.Debug().Err(err).Msg("not found")
		JSON(w, http.StatusNotFound, detail("Not found."))
	case errors.As(err, &conflict):
		log.Debug().Int("issue_id", conflict.IssueID).
			Int("expected", conflict.Expected).
			Int("current", conflict.Current).
			Msg("version conflict")
		JSON(w, http.StatusConflict, conflictBody{
			Detail:         fmt.Sprintf("Version conflict: issue %d is at version %d.", conflict.IssueID, conflict.Current),
			CurrentVersion: conflict.Current,
		})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("store failure")
		JSON(w, http.StatusInternalServerError, detail("internal error"))
	}
}

// readBody reads a size-limited request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, model.FieldError("non_field_errors", "Request body too large.")
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return data, nil
}
