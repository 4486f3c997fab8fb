package server

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ALT-F4-LLC/docketd/internal/importer"
	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// maxUploadBytes caps CSV uploads.
const maxUploadBytes = 32 << 20

// POST /issues/import (multipart/form-data, field "file")
func Import(conn *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, r, model.FieldError("file", "The submitted file is too large."))
				return
			}
			writeError(w, r, model.FieldError("file", "No file was submitted."))
			return
		}
		defer file.Close()

		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			writeError(w, r, model.FieldError("file", "File must be a CSV (.csv)."))
			return
		}

		res, err := importer.Import(r.Context(), conn, file)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, res)
	}
}
