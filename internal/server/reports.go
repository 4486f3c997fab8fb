package server

import (
	"database/sql"
	"net/http"

	"github.com/ALT-F4-LLC/docketd/internal/db"
)

// GET /reports/top-assignees?limit=
func TopAssignees(conn *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r.URL.Query(), "limit", 0)
		if limit < 0 {
			limit = 0
		}

		counts, err := db.TopAssignees(r.Context(), conn, limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, counts)
	}
}

// GET /reports/latency
func Latency(conn *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := db.ResolutionLatency(r.Context(), conn)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, report)
	}
}

// GET /healthz
func Health(conn *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context(), conn); err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
