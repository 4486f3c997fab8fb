// Package server exposes the issue store over HTTP.
package server

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/ALT-F4-LLC/docketd/internal/config"
)

// New builds the HTTP handler for the issue API.
func New(log zerolog.Logger, conn *sql.DB, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(RequestID(log))
	r.Use(RequestLogger())
	r.Use(Recoverer())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigin, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusNotFound, detail("Not found."))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusMethodNotAllowed, detail("Method \""+r.Method+"\" not allowed."))
	})

	// Health
	r.Get("/healthz", Health(conn))

	ih := NewIssueHTTP(conn, cfg.PageSize, cfg.MaxPageSize)

	r.Route("/issues", func(r chi.Router) {
		r.Get("/", ih.List())
		r.Post("/", ih.Create())
		r.Put("/bulk-status", ih.BulkStatus())
		r.Post("/import", Import(conn))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ih.Get())
			r.Patch("/", ih.Update())
			r.Post("/comments", ih.AddComment())
			r.Put("/labels", ih.ReplaceLabels())
			r.Get("/timeline", ih.Timeline())
		})
	})

	r.Get("/labels", ih.Labels())

	r.Route("/reports", func(r chi.Router) {
		r.Get("/top-assignees", TopAssignees(conn))
		r.Get("/latency", Latency(conn))
	})

	return r
}
