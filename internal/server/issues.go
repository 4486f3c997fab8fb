package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// IssueHTTP wires the issue endpoints to the store.
type IssueHTTP struct {
	db          *sql.DB
	pageSize    int
	maxPageSize int
}

func NewIssueHTTP(conn *sql.DB, pageSize, maxPageSize int) *IssueHTTP {
	return &IssueHTTP{db: conn, pageSize: pageSize, maxPageSize: maxPageSize}
}

type issuePage struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []*model.Issue `json:"results"`
}

// issueID parses the {id} path segment. Anything but a positive integer is
// reported as not found, the same as an ID with no row behind it.
func issueID(r *http.Request) (int, error) {
	id, err := model.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, db.ErrNotFound
	}
	return id, nil
}

// GET /issues?status=&assignee=&limit=&offset=
func (h *IssueHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()

		var opts db.ListOptions
		verr := model.NewValidationError()
		if s := strings.TrimSpace(qv.Get("status")); s != "" {
			if err := model.ValidateStatus(model.Status(s)); err != nil {
				verr.Add("status", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s))
			}
			opts.Status = model.Status(s)
		}
		if a := qv.Get("assignee"); strings.TrimSpace(a) != "" {
			ref, err := model.ParseRef(a)
			if err != nil {
				verr.Add("assignee", "Enter a number.")
			}
			opts.Assignee = ref
		}
		if verr.HasErrors() {
			writeError(w, r, verr)
			return
		}

		opts.Limit = queryInt(qv, "limit", h.pageSize)
		if opts.Limit < 1 {
			opts.Limit = h.pageSize
		}
		if opts.Limit > h.maxPageSize {
			opts.Limit = h.maxPageSize
		}
		opts.Offset = queryInt(qv, "offset", 0)
		if opts.Offset < 0 {
			opts.Offset = 0
		}

		issues, total, err := db.ListIssues(r.Context(), h.db, opts)
		if err != nil {
			writeError(w, r, err)
			return
		}

		page := issuePage{Count: total, Results: issues}
		if opts.Offset+opts.Limit < total {
			page.Next = pageURL(r, opts.Limit, opts.Offset+opts.Limit)
		}
		if opts.Offset > 0 {
			page.Previous = pageURL(r, opts.Limit, opts.Offset-opts.Limit)
		}
		JSON(w, http.StatusOK, page)
	}
}

// POST /issues
func (h *IssueHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in, err := model.DecodeNewIssue(data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		issue, err := db.CreateIssue(r.Context(), h.db, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusCreated, issue)
	}
}

// GET /issues/{id}
func (h *IssueHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := issueID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		issue, err := db.GetIssueDetail(r.Context(), h.db, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, issue)
	}
}

// PATCH /issues/{id}
func (h *IssueHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := issueID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch, err := model.DecodeIssuePatch(data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		issue, err := db.UpdateIssue(r.Context(), h.db, id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, issue)
	}
}

// POST /issues/{id}/comments
func (h *IssueHTTP) AddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := issueID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in, err := model.DecodeNewComment(data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		comment, err := db.CreateComment(r.Context(), h.db, id, in.Author, in.Body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusCreated, comment)
	}
}

// PUT /issues/{id}/labels
func (h *IssueHTTP) ReplaceLabels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := issueID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		names, err := model.DecodeLabelNames(data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		labels, err := db.ReplaceIssueLabels(r.Context(), h.db, id, names)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, labels)
	}
}

// PUT /issues/bulk-status
func (h *IssueHTTP) BulkStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readBody(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		changes, err := model.DecodeStatusChanges(data)
		if err != nil {
			writeError(w, r, err)
			return
		}

		issues, err := db.BulkUpdateStatus(r.Context(), h.db, changes)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, issues)
	}
}

// GET /issues/{id}/timeline
func (h *IssueHTTP) Timeline() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := issueID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		events, err := db.Timeline(r.Context(), h.db, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, events)
	}
}

// GET /labels
func (h *IssueHTTP) Labels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels, err := db.ListAllLabels(r.Context(), h.db)
		if err != nil {
			writeError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, labels)
	}
}

// queryInt parses an integer query parameter, falling back to def when it is
// missing or malformed.
func queryInt(q url.Values, key string, def int) int {
	v := q.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// pageURL rebuilds the request URL with new limit/offset values. An offset
// of zero or less is dropped.
func pageURL(r *http.Request, limit, offset int) *string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}

	q := r.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()

	s := u.String()
	return &s
}
