package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/tutormatch/tutormatch/internal/catalog"
	"github.com/tutormatch/tutormatch/internal/database"
)

// Greeting is the body served at the root path
const Greeting = "Hello"

// Handlers contains all HTTP handlers
type Handlers struct {
	db      *database.DB
	catalog *catalog.Catalog
	mode    database.RowMode
}

// New creates a new Handlers instance. mode decides whether rows are
// served as JSON objects (RowRecord) or arrays in column order (RowTuple).
func New(db *database.DB, cat *catalog.Catalog, mode database.RowMode) *Handlers {
	return &Handlers{
		db:      db,
		catalog: cat,
		mode:    mode,
	}
}

// APIFunc produces the native result for one request. The scope is owned by
// the caller and released after the function returns.
type APIFunc func(r *http.Request, scope *database.Scope) (any, error)

// API adapts an APIFunc into an http.HandlerFunc. It opens the request's
// connection scope, runs fn, releases the scope on every path and hands the
// result to Encode.
func (h *Handlers) API(fn APIFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := h.db.Scope(h.mode)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		defer scope.Release()

		result, err := fn(r, scope)
		if err != nil {
			h.serverError(w, r, err)
			return
		}

		body, err := Encode(result)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// Home serves the liveness greeting
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Greeting))
}

// serverError logs err and writes a bare 500
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request aborted")
	} else {
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request failed")
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
