package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quarkfield/lightcone/internal/engine"
	"github.com/quarkfield/lightcone/internal/store"
)

// Server is the lightcone HTTP API: a thin read-only pass-through to the
// core, plus the internal append route used by the external append driver.
// The server validates request shape; the core independently re-validates
// causal bounds.
type Server struct {
	core    *engine.Core
	db      *store.DB
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given core and database.
func New(core *engine.Core, db *store.DB, version string) *Server {
	s := &Server{
		core:    core,
		db:      db,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Post("/query", s.handleQuery)
		r.Get("/entries/{key}", s.handleGetEntry)
		r.Post("/route", s.handleRoute)

		// Internal-only: invoked by the append driver, never by a query
		// caller.
		r.Post("/append", s.handleAppend)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the core error taxonomy onto HTTP statuses. Every core
// operation returns an explicit error value; nothing here is a crash.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrOutOfBounds),
		errors.Is(err, engine.ErrOutOfOrder),
		errors.Is(err, engine.ErrUnknownKind):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, engine.ErrNoRoute):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrCausalityViolation):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrTrapped):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrRetrievalUnavailable):
		status = http.StatusGone
	case errors.Is(err, engine.ErrCapacitySaturated):
		status = http.StatusInsufficientStorage
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
