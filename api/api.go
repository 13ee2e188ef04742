// Package api exposes the read-only command surface over HTTP: the current
// top 3, recent cycle outcomes, and subscriber registry administration for
// the external command front end.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/arenawatch/monitor"
	"github.com/hazyhaar/arenawatch/rank"
	"github.com/hazyhaar/arenawatch/state"
	"github.com/hazyhaar/arenawatch/subs"
)

// Server wires the monitor's query surface to HTTP handlers. It never runs
// cycles and never mutates the persisted snapshot.
type Server struct {
	cycle  *monitor.Cycle
	reg    *subs.Registry
	store  *state.Store
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server.
func NewServer(cycle *monitor.Cycle, reg *subs.Registry, store *state.Store, opts ...Option) *Server {
	s := &Server{cycle: cycle, reg: reg, store: store, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the chi router for the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/v1/top3", s.handleTop3)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/subscribers", s.handleListSubscribers)
	r.Post("/v1/subscribers/{id}", s.handleAddSubscriber)
	r.Delete("/v1/subscribers/{id}", s.handleRemoveSubscriber)
	return r
}

type top3Response struct {
	ObservedAt time.Time     `json:"observed_at"`
	Top3       rank.Snapshot `json:"top3"`
}

func (s *Server) handleTop3(w http.ResponseWriter, r *http.Request) {
	snap, observedAt, err := s.cycle.CurrentTop3(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snap == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no observation yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, top3Response{ObservedAt: observedAt, Top3: snap})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.RecentCycles(r.Context(), 20)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []state.CycleRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"cycles": recs})
}

func (s *Server) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.reg.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"subscribers": ids})
}

func (s *Server) handleAddSubscriber(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	added, err := s.reg.Add(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, map[string]any{"subscriber": id, "added": added})
}

func (s *Server) handleRemoveSubscriber(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.reg.Remove(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !removed {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not subscribed"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"subscriber": id, "removed": true})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("api: write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("api: request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
