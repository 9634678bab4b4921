// Package server exposes the monitor over a small HTTP API: fence CRUD,
// stats lookup, an SSE event stream and Prometheus metrics.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/placepulse/fencewatch/internal/model"
	"github.com/placepulse/fencewatch/internal/monitor"
	"github.com/placepulse/fencewatch/internal/region"
	"github.com/placepulse/fencewatch/internal/stats"
)

// Server wires the HTTP surface over the monitor and its collaborators.
type Server struct {
	mon     *monitor.Monitor
	tracker *stats.Tracker
	metrics http.Handler
	log     *zap.Logger
}

// New creates the HTTP server. metricsHandler may be nil to disable
// the /metrics route.
func New(mon *monitor.Monitor, tracker *stats.Tracker, metricsHandler http.Handler) *Server {
	return &Server{
		mon:     mon,
		tracker: tracker,
		metrics: metricsHandler,
		log:     zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/fences", s.handleListFences)
	r.Post("/fences", s.handleAddFence)
	r.Delete("/fences/{id}", s.handleRemoveFence)
	r.Get("/stats/{user}", s.handleStats)
	r.Get("/events", s.handleEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"monitoring": s.mon.IsRunning()})
}

func (s *Server) handleListFences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mon.Fences())
}

func (s *Server) handleAddFence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string  `json:"id"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Radius    float64 `json:"radius_meters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	center := model.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	err := s.mon.AddFence(r.Context(), req.ID, center, req.Radius)
	switch {
	case eris.Is(err, region.ErrDuplicateRegion):
		writeError(w, http.StatusConflict, "fence already exists")
	case eris.Is(err, region.ErrInvalidRadius):
		writeError(w, http.StatusBadRequest, "radius must be positive")
	case err != nil:
		s.log.Error("add fence failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
	}
}

func (s *Server) handleRemoveFence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.mon.RemoveFence(r.Context(), id); err != nil {
		s.log.Error("remove fence failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	avg, err := s.tracker.CurrentAverage(r.Context(), user)
	if err != nil {
		s.log.Error("stats lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":                  user,
		"average_duration_secs": avg,
	})
}

// handleEvents streams geofence events as server-sent events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch := s.mon.SubscribeEvents()
	defer s.mon.UnsubscribeEvents(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			payload, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("event not encoded", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
