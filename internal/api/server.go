// Package api provides the read-only HTTP API for watching a fleet run.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/fleet-adapt/internal/engine"
	"github.com/talgya/fleet-adapt/internal/fleet"
	"github.com/talgya/fleet-adapt/internal/persistence"
)

// Server serves the fleet state over HTTP.
type Server struct {
	Sim   *engine.Simulation
	DB    *persistence.DB // optional; history endpoints answer 503 without it
	RunID string
	Addr  string

	// HistoryLimit caps database-backed requests per client per hour.
	HistoryLimit int
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = 120
	}
	historyLimiter := NewRateLimiter(limit, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/fishers", s.handleFishers)
	mux.HandleFunc("GET /api/v1/fisher/{id}", s.handleFisher)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/history", RateLimitMiddleware(historyLimiter, s.handleHistory))
	mux.HandleFunc("GET /api/v1/runs", RateLimitMiddleware(historyLimiter, s.handleRuns))
	return corsMiddleware(mux)
}

// Start serves the API until ctx is done.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", s.Addr, "history", s.DB != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			slog.Error("HTTP shutdown", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.Sim.Status()
	writeJSON(w, map[string]any{
		"name":      "fleet-adapt",
		"run_id":    s.RunID,
		"tick":      status.Tick,
		"sim_time":  status.SimTime,
		"algorithm": status.Algorithm,
		"map":       map[string]int{"width": status.MapWidth, "height": status.MapHeight},
		"stats":     status.Stats,
	})
}

func (s *Server) handleFishers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.FisherViews())
}

func (s *Server) handleFisher(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid fisher id", http.StatusBadRequest)
		return
	}
	view, ok := s.Sim.FisherView(fleet.FisherID(id), queryLimit(r, 10, fleet.MaxTrips))
	if !ok {
		http.Error(w, "fisher not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.RecentEvents(queryLimit(r, 50, 500)))
}

// handleHistory serves stored decisions: one fisher's trail with ?fisher=,
// otherwise the newest decisions of the run.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history disabled (no database)", http.StatusServiceUnavailable)
		return
	}
	run := r.URL.Query().Get("run")
	if run == "" {
		run = s.RunID
	}
	limit := queryLimit(r, 100, 1000)

	var (
		decisions []persistence.Decision
		err       error
	)
	if f := r.URL.Query().Get("fisher"); f != "" {
		id, perr := strconv.ParseUint(f, 10, 64)
		if perr != nil {
			http.Error(w, "invalid fisher id", http.StatusBadRequest)
			return
		}
		decisions, err = s.DB.FisherHistory(run, id, limit)
	} else {
		decisions, err = s.DB.RecentDecisions(run, limit)
	}
	if err != nil {
		slog.Error("history query", "run", run, "error", err)
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if decisions == nil {
		decisions = []persistence.Decision{}
	}
	writeJSON(w, decisions)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history disabled (no database)", http.StatusServiceUnavailable)
		return
	}
	runs, err := s.DB.Runs(queryLimit(r, 20, 200))
	if err != nil {
		slog.Error("runs query", "error", err)
		http.Error(w, "runs query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// queryLimit reads ?limit=, falling back to def when missing or out of (0, ceiling].
func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}
