// Package server provides the HTTP dashboard API.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/trichoguard/internal/app"
	"github.com/ayusman/trichoguard/internal/audio"
	"github.com/ayusman/trichoguard/internal/config"
	"github.com/ayusman/trichoguard/internal/store"
)

// Pipeline is the slice of the application the server talks to.
type Pipeline interface {
	Status() app.Status
	Frame() []byte
	SetEnabled(enabled bool)
	IsEnabled() bool
	ApplyDetection(d config.Detection)
	Detection() config.Detection
	Subscribe() (<-chan app.Status, func())
	Phrases() *audio.PhrasePool
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
	Logger    *slog.Logger
}

// Server is the HTTP server for the dashboard.
type Server struct {
	config Config
	logger *slog.Logger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.HandleFunc("/api/detection", s.handleDetection)
		s.mux.HandleFunc("/api/phrases", s.handlePhrases)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Pipeline))
		s.mux.Handle("/api/state", NewStateHandler(s.config.Pipeline, s.logger))
	}

	if s.config.Store != nil {
		s.mux.HandleFunc("/api/stats", s.handleStats)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, s.config.Pipeline.Status())
}

// handleDetection serves the detection settings: GET returns the
// toggle and the active thresholds, POST updates whichever of the two
// the body carries. Threshold updates take effect on the next frame
// without a restart.
func (s *Server) handleDetection(w http.ResponseWriter, r *http.Request) {
	pipeline := s.config.Pipeline

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]any{
			"enabled":   pipeline.IsEnabled(),
			"detection": pipeline.Detection(),
		})

	case http.MethodPost:
		var body struct {
			Enabled   *bool             `json:"enabled"`
			Detection *config.Detection `json:"detection"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if body.Enabled != nil {
			pipeline.SetEnabled(*body.Enabled)
		}
		if body.Detection != nil {
			pipeline.ApplyDetection(*body.Detection)
		}
		s.writeJSON(w, map[string]any{
			"enabled":   pipeline.IsEnabled(),
			"detection": pipeline.Detection(),
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePhrases serves and replaces the response phrase list.
func (s *Server) handlePhrases(w http.ResponseWriter, r *http.Request) {
	pool := s.config.Pipeline.Phrases()
	if pool == nil {
		http.Error(w, "Phrases not available", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, pool.List())

	case http.MethodPut:
		var phrases []string
		if err := json.NewDecoder(r.Body).Decode(&phrases); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := pool.Replace(phrases); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, pool.List())

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStats handles GET requests to /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	repo := s.config.Store.Triggers()
	now := time.Now()

	today, err := repo.TodayCount(now)
	if err != nil {
		s.statsError(w, err)
		return
	}

	daily, err := repo.DailySeries(now, 7)
	if err != nil {
		s.statsError(w, err)
		return
	}

	hourly, err := repo.HourlyDistribution(now.Location())
	if err != nil {
		s.statsError(w, err)
		return
	}

	recent, err := repo.Recent(20)
	if err != nil {
		s.statsError(w, err)
		return
	}

	type recentTrigger struct {
		OccurredAt time.Time `json:"occurred_at"`
		Phrase     string    `json:"phrase"`
		HeldMs     int64     `json:"held_ms"`
	}
	recentOut := make([]recentTrigger, len(recent))
	for i, t := range recent {
		recentOut[i] = recentTrigger{
			OccurredAt: t.OccurredAt,
			Phrase:     t.Phrase,
			HeldMs:     t.Held.Milliseconds(),
		}
	}

	s.writeJSON(w, map[string]any{
		"today":  today,
		"daily":  daily,
		"hourly": hourly,
		"recent": recentOut,
	})
}

func (s *Server) statsError(w http.ResponseWriter, err error) {
	s.logger.Error("stats query failed", slog.Any("error", err))
	http.Error(w, "Failed to load stats", http.StatusInternalServerError)
}
