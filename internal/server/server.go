// Package server exposes the latest batch outcome over HTTP in watch mode.
// It reads an in-memory snapshot only; nothing beyond the journal file is
// ever persisted.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stiventc/hostmon/internal/scheduler"
)

// SnapshotSource provides the latest batch snapshot.
type SnapshotSource interface {
	Latest() *scheduler.Snapshot
}

// Server holds the chi router and its dependencies.
type Server struct {
	source SnapshotSource
	router chi.Router
	logger *slog.Logger
}

// New creates a new Server and registers all routes. Pass nil logger to use
// the default logger.
func New(source SnapshotSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		source: source,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type metricStatus struct {
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Soft     float64 `json:"soft_limit"`
	Hard     float64 `json:"hard_limit"`
	Severity string  `json:"severity"`
}

type statusResponse struct {
	Worst   string         `json:"worst"`
	RanAt   time.Time      `json:"ran_at"`
	Metrics []metricStatus `json:"metrics"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no batch run completed yet")
		return
	}

	metrics := make([]metricStatus, 0, len(snap.Results))
	for _, res := range snap.Results {
		metrics = append(metrics, metricStatus{
			Metric:   res.Reading.Name,
			Value:    res.Reading.Value,
			Soft:     res.Reading.Soft,
			Hard:     res.Reading.Hard,
			Severity: res.Severity.String(),
		})
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Worst:   snap.Worst.String(),
		RanAt:   snap.RanAt,
		Metrics: metrics,
	})
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
