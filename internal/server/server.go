// Package server exposes the detector over HTTP: a JSON snapshot endpoint,
// session lifecycle controls, a WebSocket stream of live snapshots, health
// probes and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fretsense/fretsense/internal/health"
	"github.com/fretsense/fretsense/internal/observe"
	"github.com/fretsense/fretsense/internal/session"
)

// shutdownTimeout bounds graceful shutdown once the run context is cancelled.
const shutdownTimeout = 5 * time.Second

// Config holds the Server's tunables.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// StreamInterval is the cadence of WebSocket snapshot pushes. Defaults
	// to [session.DefaultInterval] so the stream tracks the analysis loop.
	StreamInterval time.Duration
}

// Server routes HTTP traffic to the session controller. Construct with
// [New]; [Server.Handler] is exposed separately so tests can drive the
// routes through httptest without a listener.
type Server struct {
	cfg     Config
	ctrl    *session.Controller
	health  *health.Handler
	metrics *observe.Metrics

	// baseCtx parents the listening sessions started over HTTP, so they
	// outlive the requests that started them but not the server itself.
	baseCtx context.Context
}

// New creates a Server around the given controller. health may be nil, in
// which case a probe-only handler with no readiness checks is used.
func New(cfg Config, ctrl *session.Controller, h *health.Handler, m *observe.Metrics) *Server {
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = session.DefaultInterval
	}
	if h == nil {
		h = health.New()
	}
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		health:  h,
		metrics: m,
		baseCtx: context.Background(),
	}
}

// Handler returns the full route table wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/v1/session/start", s.handleStart)
	mux.HandleFunc("POST /api/v1/session/stop", s.handleStop)
	mux.HandleFunc("POST /api/v1/session/reset", s.handleReset)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
// Sessions started through the API are parented on ctx.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// statusResponse is the JSON body for session lifecycle endpoints.
type statusResponse struct {
	Running bool `json:"running"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Start(s.baseCtx); err != nil {
		if errors.Is(err, session.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	observe.Logger(r.Context()).Info("session started via API")
	writeJSON(w, http.StatusOK, statusResponse{Running: true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Stop(); err != nil {
		if errors.Is(err, session.ErrNotRunning) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	observe.Logger(r.Context()).Info("session stopped via API")
	writeJSON(w, http.StatusOK, statusResponse{Running: false})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	observe.Logger(r.Context()).Info("detection state reset via API")
	writeJSON(w, http.StatusOK, statusResponse{Running: s.ctrl.Running()})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

// writeError encodes err as a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
