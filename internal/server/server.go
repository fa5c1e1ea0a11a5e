// Package server exposes the coaching pipeline over HTTP. Turns, resets,
// execution status, and session reads map onto the orchestrator; health and
// metrics endpoints serve operations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/contextkeys"
	"github.com/Akhil0736/luna-instagram-ai/internal/orchestrator"
	"github.com/Akhil0736/luna-instagram-ai/internal/session"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
	"github.com/Akhil0736/luna-instagram-ai/pkg/version"
)

// Config carries the HTTP listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the HTTP front of the coaching stack.
type Server struct {
	orch       *orchestrator.Orchestrator
	sessions   *session.Manager
	store      store.Store
	backend    automation.Backend
	logger     *slog.Logger
	startTime  time.Time
	httpServer *http.Server
}

// TurnRequest is the body of POST /api/v1/turn.
type TurnRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ResetRequest is the body of POST /api/v1/reset.
type ResetRequest struct {
	UserID string `json:"user_id"`
}

// ServiceHealth reports one dependency's health.
type ServiceHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Timestamp string                   `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// New creates the HTTP server. Zero config values fall back to defaults; the
// write timeout defaults high enough to cover a full coaching turn.
func New(cfg Config, orch *orchestrator.Orchestrator, sessions *session.Manager, st store.Store, backend automation.Backend, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Minute
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orch:      orch,
		sessions:  sessions,
		store:     st,
		backend:   backend,
		logger:    logger,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/v1/turn", s.turnHandler)
	mux.HandleFunc("/api/v1/reset", s.resetHandler)
	mux.HandleFunc("/api/v1/executions/", s.executionHandler)
	mux.HandleFunc("/api/v1/sessions/", s.sessionHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// turnHandler runs one coaching turn. A turn that fails mid-pipeline still
// answers 200: the session has moved to its error stage and the response
// explains the retry path.
func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}

	turnID := types.NewID().String()
	ctx := contextkeys.WithTurnID(r.Context(), turnID)
	ctx = contextkeys.WithUserID(ctx, req.UserID)

	result, err := s.orch.Advance(ctx, req.UserID, req.Message)
	if err != nil && result == nil {
		s.writeTurnError(w, err)
		return
	}
	if err != nil {
		s.logger.Warn("turn ended in error stage", "turn_id", turnID, "user_id", req.UserID, "error", err)
	}

	s.writeJSON(w, http.StatusOK, result)
}

// resetHandler starts the user's coaching session over.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	result, err := s.orch.Reset(r.Context(), req.UserID)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// executionHandler reports dispatch progress for one execution.
func (s *Server) executionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	executionID := strings.TrimPrefix(r.URL.Path, "/api/v1/executions/")
	if executionID == "" || strings.Contains(executionID, "/") {
		s.writeError(w, http.StatusBadRequest, "execution id is required", "")
		return
	}

	status, err := s.orch.Status(r.Context(), executionID)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

// sessionHandler returns the stored conversation session for a user.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	if userID == "" || strings.Contains(userID, "/") {
		s.writeError(w, http.StatusBadRequest, "user id is required", "")
		return
	}

	sess, err := s.sessions.Get(r.Context(), userID)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sess)
}

// healthHandler probes the store and the automation backend.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	services := map[string]ServiceHealth{}

	storeHealth := ServiceHealth{Healthy: true, Message: "store reachable"}
	if _, err := s.store.Get(r.Context(), "health:probe"); err != nil && !errors.Is(err, store.ErrNotFound) {
		storeHealth = ServiceHealth{Healthy: false, Message: err.Error()}
	}
	services["store"] = storeHealth

	backendHealth := ServiceHealth{Healthy: true, Message: "backend reachable"}
	if err := s.backend.Health(r.Context()); err != nil {
		backendHealth = ServiceHealth{Healthy: false, Message: err.Error()}
	}
	services["automation"] = backendHealth

	status := "healthy"
	code := http.StatusOK
	for _, svc := range services {
		if !svc.Healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, code, HealthResponse{
		Status:    status,
		Version:   version.Version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	})
}

// writeTurnError maps pipeline error codes onto HTTP status codes.
func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	code := types.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case types.SESSION_NOT_FOUND, types.KEY_NOT_FOUND:
		status = http.StatusNotFound
	case types.SESSION_LOCKED, types.INVALID_TRANSITION:
		status = http.StatusConflict
	case types.DISPATCH_LIMIT_EXCEEDED:
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError && strings.Contains(err.Error(), "invalid user id") {
		status = http.StatusBadRequest
	}
	s.writeError(w, status, err.Error(), string(code))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, code string) {
	s.writeJSON(w, status, errorResponse{Error: message, Code: code})
}
