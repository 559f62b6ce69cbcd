// Package server is the thin HTTP boundary over the analysis engine. It
// validates the project path, invokes the engine, and maps fatal errors
// to status codes; all analysis semantics live in the engine.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/engine"
)

// AnalyzeRequest is the invocation contract.
type AnalyzeRequest struct {
	Path             string   `json:"path"`
	ActiveRules      []string `json:"active_rules"`
	IncludeFramework *bool    `json:"include_framework"` // default true
}

// AnalyzeResponse is the success payload.
type AnalyzeResponse struct {
	Success bool                `json:"success"`
	Stats   engine.Stats        `json:"stats"`
	Areas   []engine.AreaReport `json:"areas"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type Server struct {
	engine *engine.Engine
	log    *slog.Logger
}

func New(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: eng, log: logger}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "POST required"})
		return
	}
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Project path not found"})
		return
	}

	include := true
	if req.IncludeFramework != nil {
		include = *req.IncludeFramework
	}
	s.log.Info("analyzing project", "path", req.Path, "active_rules", req.ActiveRules)

	report, err := s.engine.Analyze(r.Context(), req.Path, engine.Options{
		ActiveAreas:      req.ActiveRules,
		IncludeFramework: include,
	})
	if err != nil {
		s.log.Error("analysis failed", "path", req.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success: true,
		Stats:   report.Stats,
		Areas:   report.Areas,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
