package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/pulse.report/internal/db"
	"github.com/banshee-data/pulse.report/internal/hrv/pipeline"
	"github.com/banshee-data/pulse.report/internal/hrv/report"
)

// Server exposes the latest batch result (and, when a store is
// configured, prior runs) over HTTP.
type Server struct {
	result pipeline.Result
	store  *db.DB
}

func NewServer(result pipeline.Result, store *db.DB) *Server {
	return &Server{result: result, store: store}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/api/records", s.listRecords)
	mux.HandleFunc("/api/group", s.groupReport)
	mux.HandleFunc("/api/classifications", s.listClassifications)
	mux.HandleFunc("/api/failures", s.listFailures)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/dashboard", s.dashboard)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("PPG-HRV results server. See /dashboard, /api/records, /api/group, /api/classifications, /api/failures, /api/runs.\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.result.Records)
}

func (s *Server) groupReport(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.result.Group)
}

func (s *Server) listClassifications(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.result.Classifications)
}

func (s *Server) listFailures(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.result.Failures)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "results store not configured", http.StatusNotFound)
		return
	}
	runs, err := s.store.Runs()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, runs)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderDashboard(w, s.result.Group, s.result.Classifications); err != nil {
		http.Error(w, fmt.Sprintf("failed to render dashboard: %v", err), http.StatusInternalServerError)
	}
}
