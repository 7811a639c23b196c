package api

import (
	"net/http"
	"time"

	"github.com/baxromumarov/job-extractor/internal/observability"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type statsResponse struct {
	observability.StatsSnapshot
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statsResponse{
		StatsSnapshot: observability.Snapshot(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}
