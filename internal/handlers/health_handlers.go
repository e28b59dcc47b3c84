package handlers

import (
	"net/http"

	"debate-forum/internal/api"
	"debate-forum/internal/engine/actors"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		result, ok := s.ask(w, s.Engine.GetDebateActor(), &actors.GetCountsMsg{}, "debate_count")
		if !ok {
			return
		}
		requests, errors, uptime := s.Metrics.Snapshot()
		writeJSON(w, http.StatusOK, api.HealthResponse{
			Status:        "healthy",
			Debates:       result.(int),
			Requests:      requests,
			Errors:        errors,
			UptimeSeconds: int64(uptime.Seconds()),
			AIProvider:    s.AIProvider,
		})
	}
}
