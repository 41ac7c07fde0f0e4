package api

import (
	"net/http"
)

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.orchestrator.SessionCount(),
		"stats":    s.orchestrator.Stats(),
	})
}
