package api

import "net/http"

func (s *Server) handleCompileStats(w http.ResponseWriter, r *http.Request) {
	c := s.orchestrator.Compiler()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       c.Stats().Snapshot(),
		"cache":       c.Cache().Stats(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
