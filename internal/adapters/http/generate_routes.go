package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// queueGeneration handles POST /api/generate. The request carries either
// an inline graph or a saved workflow id to load the graph from.
func (s *Server) queueGeneration(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generator == nil {
		respondError(w, http.StatusServiceUnavailable, "generation backend not configured")
		return
	}

	var body struct {
		WorkflowID string          `json:"workflow_id"`
		Graph      json.RawMessage `json:"graph"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	graph := body.Graph
	if len(graph) == 0 {
		if body.WorkflowID == "" {
			respondError(w, http.StatusBadRequest, "workflow_id or graph is required")
			return
		}
		wf, err := s.deps.Workflows.Get(r.Context(), body.WorkflowID)
		if err != nil {
			respondError(w, http.StatusNotFound, "workflow not found")
			return
		}
		graph = wf.Graph
	}

	jobID, err := s.deps.Generator.Queue(r.Context(), graph)
	if err != nil {
		s.logger.Error("queue generation", "err", err)
		respondError(w, http.StatusBadGateway, "failed to queue generation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
}

// generationStatus handles GET /api/generate/{id}.
func (s *Server) generationStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generator == nil {
		respondError(w, http.StatusServiceUnavailable, "generation backend not configured")
		return
	}

	status, err := s.deps.Generator.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Error("generation status", "job", chi.URLParam(r, "id"), "err", err)
		respondError(w, http.StatusBadGateway, "failed to fetch generation status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}
