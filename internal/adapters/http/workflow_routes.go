package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// createWorkflow handles POST /api/workflows.
func (s *Server) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Graph       json.RawMessage `json:"graph"`
		Public      bool            `json:"public"`
		Template    bool            `json:"template"`
		Tags        []string        `json:"tags"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" || len(body.Graph) == 0 {
		respondError(w, http.StatusBadRequest, "name and graph are required")
		return
	}

	now := time.Now().UTC()
	wf := &domain.Workflow{
		ID:          uuid.NewString(),
		Name:        body.Name,
		Description: body.Description,
		Graph:       body.Graph,
		OwnerID:     identityFrom(r).UserID,
		Public:      body.Public,
		Template:    body.Template,
		Tags:        body.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.deps.Workflows.Create(r.Context(), wf); err != nil {
		s.logger.Error("create workflow", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to create workflow")
		return
	}
	respondJSON(w, http.StatusOK, wf)
}

// listWorkflows handles GET /api/workflows?offset=&limit=.
func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	workflows, err := s.deps.Workflows.List(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list workflows", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list workflows")
		return
	}
	respondJSON(w, http.StatusOK, workflows)
}

// getWorkflow handles GET /api/workflows/{id}.
func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.deps.Workflows.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "workflow not found")
		return
	}
	respondJSON(w, http.StatusOK, wf)
}

// updateWorkflow handles PUT /api/workflows/{id}. Any authenticated
// collaborator may save; the graph itself is last-writer-wins, matching
// the live broadcast semantics.
func (s *Server) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.deps.Workflows.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "workflow not found")
		return
	}

	var body struct {
		Name        *string         `json:"name"`
		Description *string         `json:"description"`
		Graph       json.RawMessage `json:"graph"`
		Public      *bool           `json:"public"`
		Tags        []string        `json:"tags"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Name != nil {
		wf.Name = *body.Name
	}
	if body.Description != nil {
		wf.Description = *body.Description
	}
	if len(body.Graph) > 0 {
		wf.Graph = body.Graph
	}
	if body.Public != nil {
		wf.Public = *body.Public
	}
	if body.Tags != nil {
		wf.Tags = body.Tags
	}
	wf.UpdatedAt = time.Now().UTC()

	if err := s.deps.Workflows.Update(r.Context(), wf); err != nil {
		s.logger.Error("update workflow", "workflow", wf.ID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to update workflow")
		return
	}
	respondJSON(w, http.StatusOK, wf)
}

// deleteWorkflow handles DELETE /api/workflows/{id}. Restricted to the
// owner or an admin.
func (s *Server) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	wf, err := s.deps.Workflows.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrWorkflowNotFound) {
			respondError(w, http.StatusNotFound, "workflow not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load workflow")
		return
	}
	if wf.OwnerID != identity.UserID && identity.Role != domain.RoleAdmin {
		respondError(w, http.StatusForbidden, "only the owner or an admin can delete a workflow")
		return
	}

	if err := s.deps.Workflows.Delete(r.Context(), wf.ID); err != nil {
		s.logger.Error("delete workflow", "workflow", wf.ID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to delete workflow")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
