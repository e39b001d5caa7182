package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// createOutput handles POST /api/outputs, recording a generated asset
// against a workflow.
func (s *Server) createOutput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WorkflowID  string          `json:"workflow_id"`
		Filename    string          `json:"filename"`
		FileType    string          `json:"file_type"`
		FileSize    int64           `json:"file_size"`
		Description string          `json:"description"`
		Metadata    json.RawMessage `json:"metadata"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.WorkflowID == "" || body.Filename == "" {
		respondError(w, http.StatusBadRequest, "workflow_id and filename are required")
		return
	}

	exists, err := s.deps.Workflows.Exists(r.Context(), body.WorkflowID)
	if err != nil {
		s.logger.Error("check workflow", "workflow", body.WorkflowID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to verify workflow")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "workflow not found")
		return
	}

	out := &domain.Output{
		ID:          uuid.NewString(),
		WorkflowID:  body.WorkflowID,
		UserID:      identityFrom(r).UserID,
		Filename:    body.Filename,
		FileType:    body.FileType,
		FileSize:    body.FileSize,
		Description: body.Description,
		Metadata:    body.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.deps.Outputs.Create(r.Context(), out); err != nil {
		s.logger.Error("create output", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to create output")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// listOutputs handles GET /api/outputs, optionally filtered with
// ?workflow_id=.
func (s *Server) listOutputs(w http.ResponseWriter, r *http.Request) {
	var (
		outputs []*domain.Output
		err     error
	)
	if workflowID := r.URL.Query().Get("workflow_id"); workflowID != "" {
		outputs, err = s.deps.Outputs.ListByWorkflow(r.Context(), workflowID)
	} else {
		outputs, err = s.deps.Outputs.List(r.Context())
	}
	if err != nil {
		s.logger.Error("list outputs", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list outputs")
		return
	}
	respondJSON(w, http.StatusOK, outputs)
}

// getOutput handles GET /api/outputs/{id}.
func (s *Server) getOutput(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Outputs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "output not found")
		return
	}
	respondJSON(w, http.StatusOK, out)
}
