package http

import (
	"net/http"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// getSettings handles GET /api/settings.
func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	s.settingsMu.RLock()
	settings := s.settings
	s.settingsMu.RUnlock()

	respondJSON(w, http.StatusOK, settings)
}

// updateSettings handles PUT /api/settings. Admin only; the body
// replaces the settings wholesale, matching the GET shape.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r).Role != domain.RoleAdmin {
		respondError(w, http.StatusForbidden, "only admins can change settings")
		return
	}

	s.settingsMu.RLock()
	updated := s.settings
	s.settingsMu.RUnlock()

	if err := decodeJSON(r, &updated); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if updated.AutoSaveInterval < 0 || updated.MaxUploadSizeMB <= 0 {
		respondError(w, http.StatusBadRequest, "intervals and sizes must be positive")
		return
	}

	s.settingsMu.Lock()
	s.settings = updated
	s.settingsMu.Unlock()

	respondJSON(w, http.StatusOK, updated)
}
