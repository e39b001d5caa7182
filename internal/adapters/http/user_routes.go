package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// currentUser handles GET /api/users/me.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	user, err := s.deps.Users.Get(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// listUsers handles GET /api/users.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context())
	if err != nil {
		s.logger.Error("list users", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, resp)
}

// getUser handles GET /api/users/{id}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// updateUser handles PUT /api/users/{id}. Users may edit their own
// profile; role and activation changes require the admin role.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	targetID := chi.URLParam(r, "id")

	isAdmin := identity.Role == domain.RoleAdmin
	if targetID != identity.UserID && !isAdmin {
		respondError(w, http.StatusForbidden, "not allowed to modify other users")
		return
	}

	var body struct {
		DisplayName *string `json:"display_name"`
		Email       *string `json:"email"`
		Color       *string `json:"color"`
		Role        *string `json:"role"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.deps.Users.Get(r.Context(), targetID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	if body.DisplayName != nil {
		user.DisplayName = *body.DisplayName
	}
	if body.Email != nil {
		user.Email = *body.Email
	}
	if body.Color != nil {
		if err := domain.ValidateColor(*body.Color); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.Color = *body.Color
	}
	if body.Role != nil {
		if !isAdmin {
			respondError(w, http.StatusForbidden, "only admins can change roles")
			return
		}
		if !domain.ValidRole(*body.Role) {
			respondError(w, http.StatusBadRequest, "role must be one of: user, moderator, admin")
			return
		}
		user.Role = *body.Role
	}
	if body.IsActive != nil {
		if !isAdmin {
			respondError(w, http.StatusForbidden, "only admins can change activation")
			return
		}
		user.Active = *body.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.deps.Users.Update(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			respondError(w, http.StatusBadRequest, "username already registered")
			return
		}
		s.logger.Error("update user", "user", targetID, "err", err)
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}
