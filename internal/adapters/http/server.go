// Package http is the REST surface around the collaboration core:
// authentication, user/workflow/output CRUD, generation jobs, health,
// and the mounts for the websocket endpoint and metrics exporter.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/pkg/domain"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// AuthService is the slice of the auth service the HTTP surface needs.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Register(ctx context.Context, username, password, email string) (*domain.User, error)
	Verify(token string) (domain.Identity, error)
}

// Deps wires the handler's collaborators.
type Deps struct {
	Users     ports.UserStore
	Workflows ports.WorkflowStore
	Outputs   ports.OutputStore
	Auth      AuthService
	Generator ports.Generator

	// Collab is the websocket endpoint, mounted at /ws when set.
	Collab http.Handler
	// Metrics is the exporter, mounted at /metrics when set.
	Metrics http.Handler

	// Settings seeds the mutable server-wide settings; the zero value
	// falls back to domain.DefaultSettings.
	Settings domain.Settings

	Logger *slog.Logger
}

// Server implements the REST handlers.
type Server struct {
	deps   Deps
	logger *slog.Logger

	settingsMu sync.RWMutex
	settings   domain.Settings
}

// NewHandler builds the full HTTP handler tree.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Settings == (domain.Settings{}) {
		deps.Settings = domain.DefaultSettings()
	}
	s := &Server{deps: deps, logger: deps.Logger, settings: deps.Settings}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "cozyui collaboration server"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
	if deps.Collab != nil {
		r.Handle("/ws", deps.Collab)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/token", s.login)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.Get("/me", s.currentUser)
			r.Get("/{id}", s.getUser)
			r.Put("/{id}", s.updateUser)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", s.createWorkflow)
			r.Get("/", s.listWorkflows)
			r.Get("/{id}", s.getWorkflow)
			r.Put("/{id}", s.updateWorkflow)
			r.Delete("/{id}", s.deleteWorkflow)
		})

		r.Route("/outputs", func(r chi.Router) {
			r.Post("/", s.createOutput)
			r.Get("/", s.listOutputs)
			r.Get("/{id}", s.getOutput)
		})

		r.Route("/generate", func(r chi.Router) {
			r.Post("/", s.queueGeneration)
			r.Get("/{id}", s.generationStatus)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.getSettings)
			r.Put("/", s.updateSettings)
		})
	})

	return r
}

type ctxKey int

const identityKey ctxKey = 0

// requireAuth verifies the bearer token and stashes the identity in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		identity, err := s.deps.Auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFrom returns the authenticated identity for the request.
func identityFrom(r *http.Request) domain.Identity {
	identity, _ := r.Context().Value(identityKey).(domain.Identity)
	return identity
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
