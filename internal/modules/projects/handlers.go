package projects

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers provides HTTP handlers for project endpoints
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new projects handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("module", "projects_handlers").Logger(),
	}
}

// RegisterRoutes registers all project routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
	})
}

// List returns all projects
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list projects")
		http.Error(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []Project{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// CreateProjectRequest is the request body for creating a project
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// Create adds a new project
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	project, err := h.repo.Create(&Project{Name: req.Name})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create project")
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(project)
}
