package integrations

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Handlers provides HTTP handlers for integration endpoints
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new integrations handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("module", "integrations_handlers").Logger(),
	}
}

// RegisterRoutes registers all integration routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/integrations", func(r chi.Router) {
		r.Get("/", h.ListActive)
		r.Post("/", h.Create)
	})
}

// ListActive returns all active integrations
func (h *Handlers) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListActive()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list integrations")
		http.Error(w, "Failed to list integrations", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Integration{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"integrations": list,
		"count":        len(list),
	})
}

// CreateIntegrationRequest is the request body for registering an integration.
// ConfigJSON carries non-secret settings only; credentials come from the
// environment.
type CreateIntegrationRequest struct {
	Provider   string  `json:"provider"`
	Name       string  `json:"name"`
	ProjectID  string  `json:"project_id"`
	ConfigJSON *string `json:"config_json,omitempty"`
}

// Create registers a new integration
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Provider == "" || req.Name == "" || req.ProjectID == "" {
		http.Error(w, "provider, name and project_id are required", http.StatusBadRequest)
		return
	}

	integration, err := h.repo.Create(&Integration{
		Provider:   domain.SourceType(req.Provider),
		Name:       req.Name,
		ProjectID:  req.ProjectID,
		Active:     true,
		ConfigJSON: req.ConfigJSON,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create integration")
		http.Error(w, "Failed to create integration", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(integration)
}
