package sync

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/imports"
)

// Handlers provides HTTP handlers for sync endpoints
type Handlers struct {
	service    *Service
	cronSecret string
	log        zerolog.Logger
}

// NewHandlers creates a new sync handlers instance
func NewHandlers(service *Service, cronSecret string, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:    service,
		cronSecret: cronSecret,
		log:        log.With().Str("module", "sync_handlers").Logger(),
	}
}

// RegisterRoutes registers all sync routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/sync", h.TriggerSync)
	r.Get("/sync", h.CronSync)
}

// TriggerSyncRequest is the request body for a manual sync
type TriggerSyncRequest struct {
	IntegrationID string `json:"integration_id"`       // "all" or a specific id
	ProjectID     string `json:"project_id,omitempty"` // limits "all" to one project
}

// TriggerSync runs a manual sync of one integration or the whole fleet
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req TriggerSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IntegrationID == "" {
		http.Error(w, "integration_id is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if req.IntegrationID == "all" {
		report, err := h.service.RunAll(r.Context(), imports.TriggeredByManual, req.ProjectID)
		if err != nil {
			h.log.Error().Err(err).Msg("Manual sync cycle failed")
			http.Error(w, "Sync cycle failed", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(report)
		return
	}

	result, err := h.service.RunOne(r.Context(), req.IntegrationID, imports.TriggeredByManual)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("integration_id", req.IntegrationID).Msg("Manual sync failed")
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(result)
}

// CronSync runs a full sync cycle for the external scheduler. Scheduled calls
// must present the shared cron secret as a bearer token; manual=true tags the
// cycle as manually triggered, which lifts both the secret requirement and
// the cron-only exclusions.
func (h *Handlers) CronSync(w http.ResponseWriter, r *http.Request) {
	triggeredBy := imports.TriggeredByCron
	if r.URL.Query().Get("manual") == "true" {
		triggeredBy = imports.TriggeredByManual
	}

	if triggeredBy == imports.TriggeredByCron && !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.service.RunAll(r.Context(), triggeredBy, "")
	if err != nil {
		h.log.Error().Err(err).Msg("Cron sync cycle failed")
		http.Error(w, "Sync cycle failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *Handlers) authorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) == 1
}
