package adspend

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers provides HTTP handlers for ad spend endpoints
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new ad spend handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("module", "adspend_handlers").Logger(),
	}
}

// RegisterRoutes registers all ad spend routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/adspend", func(r chi.Router) {
		r.Get("/", h.GetByDateRange)
		r.Get("/total", h.GetTotal)
	})
}

// GetByDateRange lists daily metrics within [start, end]
func (h *Handlers) GetByDateRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		http.Error(w, "start and end are required", http.StatusBadRequest)
		return
	}

	metrics, err := h.repo.GetByDateRange(start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list ad metrics")
		http.Error(w, "Failed to list ad metrics", http.StatusInternalServerError)
		return
	}
	if metrics == nil {
		metrics = []AdDailyMetric{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"metrics": metrics,
		"count":   len(metrics),
	})
}

// GetTotal returns the summed spend within [start, end]
func (h *Handlers) GetTotal(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		http.Error(w, "start and end are required", http.StatusBadRequest)
		return
	}

	total, err := h.repo.GetTotalSpend(start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to total ad spend")
		http.Error(w, "Failed to total ad spend", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"start":       start,
		"end":         end,
		"total_spend": total,
	})
}
