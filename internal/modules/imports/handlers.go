package imports

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers provides HTTP handlers for import history endpoints
type Handlers struct {
	history *HistoryRepository
	log     zerolog.Logger
}

// NewHandlers creates a new import history handlers instance
func NewHandlers(history *HistoryRepository, log zerolog.Logger) *Handlers {
	return &Handlers{
		history: history,
		log:     log.With().Str("module", "imports_handlers").Logger(),
	}
}

// RegisterRoutes registers all import history routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Get("/", h.ListRecent)
		r.Get("/{id}", h.GetByID)
	})
}

// ListRecent returns the most recent import runs, newest first
func (h *Handlers) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.history.Recent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import history")
		http.Error(w, "Failed to list import history", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []ImportHistory{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"imports": runs,
		"count":   len(runs),
	})
}

// GetByID returns a single import run
func (h *Handlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.history.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get import run")
		http.Error(w, "Failed to get import run", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Import run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}
