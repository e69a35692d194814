package reconciliation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Handlers provides HTTP handlers for reconciliation endpoints
type Handlers struct {
	engine *Engine
	log    zerolog.Logger
}

// NewHandlers creates a new reconciliation handlers instance
func NewHandlers(engine *Engine, log zerolog.Logger) *Handlers {
	return &Handlers{
		engine: engine,
		log:    log.With().Str("module", "reconciliation_handlers").Logger(),
	}
}

// RegisterRoutes registers all reconciliation routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/reconciliation", func(r chi.Router) {
		r.Get("/candidates", h.GetCandidates)
		r.Post("/matches", h.CreateMatches)
		r.Get("/matches/pending", h.GetPendingMatches)
		r.Post("/matches/{id}/status", h.ResolveMatch)
		r.Get("/stats", h.GetStats)
	})
}

// GetCandidates runs a candidate sweep for a project without persisting
func (h *Handlers) GetCandidates(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	candidates, err := h.engine.FindCandidates(projectID)
	if err != nil {
		h.log.Error().Err(err).Str("project_id", projectID).Msg("Candidate sweep failed")
		http.Error(w, "Failed to find candidates", http.StatusInternalServerError)
		return
	}
	if candidates == nil {
		candidates = []Candidate{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// CreateMatchesRequest is the request body for creating auto matches
type CreateMatchesRequest struct {
	ProjectID string `json:"project_id"`
}

// CreateMatches persists a candidate sweep as pending auto matches
func (h *Handlers) CreateMatches(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProjectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	matches, err := h.engine.CreateAutoMatches(req.ProjectID)
	if err != nil {
		h.log.Error().Err(err).Str("project_id", req.ProjectID).Msg("Failed to create matches")
		http.Error(w, "Failed to create matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []Match{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// GetPendingMatches lists matches awaiting review
func (h *Handlers) GetPendingMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.engine.GetPending()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list pending matches")
		http.Error(w, "Failed to list pending matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []Match{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// ResolveMatchRequest is the request body for resolving a match
type ResolveMatchRequest struct {
	Status     string `json:"status"` // confirmed | rejected
	ResolvedBy string `json:"resolved_by"`
}

// ResolveMatch confirms or rejects a pending match
func (h *Handlers) ResolveMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ResolveMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ResolvedBy == "" {
		req.ResolvedBy = "api"
	}

	err := h.engine.ResolveMatch(id, req.Status, req.ResolvedBy)
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "Match not found", http.StatusNotFound)
		case errors.Is(err, ErrMatchResolved):
			http.Error(w, "Match already resolved", http.StatusConflict)
		default:
			h.log.Error().Err(err).Str("match_id", id).Msg("Failed to resolve match")
			http.Error(w, "Failed to resolve match", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     id,
		"status": req.Status,
	})
}

// GetStats returns match counts by status
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get match stats")
		http.Error(w, "Failed to get match stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
