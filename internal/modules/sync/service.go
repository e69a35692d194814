// Package sync fans one sync cycle out across the active integrations,
// isolating each integration's failures so one broken provider cannot take
// down the rest of the cycle.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/imports"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

type integrationStore interface {
	GetByID(id string) (*integrations.Integration, error)
	ListActive() ([]integrations.Integration, error)
	TouchLastSynced(id string, at time.Time) error
}

// IntegrationResult is the outcome of syncing one integration.
type IntegrationResult struct {
	IntegrationID string `json:"integration_id"`
	Provider      string `json:"provider"`
	Name          string `json:"name"`
	Status        string `json:"status"` // synced | skipped | failed
	Imported      int    `json:"imported"`
	Skipped       int    `json:"skipped"`
	Errored       int    `json:"errored"`
	Error         string `json:"error,omitempty"`
}

// Report aggregates one sync cycle.
type Report struct {
	TriggeredBy string              `json:"triggered_by"`
	StartedAt   time.Time           `json:"started_at"`
	Duration    string              `json:"duration"`
	Results     []IntegrationResult `json:"results"`
}

// Service coordinates sync cycles across registered source adapters.
type Service struct {
	runner          *imports.Runner
	integrations    integrationStore
	adapters        map[domain.SourceType]imports.SourceAdapter
	metricsAdapters map[domain.SourceType]imports.MetricsAdapter
	log             zerolog.Logger
}

// NewService creates a sync service
func NewService(runner *imports.Runner, store integrationStore, log zerolog.Logger) *Service {
	return &Service{
		runner:          runner,
		integrations:    store,
		adapters:        make(map[domain.SourceType]imports.SourceAdapter),
		metricsAdapters: make(map[domain.SourceType]imports.MetricsAdapter),
		log:             log.With().Str("service", "sync").Logger(),
	}
}

// RegisterAdapter adds a transaction source adapter to the fan-out.
func (s *Service) RegisterAdapter(a imports.SourceAdapter) {
	s.adapters[a.Provider()] = a
}

// RegisterMetricsAdapter adds a metrics source adapter to the fan-out.
func (s *Service) RegisterMetricsAdapter(a imports.MetricsAdapter) {
	s.metricsAdapters[a.Provider()] = a
}

// RunAll syncs every active integration, optionally limited to one project
// when projectID is non-empty. Bank exports arrive out of band, so the bank
// source is excluded from fan-out; the spreadsheet source is excluded on
// scheduled cycles because sheet edits need a human at the wheel. Each
// integration runs in isolation: an error or panic in one is recorded and
// the cycle moves on.
func (s *Service) RunAll(ctx context.Context, triggeredBy, projectID string) (*Report, error) {
	started := time.Now().UTC()

	active, err := s.integrations.ListActive()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list active integrations", Err: err}
	}

	report := &Report{TriggeredBy: triggeredBy, StartedAt: started}
	for _, in := range active {
		if projectID != "" && in.ProjectID != projectID {
			continue
		}
		if in.Provider == domain.SourceBank {
			report.Results = append(report.Results, skippedResult(in, "bank exports are ingested from the drop bucket on demand"))
			continue
		}
		if in.Provider == domain.SourceSheets && triggeredBy == imports.TriggeredByCron {
			report.Results = append(report.Results, skippedResult(in, "spreadsheet imports are manual-only"))
			continue
		}
		report.Results = append(report.Results, s.syncOne(ctx, in, triggeredBy))
	}

	report.Duration = time.Since(started).String()
	s.log.Info().
		Str("triggered_by", triggeredBy).
		Int("integrations", len(report.Results)).
		Str("duration", report.Duration).
		Msg("Sync cycle finished")
	return report, nil
}

// RunOne syncs a single integration by id, regardless of the fan-out
// exclusions.
func (s *Service) RunOne(ctx context.Context, integrationID, triggeredBy string) (*IntegrationResult, error) {
	in, err := s.integrations.GetByID(integrationID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get integration", Err: err}
	}
	if in == nil {
		return nil, &domain.ValidationError{Field: "integration_id", Value: integrationID, Message: "not found"}
	}

	result := s.syncOne(ctx, *in, triggeredBy)
	return &result, nil
}

// syncOne runs one integration through the import runner, converting panics
// and errors into a failed result.
func (s *Service) syncOne(ctx context.Context, in integrations.Integration, triggeredBy string) (result IntegrationResult) {
	result = IntegrationResult{
		IntegrationID: in.ID,
		Provider:      string(in.Provider),
		Name:          in.Name,
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Str("integration", in.Name).Interface("panic", rec).
				Msg("Integration sync panicked")
			result.Status = "failed"
			result.Error = fmt.Sprintf("panic: %v", rec)
		}
	}()

	var (
		runResult *imports.ImportResult
		err       error
	)
	if adapter, ok := s.adapters[in.Provider]; ok {
		runResult, err = s.runner.Run(ctx, adapter, in, triggeredBy)
	} else if metricsAdapter, ok := s.metricsAdapters[in.Provider]; ok {
		runResult, err = s.runner.RunMetrics(ctx, metricsAdapter, in, triggeredBy)
	} else {
		result.Status = "failed"
		result.Error = fmt.Sprintf("no adapter registered for provider %s", in.Provider)
		return result
	}

	if runResult != nil {
		result.Imported = runResult.Imported
		result.Skipped = runResult.Skipped
		result.Errored = len(runResult.Errors)
	}
	if err != nil {
		s.log.Error().Err(err).Str("integration", in.Name).Msg("Integration sync failed")
		result.Status = "failed"
		result.Error = err.Error()
		return result
	}

	if err := s.integrations.TouchLastSynced(in.ID, time.Now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("integration", in.Name).Msg("Failed to update last_synced_at")
	}

	result.Status = "synced"
	return result
}

func skippedResult(in integrations.Integration, reason string) IntegrationResult {
	return IntegrationResult{
		IntegrationID: in.ID,
		Provider:      string(in.Provider),
		Name:          in.Name,
		Status:        "skipped",
		Error:         reason,
	}
}
