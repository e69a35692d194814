package imports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/adspend"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
	"github.com/helvia-io/ledgerlink/internal/utils"
)

// transactionCreator is the slice of the transaction repository the runner needs.
type transactionCreator interface {
	Create(tx *transactions.Transaction) (*transactions.Transaction, error)
}

// projectChecker validates project existence before a run touches the ledger.
type projectChecker interface {
	Exists(id string) (bool, error)
}

// metricUpserter is the slice of the ad spend repository the runner needs.
type metricUpserter interface {
	Upsert(m *adspend.AdDailyMetric) (bool, error)
}

// Runner orchestrates one import run: fetch, dedup, insert, audit.
//
// A single record failure never aborts the run (best-effort partial import);
// only a fetch-level failure does. There is no automatic retry - cron
// re-invocation is naturally idempotent through the dedup index.
type Runner struct {
	txRepo     transactionCreator
	projects   projectChecker
	dedup      *DedupIndex
	history    *HistoryRepository
	metrics    metricUpserter
	windowDays int
	log        zerolog.Logger
}

// RunnerConfig holds runner dependencies
type RunnerConfig struct {
	TransactionRepo transactionCreator
	ProjectRepo     projectChecker
	Dedup           *DedupIndex
	History         *HistoryRepository
	MetricRepo      metricUpserter
	WindowDays      int // Default fetch window when the caller passes none
	Log             zerolog.Logger
}

// NewRunner creates a new import runner
func NewRunner(cfg RunnerConfig) *Runner {
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Runner{
		txRepo:     cfg.TransactionRepo,
		projects:   cfg.ProjectRepo,
		dedup:      cfg.Dedup,
		history:    cfg.History,
		metrics:    cfg.MetricRepo,
		windowDays: windowDays,
		log:        cfg.Log.With().Str("component", "import_runner").Logger(),
	}
}

// DefaultWindow returns the trailing fetch window ending today.
func (r *Runner) DefaultWindow() domain.Window {
	now := time.Now().UTC()
	return domain.Window{
		From: now.AddDate(0, 0, -r.windowDays).Format("2006-01-02"),
		To:   now.Format("2006-01-02"),
	}
}

// Run executes one import for an adapter and integration, recorded as exactly
// one import history row. The returned error is non-nil only for run-level
// failures (configuration, fetch, history bookkeeping); per-record failures
// are reported through the result and the history row.
func (r *Runner) Run(ctx context.Context, adapter SourceAdapter, integration integrations.Integration, triggeredBy string) (*ImportResult, error) {
	timer := utils.NewTimer(fmt.Sprintf("import_%s", adapter.Provider()), r.log)
	defer timer.Stop()

	// Configuration problems short-circuit before any history row or network
	// call: a misconfigured integration never partially runs.
	if ok, err := r.projects.Exists(integration.ProjectID); err != nil {
		return nil, &domain.PersistenceError{Op: "project lookup", Err: err}
	} else if !ok {
		return nil, &domain.ConfigurationError{Provider: string(adapter.Provider()), Missing: fmt.Sprintf("project %s", integration.ProjectID)}
	}

	historyID, err := r.history.Start(string(adapter.Provider()), integration.Name, triggeredBy)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "import history start", Err: err}
	}

	log := r.log.With().
		Str("provider", string(adapter.Provider())).
		Str("integration", integration.Name).
		Str("history_id", historyID).
		Logger()
	log.Info().Str("triggered_by", triggeredBy).Msg("Starting import run")

	records, err := adapter.Fetch(ctx, integration, r.DefaultWindow())
	if err != nil {
		// Fetch-level failure aborts the whole run; the history row records it
		// so nothing is silently swallowed.
		msg := err.Error()
		if histErr := r.history.Complete(historyID, StatusFailed, 0, 0, 0, []string{msg}); histErr != nil {
			log.Error().Err(histErr).Msg("Failed to record fetch failure in import history")
		}
		log.Error().Err(err).Msg("Import fetch failed")
		return &ImportResult{Errors: []string{msg}}, err
	}

	result := &ImportResult{}
	for _, rec := range records {
		r.importRecord(integration.ProjectID, rec, result)
	}

	status := terminalStatus(result.Imported, len(result.Errors))
	if err := r.history.Complete(historyID, status, result.Imported, result.Skipped, len(result.Errors), result.Errors); err != nil {
		return result, &domain.PersistenceError{Op: "import history complete", Err: err}
	}

	log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("errored", len(result.Errors)).
		Str("status", status).
		Msg("Import run finished")

	return result, nil
}

// importRecord processes a single raw record: validate, dedup, insert.
// All failures are folded into the result as row-level errors.
func (r *Runner) importRecord(projectID string, rec domain.RawRecord, result *ImportResult) {
	if err := validateRecord(rec); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	dup, err := r.dedup.IsDuplicate(projectID, rec)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("dedup check for %q: %v", rec.Description, err))
		return
	}
	if dup {
		result.Skipped++
		return
	}

	amount := rec.Amount
	if rec.Direction == domain.DirectionExpense {
		amount = -amount
	}
	tag := SourceTag(rec)

	_, err = r.txRepo.Create(&transactions.Transaction{
		ProjectID:   projectID,
		Date:        rec.Date,
		Description: rec.Description,
		Amount:      amount,
		Type:        string(rec.Direction),
		SourceTag:   &tag,
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("insert %q (%s): %v", rec.Description, rec.Date, err))
		return
	}

	result.Imported++
}

// RunMetrics executes one ad-metric import for a metrics adapter, with the
// same history lifecycle as transaction imports. Newly inserted campaign-days
// count as imported; refreshed existing rows count as skipped.
func (r *Runner) RunMetrics(ctx context.Context, adapter MetricsAdapter, integration integrations.Integration, triggeredBy string) (*ImportResult, error) {
	historyID, err := r.history.Start(string(adapter.Provider()), integration.Name, triggeredBy)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "import history start", Err: err}
	}

	log := r.log.With().
		Str("provider", string(adapter.Provider())).
		Str("integration", integration.Name).
		Logger()

	metrics, err := adapter.FetchMetrics(ctx, integration, r.DefaultWindow())
	if err != nil {
		msg := err.Error()
		if histErr := r.history.Complete(historyID, StatusFailed, 0, 0, 0, []string{msg}); histErr != nil {
			log.Error().Err(histErr).Msg("Failed to record fetch failure in import history")
		}
		return &ImportResult{Errors: []string{msg}}, err
	}

	result := &ImportResult{}
	for _, m := range metrics {
		inserted, err := r.metrics.Upsert(&adspend.AdDailyMetric{
			CampaignID:   m.CampaignID,
			CampaignName: m.CampaignName,
			Date:         m.Date,
			Spend:        m.Spend,
			Impressions:  m.Impressions,
			Clicks:       m.Clicks,
			Currency:     m.Currency,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("upsert campaign %s %s: %v", m.CampaignID, m.Date, err))
			continue
		}
		if inserted {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	status := terminalStatus(result.Imported, len(result.Errors))
	if err := r.history.Complete(historyID, status, result.Imported, result.Skipped, len(result.Errors), result.Errors); err != nil {
		return result, &domain.PersistenceError{Op: "import history complete", Err: err}
	}

	log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("errored", len(result.Errors)).
		Msg("Ad metric import finished")

	return result, nil
}

// validateRecord rejects malformed raw records before they reach the store.
func validateRecord(rec domain.RawRecord) error {
	if _, err := time.Parse("2006-01-02", rec.Date); err != nil {
		return &domain.ValidationError{Field: "date", Value: rec.Date, Message: "expected YYYY-MM-DD"}
	}
	if rec.Direction != domain.DirectionIncome && rec.Direction != domain.DirectionExpense {
		return &domain.ValidationError{Field: "direction", Value: string(rec.Direction), Message: "expected income or expense"}
	}
	if rec.Amount < 0 {
		return &domain.ValidationError{Field: "amount", Value: fmt.Sprintf("%f", rec.Amount), Message: "must be non-negative; direction carries the sign"}
	}
	return nil
}

// IsConfigurationError reports whether an error is a configuration problem
// (used by callers to distinguish "fix your setup" from "provider is down").
func IsConfigurationError(err error) bool {
	var ce *domain.ConfigurationError
	return errors.As(err, &ce)
}
