package imports

import "time"

// Import run statuses. A run starts as running and ends in exactly one of the
// terminal states; terminal rows are never deleted (audit trail).
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Trigger sources for an import run.
const (
	TriggeredByManual = "manual"
	TriggeredByCron   = "cron"
)

// ImportHistory is the audit record of one import run.
type ImportHistory struct {
	ID           string     `json:"id"`
	SourceType   string     `json:"source_type"`
	SourceName   string     `json:"source_name"`
	TriggeredBy  string     `json:"triggered_by"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Status       string     `json:"status"`
	RowsImported int        `json:"rows_imported"`
	RowsSkipped  int        `json:"rows_skipped"`
	RowsErrored  int        `json:"rows_errored"`
	ErrorDetails []string   `json:"error_details,omitempty"`
}

// ImportResult summarizes one run for the caller.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// terminalStatus derives the run's terminal state from its counters:
// every record failed means failed, a mix means partial, otherwise completed
// (skipped-only runs are completed - a fully deduped re-run is a success).
func terminalStatus(imported, errored int) string {
	switch {
	case imported == 0 && errored > 0:
		return StatusFailed
	case imported > 0 && errored > 0:
		return StatusPartial
	default:
		return StatusCompleted
	}
}
