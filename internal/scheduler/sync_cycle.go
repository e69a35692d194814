package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/modules/imports"
	syncsvc "github.com/helvia-io/ledgerlink/internal/modules/sync"
)

// SyncCycleJob runs the scheduled sync cycle across all active integrations.
type SyncCycleJob struct {
	service *syncsvc.Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewSyncCycleJob creates a new sync cycle job
func NewSyncCycleJob(service *syncsvc.Service, timeout time.Duration, log zerolog.Logger) *SyncCycleJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &SyncCycleJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "sync_cycle").Logger(),
	}
}

// Name returns the job name
func (j *SyncCycleJob) Name() string {
	return "sync_cycle"
}

// Run executes one full sync cycle. Per-integration failures are recorded in
// the report and import history; the job itself fails only when the cycle
// cannot run at all.
func (j *SyncCycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.service.RunAll(ctx, imports.TriggeredByCron, "")
	if err != nil {
		return fmt.Errorf("sync cycle failed: %w", err)
	}

	failed := 0
	for _, r := range report.Results {
		if r.Status == "failed" {
			failed++
		}
	}
	if failed > 0 {
		j.log.Warn().Int("failed", failed).Int("total", len(report.Results)).
			Msg("Sync cycle finished with failed integrations")
	}

	return nil
}
