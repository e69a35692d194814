package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helvia-io/ledgerlink/internal/config"
	"github.com/helvia-io/ledgerlink/internal/di"
	"github.com/helvia-io/ledgerlink/internal/modules/adspend"
	"github.com/helvia-io/ledgerlink/internal/modules/imports"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
	"github.com/helvia-io/ledgerlink/internal/modules/projects"
	"github.com/helvia-io/ledgerlink/internal/modules/reconciliation"
	syncmod "github.com/helvia-io/ledgerlink/internal/modules/sync"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
	"github.com/helvia-io/ledgerlink/internal/scheduler"
	"github.com/helvia-io/ledgerlink/internal/server"
	"github.com/helvia-io/ledgerlink/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting LedgerLink")

	container, err := di.Wire(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.DB.Close()

	sched := scheduler.New(log)
	syncJob := scheduler.NewSyncCycleJob(container.SyncService, 10*time.Minute, log)
	if err := sched.AddJob(cfg.SyncSchedule, syncJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SyncSchedule).Msg("Failed to register sync cycle job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      container.DB,
		DataDir: cfg.DataDir,
		DevMode: cfg.DevMode,
		Modules: []server.RouteRegistrar{
			projects.NewHandlers(container.ProjectRepo, log),
			integrations.NewHandlers(container.IntegrationRepo, log),
			transactions.NewHandlers(container.TransactionRepo, log),
			imports.NewHandlers(container.HistoryRepo, log),
			adspend.NewHandlers(container.AdSpendRepo, log),
			reconciliation.NewHandlers(container.Reconciler, log),
			syncmod.NewHandlers(container.SyncService, cfg.CronSecret, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
