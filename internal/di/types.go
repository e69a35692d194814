// Package di provides dependency injection type definitions.
//
// The Container is the single source of truth for all service instances; it
// is created by Wire() and passed to the server and scheduler.
package di

import (
	"github.com/helvia-io/ledgerlink/internal/database"
	"github.com/helvia-io/ledgerlink/internal/modules/adspend"
	"github.com/helvia-io/ledgerlink/internal/modules/imports"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
	"github.com/helvia-io/ledgerlink/internal/modules/projects"
	"github.com/helvia-io/ledgerlink/internal/modules/reconciliation"
	syncsvc "github.com/helvia-io/ledgerlink/internal/modules/sync"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
)

// Container holds all dependencies for the application.
type Container struct {
	// Database (single SQLite file, ledger profile)
	DB *database.DB

	// Repositories - data access layer
	TransactionRepo *transactions.Repository
	ProjectRepo     *projects.Repository
	IntegrationRepo *integrations.Repository
	AdSpendRepo     *adspend.Repository
	HistoryRepo     *imports.HistoryRepository
	MatchRepo       *reconciliation.Repository

	// Services - business logic layer
	Dedup        *imports.DedupIndex
	ImportRunner *imports.Runner
	Reconciler   *reconciliation.Engine
	SyncService  *syncsvc.Service
}
