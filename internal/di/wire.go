// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/clients/adplatform"
	"github.com/helvia-io/ledgerlink/internal/clients/bankdrop"
	"github.com/helvia-io/ledgerlink/internal/clients/paypal"
	"github.com/helvia-io/ledgerlink/internal/clients/shopify"
	"github.com/helvia-io/ledgerlink/internal/clients/stripe"
	"github.com/helvia-io/ledgerlink/internal/config"
	"github.com/helvia-io/ledgerlink/internal/database"
	"github.com/helvia-io/ledgerlink/internal/modules/adspend"
	"github.com/helvia-io/ledgerlink/internal/modules/imports"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
	"github.com/helvia-io/ledgerlink/internal/modules/projects"
	"github.com/helvia-io/ledgerlink/internal/modules/reconciliation"
	syncsvc "github.com/helvia-io/ledgerlink/internal/modules/sync"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Open and migrate the database
// 2. Initialize repositories
// 3. Initialize services
// 4. Register source adapters
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledgerlink.db"),
		Profile: database.ProfileLedger,
		Name:    "ledgerlink",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	c := &Container{DB: db}

	conn := db.Conn()
	c.TransactionRepo = transactions.NewRepository(conn, log)
	c.ProjectRepo = projects.NewRepository(conn, log)
	c.IntegrationRepo = integrations.NewRepository(conn, log)
	c.AdSpendRepo = adspend.NewRepository(conn, log)
	c.HistoryRepo = imports.NewHistoryRepository(conn, log)
	c.MatchRepo = reconciliation.NewRepository(conn, log)

	c.Dedup = imports.NewDedupIndex(c.TransactionRepo, log)
	c.ImportRunner = imports.NewRunner(imports.RunnerConfig{
		TransactionRepo: c.TransactionRepo,
		ProjectRepo:     c.ProjectRepo,
		Dedup:           c.Dedup,
		History:         c.HistoryRepo,
		MetricRepo:      c.AdSpendRepo,
		WindowDays:      cfg.WindowDays,
		Log:             log,
	})
	c.Reconciler = reconciliation.NewEngine(c.TransactionRepo, c.MatchRepo, log)
	c.SyncService = syncsvc.NewService(c.ImportRunner, c.IntegrationRepo, log)

	if err := registerAdapters(ctx, c, cfg, log); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("Dependency injection wiring completed")
	return c, nil
}

// registerAdapters wires one source adapter per provider into the sync
// fan-out. Adapters are registered even when their credentials are absent;
// they surface a configuration error at run time so a misconfigured
// integration is visible in import history rather than silently missing.
func registerAdapters(ctx context.Context, c *Container, cfg *config.Config, log zerolog.Logger) error {
	stripeClient := stripe.NewClient(cfg.Stripe.APIKey, log)
	c.SyncService.RegisterAdapter(imports.NewStripeAdapter(stripeClient, cfg.Stripe.APIKey, log))

	paypalClient := paypal.NewClient(cfg.PayPal.BaseURL, cfg.PayPal.ClientID, cfg.PayPal.Secret, log)
	c.SyncService.RegisterAdapter(imports.NewPayPalAdapter(paypalClient, cfg.PayPal.ClientID, cfg.PayPal.Secret, log))

	shopifyClient := shopify.NewClient(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken, log)
	c.SyncService.RegisterAdapter(imports.NewShopifyAdapter(shopifyClient, cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken, log))

	adsClient := adplatform.NewClient(cfg.AdPlatform.BaseURL, cfg.AdPlatform.AccessToken, cfg.AdPlatform.AccountID, log)
	c.SyncService.RegisterMetricsAdapter(imports.NewAdPlatformAdapter(adsClient, cfg.AdPlatform.AccessToken, cfg.AdPlatform.AccountID, log))

	// The drop-bucket client needs AWS configuration up front, so the bank
	// adapter is only registered when a bucket is configured.
	if cfg.BankDrop.Bucket != "" {
		dropClient, err := bankdrop.New(ctx, cfg.BankDrop, log)
		if err != nil {
			return fmt.Errorf("failed to create bank drop client: %w", err)
		}
		c.SyncService.RegisterAdapter(imports.NewBankCSVAdapter(dropClient, cfg.BankDrop.Bucket, log))
	}

	return nil
}
