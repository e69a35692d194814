package sync

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/helvia-io/ledgerlink/internal/database"
	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/adspend"
	"github.com/helvia-io/ledgerlink/internal/modules/imports"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
	"github.com/helvia-io/ledgerlink/internal/modules/projects"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
)

type stubAdapter struct {
	provider domain.SourceType
	records  []domain.RawRecord
	err      error
	panics   bool
	calls    int
}

func (s *stubAdapter) Provider() domain.SourceType { return s.provider }

func (s *stubAdapter) Fetch(_ context.Context, _ integrations.Integration, _ domain.Window) ([]domain.RawRecord, error) {
	s.calls++
	if s.panics {
		panic("adapter exploded")
	}
	return s.records, s.err
}

type syncFixture struct {
	service      *Service
	integrations *integrations.Repository
	projects     *projects.Repository
}

func setupSync(t *testing.T) *syncFixture {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	log := zerolog.Nop()
	txRepo := transactions.NewRepository(db, log)
	projectRepo := projects.NewRepository(db, log)
	integrationRepo := integrations.NewRepository(db, log)

	_, err = projectRepo.Create(&projects.Project{ID: "proj-1", Name: "Test"})
	require.NoError(t, err)

	runner := imports.NewRunner(imports.RunnerConfig{
		TransactionRepo: txRepo,
		ProjectRepo:     projectRepo,
		Dedup:           imports.NewDedupIndex(txRepo, log),
		History:         imports.NewHistoryRepository(db, log),
		MetricRepo:      adspend.NewRepository(db, log),
		WindowDays:      30,
		Log:             log,
	})

	return &syncFixture{
		service:      NewService(runner, integrationRepo, log),
		integrations: integrationRepo,
		projects:     projectRepo,
	}
}

func (f *syncFixture) addIntegration(t *testing.T, id string, provider domain.SourceType) {
	t.Helper()
	_, err := f.integrations.Create(&integrations.Integration{
		ID:        id,
		Provider:  provider,
		Name:      id,
		ProjectID: "proj-1",
		Active:    true,
	})
	require.NoError(t, err)
}

func resultFor(report *Report, id string) *IntegrationResult {
	for i := range report.Results {
		if report.Results[i].IntegrationID == id {
			return &report.Results[i]
		}
	}
	return nil
}

func TestRunAllSyncsActiveIntegrations(t *testing.T) {
	f := setupSync(t)
	f.addIntegration(t, "int-stripe", domain.SourceStripe)

	adapter := &stubAdapter{provider: domain.SourceStripe, records: []domain.RawRecord{{
		ExternalID:  "ch_1",
		SourceType:  domain.SourceStripe,
		Amount:      10,
		Date:        "2024-01-13",
		Description: "charge",
		Direction:   domain.DirectionIncome,
	}}}
	f.service.RegisterAdapter(adapter)

	report, err := f.service.RunAll(context.Background(), imports.TriggeredByCron, "")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "synced", report.Results[0].Status)
	assert.Equal(t, 1, report.Results[0].Imported)
	assert.Equal(t, 1, adapter.calls)

	// Successful sync stamps the integration
	in, err := f.integrations.GetByID("int-stripe")
	require.NoError(t, err)
	assert.NotNil(t, in.LastSyncedAt)
}

func TestRunAllSkipsBankAlways(t *testing.T) {
	f := setupSync(t)
	f.addIntegration(t, "int-bank", domain.SourceBank)

	bank := &stubAdapter{provider: domain.SourceBank}
	f.service.RegisterAdapter(bank)

	for _, trigger := range []string{imports.TriggeredByCron, imports.TriggeredByManual} {
		report, err := f.service.RunAll(context.Background(), trigger, "")
		require.NoError(t, err)
		res := resultFor(report, "int-bank")
		require.NotNil(t, res)
		assert.Equal(t, "skipped", res.Status, "trigger %s", trigger)
	}
	assert.Equal(t, 0, bank.calls)
}

func TestRunAllSkipsSpreadsheetOnCronOnly(t *testing.T) {
	f := setupSync(t)
	f.addIntegration(t, "int-sheets", domain.SourceSheets)

	sheets := &stubAdapter{provider: domain.SourceSheets}
	f.service.RegisterAdapter(sheets)

	report, err := f.service.RunAll(context.Background(), imports.TriggeredByCron, "")
	require.NoError(t, err)
	assert.Equal(t, "skipped", resultFor(report, "int-sheets").Status)
	assert.Equal(t, 0, sheets.calls)

	report, err = f.service.RunAll(context.Background(), imports.TriggeredByManual, "")
	require.NoError(t, err)
	assert.Equal(t, "synced", resultFor(report, "int-sheets").Status)
	assert.Equal(t, 1, sheets.calls)
}

func TestRunAllScopedToProject(t *testing.T) {
	f := setupSync(t)
	_, err := f.projects.Create(&projects.Project{ID: "proj-2", Name: "Other"})
	require.NoError(t, err)

	f.addIntegration(t, "int-stripe", domain.SourceStripe)
	_, err = f.integrations.Create(&integrations.Integration{
		ID:        "int-shopify",
		Provider:  domain.SourceShopify,
		Name:      "int-shopify",
		ProjectID: "proj-2",
		Active:    true,
	})
	require.NoError(t, err)

	stripe := &stubAdapter{provider: domain.SourceStripe}
	shopify := &stubAdapter{provider: domain.SourceShopify}
	f.service.RegisterAdapter(stripe)
	f.service.RegisterAdapter(shopify)

	report, err := f.service.RunAll(context.Background(), imports.TriggeredByManual, "proj-2")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "int-shopify", report.Results[0].IntegrationID)
	assert.Equal(t, 0, stripe.calls)
	assert.Equal(t, 1, shopify.calls)
}

func TestRunAllIsolatesFailures(t *testing.T) {
	f := setupSync(t)
	f.addIntegration(t, "int-stripe", domain.SourceStripe)
	f.addIntegration(t, "int-paypal", domain.SourcePayPal)
	f.addIntegration(t, "int-shopify", domain.SourceShopify)

	failing := &stubAdapter{
		provider: domain.SourceStripe,
		err:      &domain.ProviderError{Provider: "stripe", Status: 500, Message: "down"},
	}
	panicking := &stubAdapter{provider: domain.SourcePayPal, panics: true}
	healthy := &stubAdapter{provider: domain.SourceShopify}

	f.service.RegisterAdapter(failing)
	f.service.RegisterAdapter(panicking)
	f.service.RegisterAdapter(healthy)

	report, err := f.service.RunAll(context.Background(), imports.TriggeredByCron, "")
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, "failed", resultFor(report, "int-stripe").Status)
	assert.Equal(t, "failed", resultFor(report, "int-paypal").Status)
	assert.Contains(t, resultFor(report, "int-paypal").Error, "panic")
	assert.Equal(t, "synced", resultFor(report, "int-shopify").Status)
	assert.Equal(t, 1, healthy.calls)

	// Failed integrations keep their last_synced_at untouched
	in, err := f.integrations.GetByID("int-stripe")
	require.NoError(t, err)
	assert.Nil(t, in.LastSyncedAt)
}

func TestRunAllReportsMissingAdapter(t *testing.T) {
	f := setupSync(t)
	f.addIntegration(t, "int-stripe", domain.SourceStripe)

	report, err := f.service.RunAll(context.Background(), imports.TriggeredByCron, "")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "failed", report.Results[0].Status)
	assert.Contains(t, report.Results[0].Error, "no adapter registered")
}

func TestRunOne(t *testing.T) {
	f := setupSync(t)
	f.addIntegration(t, "int-bank", domain.SourceBank)

	bank := &stubAdapter{provider: domain.SourceBank}
	f.service.RegisterAdapter(bank)

	// Direct single-integration sync runs even the fan-out-excluded bank source
	result, err := f.service.RunOne(context.Background(), "int-bank", imports.TriggeredByManual)
	require.NoError(t, err)
	assert.Equal(t, "synced", result.Status)
	assert.Equal(t, 1, bank.calls)
}

func TestRunOneUnknownIntegration(t *testing.T) {
	f := setupSync(t)

	_, err := f.service.RunOne(context.Background(), "ghost", imports.TriggeredByManual)
	require.Error(t, err)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}
