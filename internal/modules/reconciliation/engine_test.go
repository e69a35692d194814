package reconciliation

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/helvia-io/ledgerlink/internal/database"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
)

type engineFixture struct {
	engine  *Engine
	txRepo  *transactions.Repository
	matches *Repository
}

func setupEngine(t *testing.T) *engineFixture {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO projects (id, name, created_at) VALUES ('proj-1', 'Test', 0)")
	require.NoError(t, err)

	log := zerolog.Nop()
	txRepo := transactions.NewRepository(db, log)
	matchRepo := NewRepository(db, log)

	return &engineFixture{
		engine:  NewEngine(txRepo, matchRepo, log),
		txRepo:  txRepo,
		matches: matchRepo,
	}
}

func (f *engineFixture) insertTx(t *testing.T, sourceTag, date string, amount float64) string {
	t.Helper()
	txType := "income"
	if amount < 0 {
		txType = "expense"
	}
	var tagPtr *string
	if sourceTag != "" {
		tagPtr = &sourceTag
	}
	created, err := f.txRepo.Create(&transactions.Transaction{
		ProjectID:   "proj-1",
		Date:        date,
		Description: fmt.Sprintf("%s %s", sourceTag, date),
		Amount:      amount,
		Type:        txType,
		SourceTag:   tagPtr,
	})
	require.NoError(t, err)
	return created.ID
}

func TestConfidenceByDateGap(t *testing.T) {
	tests := []struct {
		dateB string
		want  float64
	}{
		{"2024-01-13", 1.0},
		{"2024-01-14", 0.9},
		{"2024-01-15", 0.8},
		{"2024-01-16", 0.7},
	}

	for _, tt := range tests {
		f := setupEngine(t)
		f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
		f.insertTx(t, "shopify:1001", tt.dateB, 89.00)

		candidates, err := f.engine.FindCandidates("proj-1")
		require.NoError(t, err)
		require.Len(t, candidates, 1, "date %s", tt.dateB)
		assert.Equal(t, tt.want, candidates[0].Confidence, "date %s", tt.dateB)
	}
}

func TestDateGateExcludesBeyondThreeDays(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-17", 89.00) // 4 days apart

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAmountGate(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-13", 89.01) // inside tolerance
	f.insertTx(t, "paypal:p_1", "2024-01-13", 89.03)   // outside tolerance vs both

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.01, candidates[0].AmountDiff, 1e-9)
}

func TestAmountGateComparesAbsoluteValues(t *testing.T) {
	f := setupEngine(t)

	// A Stripe income and the matching bank expense differ only in sign
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "sourceFile:bank", "2024-01-14", -89.00)

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 0.9, candidates[0].Confidence)
}

func TestSameSourceNeverPairs(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "stripe:ch_2", "2024-01-13", 89.00)

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestManualEntriesPairWithTaggedSources(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "", "2024-01-13", 50.00) // manual entry
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 50.00)

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestCandidatesSortedByConfidence(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-15", 89.00) // 2 days -> 0.8
	f.insertTx(t, "paypal:p_1", "2024-01-13", 89.00)   // 0 days vs stripe -> 1.0

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
	assert.Equal(t, 1.0, candidates[0].Confidence)
}

func TestCandidateSweepIsCapped(t *testing.T) {
	f := setupEngine(t)

	// 15 stripe x 15 shopify same-amount same-day rows produce 225 valid
	// pairings; the sweep returns at most the cap.
	for i := 0; i < 15; i++ {
		f.insertTx(t, fmt.Sprintf("stripe:ch_%d", i), "2024-01-13", 89.00)
		f.insertTx(t, fmt.Sprintf("shopify:%d", i), "2024-01-13", 89.00)
	}

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	assert.Len(t, candidates, maxCandidates)
}

func TestCreateAutoMatchesEndToEnd(t *testing.T) {
	f := setupEngine(t)
	aID := f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	bID := f.insertTx(t, "shopify:1001", "2024-01-14", 89.00)

	matches, err := f.engine.CreateAutoMatches("proj-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, MatchTypeAuto, m.MatchType)
	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, 0.9, m.Confidence)
	assert.ElementsMatch(t, []string{aID, bID}, []string{m.TransactionAID, m.TransactionBID})

	require.NotNil(t, m.MatchedOn)
	var evidence Evidence
	require.NoError(t, json.Unmarshal([]byte(*m.MatchedOn), &evidence))
	assert.Equal(t, 1, evidence.DateDiffDays)
	assert.InDelta(t, 0.0, evidence.AmountDiff, 1e-9)
}

func TestCreateAutoMatchesConsumesEachTransactionOnce(t *testing.T) {
	f := setupEngine(t)

	// One stripe row, two plausible shopify counterparts. The better-dated
	// pair wins and the stripe row is not matched twice.
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1002", "2024-01-15", 89.00)

	matches, err := f.engine.CreateAutoMatches("proj-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Confidence)
}

func TestMatchedTransactionsLeaveCandidatePool(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-14", 89.00)

	_, err := f.engine.CreateAutoMatches("proj-1")
	require.NoError(t, err)

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRejectedMatchReleasesTransactions(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-14", 89.00)

	matches, err := f.engine.CreateAutoMatches("proj-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	require.NoError(t, f.engine.ResolveMatch(matches[0].ID, StatusRejected, "reviewer"))

	candidates, err := f.engine.FindCandidates("proj-1")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestResolveMatchIsTerminal(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-14", 89.00)

	matches, err := f.engine.CreateAutoMatches("proj-1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	id := matches[0].ID

	require.NoError(t, f.engine.ResolveMatch(id, StatusConfirmed, "reviewer"))

	// Second resolution attempt, either direction, is refused
	assert.ErrorIs(t, f.engine.ResolveMatch(id, StatusRejected, "reviewer"), ErrMatchResolved)
	assert.ErrorIs(t, f.engine.ResolveMatch(id, StatusConfirmed, "reviewer"), ErrMatchResolved)

	got, err := f.matches.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedBy)
	assert.Equal(t, "reviewer", *got.ConfirmedBy)
	assert.NotNil(t, got.ConfirmedAt)
}

func TestResolveMatchValidatesStatus(t *testing.T) {
	f := setupEngine(t)
	err := f.engine.ResolveMatch("any", "archived", "reviewer")
	assert.Error(t, err)
}

func TestGetStats(t *testing.T) {
	f := setupEngine(t)
	f.insertTx(t, "stripe:ch_1", "2024-01-13", 89.00)
	f.insertTx(t, "shopify:1001", "2024-01-14", 89.00)
	f.insertTx(t, "stripe:ch_2", "2024-01-20", 42.00)
	f.insertTx(t, "paypal:p_1", "2024-01-20", 42.00)

	matches, err := f.engine.CreateAutoMatches("proj-1")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	require.NoError(t, f.engine.ResolveMatch(matches[0].ID, StatusConfirmed, "reviewer"))

	stats, err := f.engine.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 2, stats.Total)

	// One confirmed match covers 2 of the 4 transactions
	assert.Equal(t, 4, stats.TransactionCount)
	assert.InDelta(t, 0.5, stats.MatchRate, 1e-9)
}

func TestGetStatsEmptyLedger(t *testing.T) {
	f := setupEngine(t)

	stats, err := f.engine.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.TransactionCount)
	assert.Zero(t, stats.MatchRate)
}
