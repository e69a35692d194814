package reconciliation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
	"github.com/helvia-io/ledgerlink/internal/utils"
)

const (
	// amountTolerance is the maximum absolute-amount difference for a pair.
	amountTolerance = 0.01
	// maxDateDiffDays is the widest date gap considered matchable.
	maxDateDiffDays = 3
	// maxCandidates caps a single candidate sweep.
	maxCandidates = 100
)

type transactionLister interface {
	GetByProject(projectID string) ([]transactions.Transaction, error)
}

type matchStore interface {
	InsertBatch(matches []Match) ([]Match, error)
	GetPending() ([]Match, error)
	UpdateStatus(id, status, resolvedBy string) error
	ReconciledTransactionIDs() (map[string]bool, error)
	GetStats() (*Stats, error)
}

// Engine finds cross-source transaction pairs and manages their lifecycle.
type Engine struct {
	transactions transactionLister
	matches      matchStore
	log          zerolog.Logger
}

// NewEngine creates a reconciliation engine
func NewEngine(txRepo transactionLister, matchRepo matchStore, log zerolog.Logger) *Engine {
	return &Engine{
		transactions: txRepo,
		matches:      matchRepo,
		log:          log.With().Str("service", "reconciliation").Logger(),
	}
}

// FindCandidates sweeps a project's unreconciled transactions for pairs that
// plausibly describe the same event: different source groups, absolute
// amounts within tolerance, and booking dates at most three days apart.
// Results are ordered by confidence, best first, and capped.
func (e *Engine) FindCandidates(projectID string) ([]Candidate, error) {
	txns, err := e.transactions.GetByProject(projectID)
	if err != nil {
		return nil, err
	}

	reconciled, err := e.matches.ReconciledTransactionIDs()
	if err != nil {
		return nil, err
	}

	pool := make([]transactions.Transaction, 0, len(txns))
	for _, t := range txns {
		if !reconciled[t.ID] {
			pool = append(pool, t)
		}
	}

	var candidates []Candidate
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			c, ok := e.pair(pool[i], pool[j])
			if ok {
				candidates = append(candidates, c)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	e.log.Debug().Str("project_id", projectID).Int("candidates", len(candidates)).
		Msg("Candidate sweep complete")
	return candidates, nil
}

// pair evaluates one transaction pairing against the match gates.
func (e *Engine) pair(a, b transactions.Transaction) (Candidate, bool) {
	// Two records from the same origin are never the same event seen twice;
	// that situation is a duplicate, handled at import time.
	if a.SourceGroup() == b.SourceGroup() {
		return Candidate{}, false
	}

	amountDiff := math.Abs(math.Abs(a.Amount) - math.Abs(b.Amount))
	if amountDiff > amountTolerance {
		return Candidate{}, false
	}

	days, err := utils.DaysBetween(a.Date, b.Date)
	if err != nil || days > maxDateDiffDays {
		return Candidate{}, false
	}

	return Candidate{
		TransactionA: a,
		TransactionB: b,
		Confidence:   confidence(days),
		DateDiffDays: days,
		AmountDiff:   amountDiff,
	}, true
}

// confidence maps a date gap to a score: same day scores 1.0, each day of
// drift costs 0.1, floored at 0.7.
func confidence(dateDiffDays int) float64 {
	score := math.Round((1.0-0.1*float64(dateDiffDays))*100) / 100
	return math.Max(0.7, score)
}

// CreateAutoMatches runs a candidate sweep and persists the result as pending
// auto matches. Candidates are taken best-confidence first and each
// transaction is consumed by at most one match per sweep.
func (e *Engine) CreateAutoMatches(projectID string) ([]Match, error) {
	candidates, err := e.FindCandidates(projectID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	used := make(map[string]bool)
	var batch []Match
	for _, c := range candidates {
		if used[c.TransactionA.ID] || used[c.TransactionB.ID] {
			continue
		}
		used[c.TransactionA.ID] = true
		used[c.TransactionB.ID] = true

		evidence, err := json.Marshal(Evidence{
			DateDiffDays: c.DateDiffDays,
			AmountDiff:   c.AmountDiff,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal match evidence: %w", err)
		}
		matchedOn := string(evidence)

		batch = append(batch, Match{
			TransactionAID: c.TransactionA.ID,
			TransactionBID: c.TransactionB.ID,
			MatchType:      MatchTypeAuto,
			Confidence:     c.Confidence,
			MatchedOn:      &matchedOn,
			Status:         StatusPending,
		})
	}

	matches, err := e.matches.InsertBatch(batch)
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("project_id", projectID).Int("matches", len(matches)).
		Msg("Created auto matches")
	return matches, nil
}

// GetPending returns all matches awaiting review.
func (e *Engine) GetPending() ([]Match, error) {
	return e.matches.GetPending()
}

// ResolveMatch confirms or rejects a pending match.
func (e *Engine) ResolveMatch(id, status, resolvedBy string) error {
	if status != StatusConfirmed && status != StatusRejected {
		return &domain.ValidationError{
			Field:   "status",
			Value:   status,
			Message: "must be confirmed or rejected",
		}
	}
	return e.matches.UpdateStatus(id, status, resolvedBy)
}

// GetStats returns match counts by status.
func (e *Engine) GetStats() (*Stats, error) {
	return e.matches.GetStats()
}
