package reconciliation

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/database"
)

// ErrMatchResolved is returned when a status update targets a match that has
// already left the pending state.
var ErrMatchResolved = errors.New("match already resolved")

// Repository handles reconciliation match database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new reconciliation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "reconciliation").Logger(),
	}
}

// InsertBatch persists a set of auto matches atomically: either every match
// lands or none do.
func (r *Repository) InsertBatch(matches []Match) ([]Match, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO reconciliation_matches
				(id, transaction_a_id, transaction_b_id, match_type, confidence, matched_on, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare match insert: %w", err)
		}
		defer stmt.Close()

		for i := range matches {
			matches[i].ID = uuid.New().String()
			matches[i].CreatedAt = now
			if _, err := stmt.Exec(
				matches[i].ID,
				matches[i].TransactionAID,
				matches[i].TransactionBID,
				matches[i].MatchType,
				matches[i].Confidence,
				matches[i].MatchedOn,
				matches[i].Status,
				now.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert match: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().Int("count", len(matches)).Msg("Inserted reconciliation matches")
	return matches, nil
}

// GetPending returns all pending matches, newest first.
func (r *Repository) GetPending() ([]Match, error) {
	rows, err := r.db.Query(`
		SELECT id, transaction_a_id, transaction_b_id, match_type, confidence,
		       matched_on, status, confirmed_by, confirmed_at, created_at
		FROM reconciliation_matches
		WHERE status = 'pending'
		ORDER BY created_at DESC, confidence DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending matches: %w", err)
	}
	defer rows.Close()

	return r.scanMatches(rows)
}

// GetByID retrieves a single match, or nil when absent.
func (r *Repository) GetByID(id string) (*Match, error) {
	row := r.db.QueryRow(`
		SELECT id, transaction_a_id, transaction_b_id, match_type, confidence,
		       matched_on, status, confirmed_by, confirmed_at, created_at
		FROM reconciliation_matches
		WHERE id = ?
	`, id)

	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// UpdateStatus resolves a pending match to confirmed or rejected. The guard on
// the current status makes resolution first-writer-wins: a second attempt on
// the same match returns ErrMatchResolved.
func (r *Repository) UpdateStatus(id, status, resolvedBy string) error {
	res, err := r.db.Exec(`
		UPDATE reconciliation_matches
		SET status = ?, confirmed_by = ?, confirmed_at = ?
		WHERE id = ? AND status = 'pending'
	`, status, resolvedBy, time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check match update: %w", err)
	}
	if affected == 0 {
		existing, err := r.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return sql.ErrNoRows
		}
		return ErrMatchResolved
	}

	r.log.Info().Str("match_id", id).Str("status", status).Msg("Resolved reconciliation match")
	return nil
}

// ReconciledTransactionIDs returns the ids of every transaction that sits on
// either side of a pending or confirmed match. Rejected matches release their
// transactions back into the candidate pool.
func (r *Repository) ReconciledTransactionIDs() (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT transaction_a_id, transaction_b_id
		FROM reconciliation_matches
		WHERE status IN ('pending', 'confirmed')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciled transactions: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("failed to scan reconciled pair: %w", err)
		}
		ids[a] = true
		ids[b] = true
	}
	return ids, rows.Err()
}

// GetStats returns match counts grouped by status, plus the confirmed match
// rate over the transaction count. Each confirmed match covers two
// transactions.
func (r *Repository) GetStats() (*Stats, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*) FROM reconciliation_matches GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query match stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan match stats: %w", err)
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusConfirmed:
			stats.Confirmed = count
		case StatusRejected:
			stats.Rejected = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&stats.TransactionCount); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	if stats.TransactionCount > 0 {
		rate := float64(2*stats.Confirmed) / float64(stats.TransactionCount)
		stats.MatchRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*Match, error) {
	var m Match
	var confirmedAt sql.NullInt64
	var createdAt int64

	err := row.Scan(
		&m.ID, &m.TransactionAID, &m.TransactionBID, &m.MatchType, &m.Confidence,
		&m.MatchedOn, &m.Status, &m.ConfirmedBy, &confirmedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	if confirmedAt.Valid {
		t := time.Unix(confirmedAt.Int64, 0).UTC()
		m.ConfirmedAt = &t
	}
	return &m, nil
}

func (r *Repository) scanMatches(rows *sql.Rows) ([]Match, error) {
	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}
