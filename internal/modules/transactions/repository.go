package transactions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/utils"
)

// Repository handles transaction persistence.
// Transactions live in the transactions table and form the ledger every import
// run appends to and the reconciliation engine reads from.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Create inserts a new transaction. The ID is generated when empty.
// Dates are converted from YYYY-MM-DD to Unix timestamps at midnight UTC.
func (r *Repository) Create(tx *Transaction) (*Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	dateUnix, err := utils.DateToUnix(tx.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}

	createdAt := time.Now().Unix()

	_, err = r.db.Exec(`
		INSERT INTO transactions (id, project_id, date, description, amount, type, category, source_tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.ProjectID, dateUnix, tx.Description, tx.Amount, tx.Type, tx.Category, tx.SourceTag, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	tx.CreatedAt = time.Unix(createdAt, 0).UTC()
	return tx, nil
}

// ExistsBySourceTag checks whether a transaction with the given source tag
// already exists within a project. This is the exact-match dedup path for
// providers with stable external ids.
func (r *Repository) ExistsBySourceTag(projectID, sourceTag string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM transactions WHERE project_id = ? AND source_tag = ?",
		projectID, sourceTag,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check source tag existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByNaturalKey checks for a transaction with the same project, normalized
// description, and date. This is the coarser fallback dedup path for sources
// without stable external ids; re-importing a genuinely distinct same-day,
// same-description event is indistinguishable from a duplicate here.
func (r *Repository) ExistsByNaturalKey(projectID, normalizedDescription, date string) (bool, error) {
	dateUnix, err := utils.DateToUnix(date)
	if err != nil {
		return false, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}

	rows, err := r.db.Query(
		"SELECT description FROM transactions WHERE project_id = ? AND date = ?",
		projectID, dateUnix,
	)
	if err != nil {
		return false, fmt.Errorf("failed to query natural key candidates: %w", err)
	}
	defer rows.Close()

	// Normalization happens in Go, so same-day rows are compared here rather
	// than in SQL.
	for rows.Next() {
		var description string
		if err := rows.Scan(&description); err != nil {
			return false, fmt.Errorf("failed to scan description: %w", err)
		}
		if utils.NormalizeDescription(description) == normalizedDescription {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating natural key candidates: %w", err)
	}

	return false, nil
}

// GetByProject retrieves all transactions for a project ordered by date ascending.
func (r *Repository) GetByProject(projectID string) ([]Transaction, error) {
	rows, err := r.db.Query(`
		SELECT id, project_id, date, description, amount, type, category, source_tag, created_at
		FROM transactions
		WHERE project_id = ?
		ORDER BY date ASC, created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// CountByProject returns the number of transactions in a project.
func (r *Repository) CountByProject(projectID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transactions WHERE project_id = ?", projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// GetByID retrieves a single transaction, nil if not found.
func (r *Repository) GetByID(id string) (*Transaction, error) {
	row := r.db.QueryRow(`
		SELECT id, project_id, date, description, amount, type, category, source_tag, created_at
		FROM transactions
		WHERE id = ?
	`, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// UpdateCategory sets the category of a transaction. Category (and notes-like
// fields) are the only mutable parts of a persisted transaction.
func (r *Repository) UpdateCategory(id, category string) error {
	result, err := r.db.Exec("UPDATE transactions SET category = ? WHERE id = ?", category, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}
	return nil
}

// Delete removes a transaction. Only explicit user action reaches this; the
// engine itself never deletes.
func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var tx Transaction
	var dateUnix int64
	var createdAt int64

	err := row.Scan(
		&tx.ID,
		&tx.ProjectID,
		&dateUnix,
		&tx.Description,
		&tx.Amount,
		&tx.Type,
		&tx.Category,
		&tx.SourceTag,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Date = utils.UnixToDate(dateUnix)
	tx.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &tx, nil
}

func (r *Repository) scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var txs []Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}
