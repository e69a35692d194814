package imports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HistoryRepository persists the import_history audit trail. Rows are inserted
// at run start and mutated exactly once at completion; the engine never deletes
// them.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new import history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "import_history").Logger(),
	}
}

// Start inserts a running history row and returns its id.
func (r *HistoryRepository) Start(sourceType, sourceName, triggeredBy string) (string, error) {
	id := uuid.NewString()
	startedAt := time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO import_history (id, source_type, source_name, triggered_by, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, sourceType, sourceName, triggeredBy, startedAt, StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to insert import history: %w", err)
	}

	return id, nil
}

// Complete records the terminal state of a run. This is the single mutation an
// import history row ever receives.
func (r *HistoryRepository) Complete(id, status string, imported, skipped, errored int, errorDetails []string) error {
	var detailsJSON *string
	if len(errorDetails) > 0 {
		b, err := json.Marshal(errorDetails)
		if err != nil {
			return fmt.Errorf("failed to marshal error details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	result, err := r.db.Exec(`
		UPDATE import_history
		SET completed_at = ?, status = ?, rows_imported = ?, rows_skipped = ?, rows_errored = ?, error_details = ?
		WHERE id = ?
	`, time.Now().Unix(), status, imported, skipped, errored, detailsJSON, id)
	if err != nil {
		return fmt.Errorf("failed to complete import history: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("import history row %s not found", id)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (r *HistoryRepository) Recent(limit int) ([]ImportHistory, error) {
	rows, err := r.db.Query(`
		SELECT id, source_type, source_name, triggered_by, started_at, completed_at,
		       status, rows_imported, rows_skipped, rows_errored, error_details
		FROM import_history
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import history: %w", err)
	}
	defer rows.Close()

	var history []ImportHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import history: %w", err)
		}
		history = append(history, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import history: %w", err)
	}
	return history, nil
}

// GetByID retrieves one run, nil if not found.
func (r *HistoryRepository) GetByID(id string) (*ImportHistory, error) {
	row := r.db.QueryRow(`
		SELECT id, source_type, source_name, triggered_by, started_at, completed_at,
		       status, rows_imported, rows_skipped, rows_errored, error_details
		FROM import_history
		WHERE id = ?
	`, id)

	h, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import history: %w", err)
	}
	return h, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHistory(row rowScanner) (*ImportHistory, error) {
	var h ImportHistory
	var startedAt int64
	var completedAt sql.NullInt64
	var details sql.NullString

	err := row.Scan(
		&h.ID,
		&h.SourceType,
		&h.SourceName,
		&h.TriggeredBy,
		&startedAt,
		&completedAt,
		&h.Status,
		&h.RowsImported,
		&h.RowsSkipped,
		&h.RowsErrored,
		&details,
	)
	if err != nil {
		return nil, err
	}

	h.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		h.CompletedAt = &t
	}
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &h.ErrorDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal error details: %w", err)
		}
	}
	return &h, nil
}
