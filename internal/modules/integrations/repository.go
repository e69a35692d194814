package integrations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Repository handles integration persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new integration repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "integrations").Logger(),
	}
}

// Create inserts a new integration. The ID is generated when empty.
func (r *Repository) Create(in *Integration) (*Integration, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	createdAt := time.Now().Unix()

	active := 0
	if in.Active {
		active = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO integrations (id, provider, name, project_id, active, config_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.ID, string(in.Provider), in.Name, in.ProjectID, active, in.ConfigJSON, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert integration: %w", err)
	}

	in.CreatedAt = time.Unix(createdAt, 0).UTC()
	return in, nil
}

// GetByID retrieves an integration, nil if not found.
func (r *Repository) GetByID(id string) (*Integration, error) {
	row := r.db.QueryRow(`
		SELECT id, provider, name, project_id, active, config_json, last_synced_at, created_at
		FROM integrations
		WHERE id = ?
	`, id)

	in, err := scanIntegration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return in, nil
}

// ListActive returns all active integrations ordered by creation time.
func (r *Repository) ListActive() ([]Integration, error) {
	rows, err := r.db.Query(`
		SELECT id, provider, name, project_id, active, config_json, last_synced_at, created_at
		FROM integrations
		WHERE active = 1
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active integrations: %w", err)
	}
	defer rows.Close()

	var list []Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		list = append(list, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating integrations: %w", err)
	}
	return list, nil
}

// TouchLastSynced records the completion time of the latest sync for an integration.
func (r *Repository) TouchLastSynced(id string, at time.Time) error {
	_, err := r.db.Exec("UPDATE integrations SET last_synced_at = ? WHERE id = ?", at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update last_synced_at: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIntegration(row rowScanner) (*Integration, error) {
	var in Integration
	var provider string
	var active int
	var lastSynced sql.NullInt64
	var createdAt int64

	err := row.Scan(&in.ID, &provider, &in.Name, &in.ProjectID, &active, &in.ConfigJSON, &lastSynced, &createdAt)
	if err != nil {
		return nil, err
	}

	in.Provider = domain.SourceType(provider)
	in.Active = active == 1
	if lastSynced.Valid {
		t := time.Unix(lastSynced.Int64, 0).UTC()
		in.LastSyncedAt = &t
	}
	in.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &in, nil
}
