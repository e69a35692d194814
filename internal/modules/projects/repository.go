// Package projects provides the project repository. Projects own transactions;
// the import runner validates project existence before touching the ledger.
package projects

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Project groups transactions and integrations under one owner.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository handles project persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new project repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "projects").Logger(),
	}
}

// Create inserts a new project. The ID is generated when empty.
func (r *Repository) Create(p *Project) (*Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	createdAt := time.Now().Unix()

	_, err := r.db.Exec(
		"INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)",
		p.ID, p.Name, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

// Exists checks whether a project id is known.
func (r *Repository) Exists(id string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM projects WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}
	return count > 0, nil
}

// List returns all projects ordered by creation time.
func (r *Repository) List() ([]Project, error) {
	rows, err := r.db.Query("SELECT id, name, created_at FROM projects ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}
