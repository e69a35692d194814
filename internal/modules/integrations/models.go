// Package integrations provides the integration registry: one row per
// configured external source, with its provider type, owning project, active
// flag, and non-secret configuration. Secrets stay in the environment.
package integrations

import (
	"time"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Integration is one configured connection to an external system.
type Integration struct {
	ID           string            `json:"id"`
	Provider     domain.SourceType `json:"provider"`
	Name         string            `json:"name"`
	ProjectID    string            `json:"project_id"`
	Active       bool              `json:"active"`
	ConfigJSON   *string           `json:"config_json,omitempty"` // Account ids, shop domains - never secrets
	LastSyncedAt *time.Time        `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
