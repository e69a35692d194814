// Package transactions provides the persisted economic-event model and its repository.
package transactions

import (
	"time"
)

// Transaction is a persisted economic event owned by exactly one project.
// Automated imports set SourceTag to "<provider>:<external id>"; manual entries
// leave it empty. Only Category may change after creation.
type Transaction struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Description string    `json:"description"`
	Amount      float64   `json:"amount"` // Signed: income positive, expense negative
	Type        string    `json:"type"`   // income | expense
	Category    *string   `json:"category,omitempty"`
	SourceTag   *string   `json:"source_tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SourceGroup returns the coarse origin classification used to gate
// reconciliation pairing: the provider prefix of the source tag when present
// ("stripe", "paypal", "shopify", ...), or "manual" otherwise.
func (t *Transaction) SourceGroup() string {
	if t.SourceTag == nil || *t.SourceTag == "" {
		return "manual"
	}
	tag := *t.SourceTag
	for i := 0; i < len(tag); i++ {
		if tag[i] == ':' {
			return tag[:i]
		}
	}
	return tag
}
