// Package reconciliation pairs transactions that describe the same underlying
// economic event across different sources, producing reviewable matches with
// a confidence score derived from how far apart the booking dates fall.
package reconciliation

import (
	"time"

	"github.com/helvia-io/ledgerlink/internal/modules/transactions"
)

// Match statuses. Pending matches can be confirmed or rejected exactly once;
// confirmed and rejected are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

// Match types
const (
	MatchTypeAuto   = "auto"
	MatchTypeManual = "manual"
)

// Match is a persisted pairing of two transactions.
type Match struct {
	ID             string     `json:"id"`
	TransactionAID string     `json:"transaction_a_id"`
	TransactionBID string     `json:"transaction_b_id"`
	MatchType      string     `json:"match_type"`
	Confidence     float64    `json:"confidence"`
	MatchedOn      *string    `json:"matched_on,omitempty"`
	Status         string     `json:"status"`
	ConfirmedBy    *string    `json:"confirmed_by,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Candidate is a proposed pairing found by the engine, before persistence.
type Candidate struct {
	TransactionA transactions.Transaction `json:"transaction_a"`
	TransactionB transactions.Transaction `json:"transaction_b"`
	Confidence   float64                  `json:"confidence"`
	DateDiffDays int                      `json:"date_diff_days"`
	AmountDiff   float64                  `json:"amount_diff"`
}

// Evidence is the serialized matched_on payload stored with auto matches.
type Evidence struct {
	DateDiffDays int     `json:"date_diff_days"`
	AmountDiff   float64 `json:"amount_diff"`
}

// Stats summarizes match volume by status. MatchRate is the share of all
// transactions covered by a confirmed match.
type Stats struct {
	Pending          int     `json:"pending"`
	Confirmed        int     `json:"confirmed"`
	Rejected         int     `json:"rejected"`
	Total            int     `json:"total"`
	TransactionCount int     `json:"transaction_count"`
	MatchRate        float64 `json:"match_rate"`
}
