package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/clients/paypal"
	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

// PayPalAdapter normalizes PayPal transactions into raw records.
// PayPal reports signed amounts: positive values are income, negative values
// (fees, refunds, payouts) are expenses.
type PayPalAdapter struct {
	client   *paypal.Client
	clientID string
	secret   string
	log      zerolog.Logger
}

// NewPayPalAdapter creates a PayPal source adapter
func NewPayPalAdapter(client *paypal.Client, clientID, secret string, log zerolog.Logger) *PayPalAdapter {
	return &PayPalAdapter{
		client:   client,
		clientID: clientID,
		secret:   secret,
		log:      log.With().Str("adapter", "paypal").Logger(),
	}
}

// Provider returns the source type
func (a *PayPalAdapter) Provider() domain.SourceType {
	return domain.SourcePayPal
}

// Fetch retrieves and normalizes transactions for the window.
func (a *PayPalAdapter) Fetch(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.RawRecord, error) {
	if a.clientID == "" || a.secret == "" {
		return nil, &domain.ConfigurationError{Provider: "paypal", Missing: "PAYPAL_CLIENT_ID / PAYPAL_SECRET"}
	}

	from, to, err := windowBounds(window)
	if err != nil {
		return nil, err
	}

	txns, err := a.client.SearchTransactions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(txns))
	for _, t := range txns {
		info := t.Info
		if info.Status != "S" { // Only settled transactions
			continue
		}

		amount, err := info.TransactionAmount.Amount()
		if err != nil {
			a.log.Warn().
				Str("tx_id", info.TransactionID).
				Str("value", info.TransactionAmount.Value).
				Msg("Skipping PayPal transaction with unparseable amount")
			continue
		}

		direction := domain.DirectionIncome
		if amount < 0 {
			direction = domain.DirectionExpense
			amount = -amount
		}

		date, err := time.Parse(time.RFC3339, info.InitiationDate)
		if err != nil {
			a.log.Warn().
				Str("tx_id", info.TransactionID).
				Str("date", info.InitiationDate).
				Msg("Skipping PayPal transaction with unparseable date")
			continue
		}

		description := info.Subject
		if description == "" {
			description = fmt.Sprintf("PayPal transaction %s", info.TransactionID)
		}

		payload, _ := json.Marshal(t)
		records = append(records, domain.RawRecord{
			ExternalID:  info.TransactionID,
			SourceType:  domain.SourcePayPal,
			Amount:      amount,
			Currency:    info.TransactionAmount.CurrencyCode,
			Date:        date.UTC().Format("2006-01-02"),
			Description: description,
			Direction:   direction,
			RawPayload:  payload,
		})
	}

	return records, nil
}
