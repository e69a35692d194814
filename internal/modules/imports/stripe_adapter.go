package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/clients/stripe"
	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

// StripeAdapter normalizes Stripe charges into raw records.
// Stripe amounts arrive in integer cents and are converted to whole currency
// units; succeeded charges are income, refunded ones expense.
type StripeAdapter struct {
	client *stripe.Client
	apiKey string
	log    zerolog.Logger
}

// NewStripeAdapter creates a Stripe source adapter
func NewStripeAdapter(client *stripe.Client, apiKey string, log zerolog.Logger) *StripeAdapter {
	return &StripeAdapter{
		client: client,
		apiKey: apiKey,
		log:    log.With().Str("adapter", "stripe").Logger(),
	}
}

// Provider returns the source type
func (a *StripeAdapter) Provider() domain.SourceType {
	return domain.SourceStripe
}

// Fetch retrieves and normalizes charges for the window.
func (a *StripeAdapter) Fetch(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.RawRecord, error) {
	if a.apiKey == "" {
		return nil, &domain.ConfigurationError{Provider: "stripe", Missing: "STRIPE_API_KEY"}
	}

	from, to, err := windowBounds(window)
	if err != nil {
		return nil, err
	}

	charges, err := a.client.ListCharges(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(charges))
	for _, ch := range charges {
		if ch.Status != "succeeded" {
			continue
		}

		direction := domain.DirectionIncome
		if ch.Refunded {
			direction = domain.DirectionExpense
		}

		description := ch.Description
		if description == "" {
			description = fmt.Sprintf("Stripe charge %s", ch.ID)
		}

		payload, _ := json.Marshal(ch)
		records = append(records, domain.RawRecord{
			ExternalID:  ch.ID,
			SourceType:  domain.SourceStripe,
			Amount:      float64(ch.Amount) / 100.0, // cents -> whole units
			Currency:    ch.Currency,
			Date:        time.Unix(ch.Created, 0).UTC().Format("2006-01-02"),
			Description: description,
			Direction:   direction,
			RawPayload:  payload,
		})
	}

	return records, nil
}

// windowBounds converts a calendar-date window into [midnight from, end of to].
func windowBounds(window domain.Window) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", window.From)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "window.from", Value: window.From, Message: "expected YYYY-MM-DD"}
	}
	to, err := time.Parse("2006-01-02", window.To)
	if err != nil {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "window.to", Value: window.To, Message: "expected YYYY-MM-DD"}
	}
	return from, to.Add(24*time.Hour - time.Second), nil
}
