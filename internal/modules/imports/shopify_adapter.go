package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/clients/shopify"
	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

// ShopifyAdapter normalizes Shopify orders into raw records.
// The order's financial status drives the direction: paid orders are income,
// refunded ones expense, voided orders are dropped.
type ShopifyAdapter struct {
	client      *shopify.Client
	shopDomain  string
	accessToken string
	log         zerolog.Logger
}

// NewShopifyAdapter creates a Shopify source adapter
func NewShopifyAdapter(client *shopify.Client, shopDomain, accessToken string, log zerolog.Logger) *ShopifyAdapter {
	return &ShopifyAdapter{
		client:      client,
		shopDomain:  shopDomain,
		accessToken: accessToken,
		log:         log.With().Str("adapter", "shopify").Logger(),
	}
}

// Provider returns the source type
func (a *ShopifyAdapter) Provider() domain.SourceType {
	return domain.SourceShopify
}

// Fetch retrieves and normalizes orders for the window.
func (a *ShopifyAdapter) Fetch(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.RawRecord, error) {
	if a.shopDomain == "" || a.accessToken == "" {
		return nil, &domain.ConfigurationError{Provider: "shopify", Missing: "SHOPIFY_SHOP_DOMAIN / SHOPIFY_ACCESS_TOKEN"}
	}

	from, to, err := windowBounds(window)
	if err != nil {
		return nil, err
	}

	orders, err := a.client.ListOrders(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(orders))
	for _, o := range orders {
		var direction domain.Direction
		switch o.FinancialStatus {
		case "paid", "partially_paid":
			direction = domain.DirectionIncome
		case "refunded", "partially_refunded":
			direction = domain.DirectionExpense
		default:
			// pending / voided / authorized orders have no settled money yet
			continue
		}

		amount, err := strconv.ParseFloat(o.TotalPrice, 64)
		if err != nil {
			a.log.Warn().
				Int64("order_id", o.ID).
				Str("total_price", o.TotalPrice).
				Msg("Skipping Shopify order with unparseable total")
			continue
		}

		created, err := time.Parse(time.RFC3339, o.CreatedAt)
		if err != nil {
			a.log.Warn().
				Int64("order_id", o.ID).
				Str("created_at", o.CreatedAt).
				Msg("Skipping Shopify order with unparseable date")
			continue
		}

		payload, _ := json.Marshal(o)
		records = append(records, domain.RawRecord{
			ExternalID:  strconv.FormatInt(o.ID, 10),
			SourceType:  domain.SourceShopify,
			Amount:      amount,
			Currency:    o.Currency,
			Date:        created.UTC().Format("2006-01-02"),
			Description: fmt.Sprintf("Shopify order %s", o.Name),
			Direction:   direction,
			RawPayload:  payload,
		})
	}

	return records, nil
}
