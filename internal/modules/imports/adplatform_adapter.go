package imports

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/clients/adplatform"
	"github.com/helvia-io/ledgerlink/internal/domain"
	"github.com/helvia-io/ledgerlink/internal/modules/integrations"
)

type insightLister interface {
	GetDailyInsights(ctx context.Context, from, to time.Time) ([]adplatform.Insight, error)
}

// AdPlatformAdapter pulls per-campaign daily insights. Unlike the transaction
// sources it feeds the ad metrics table, keyed by campaign and day, so
// re-fetching a window updates rows in place instead of deduplicating.
type AdPlatformAdapter struct {
	client      insightLister
	accessToken string
	accountID   string
	log         zerolog.Logger
}

// NewAdPlatformAdapter creates an ad platform metrics adapter
func NewAdPlatformAdapter(client insightLister, accessToken, accountID string, log zerolog.Logger) *AdPlatformAdapter {
	return &AdPlatformAdapter{
		client:      client,
		accessToken: accessToken,
		accountID:   accountID,
		log:         log.With().Str("adapter", "adplatform").Logger(),
	}
}

// Provider returns the source type
func (a *AdPlatformAdapter) Provider() domain.SourceType {
	return domain.SourceAdPlatform
}

// FetchMetrics retrieves daily campaign insights within the window. Insight
// numerics arrive as decimal strings; rows with an unparseable spend are
// skipped with a warning since a spend-less row carries no value.
func (a *AdPlatformAdapter) FetchMetrics(ctx context.Context, integration integrations.Integration, window domain.Window) ([]domain.AdMetricRecord, error) {
	if a.accessToken == "" {
		return nil, &domain.ConfigurationError{Provider: "ad_platform", Missing: "ADS_ACCESS_TOKEN"}
	}
	if a.accountID == "" {
		return nil, &domain.ConfigurationError{Provider: "ad_platform", Missing: "ADS_ACCOUNT_ID"}
	}

	from, to, err := windowBounds(window)
	if err != nil {
		return nil, err
	}

	insights, err := a.client.GetDailyInsights(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AdMetricRecord, 0, len(insights))
	for _, in := range insights {
		spend, err := strconv.ParseFloat(in.Spend, 64)
		if err != nil {
			a.log.Warn().Str("campaign_id", in.CampaignID).Str("date", in.DateStart).
				Str("spend", in.Spend).Msg("Skipping insight with unparseable spend")
			continue
		}
		impressions, _ := strconv.ParseInt(in.Impressions, 10, 64)
		clicks, _ := strconv.ParseInt(in.Clicks, 10, 64)

		records = append(records, domain.AdMetricRecord{
			CampaignID:   in.CampaignID,
			CampaignName: in.CampaignName,
			Date:         in.DateStart,
			Spend:        spend,
			Impressions:  impressions,
			Clicks:       clicks,
			Currency:     in.Currency,
		})
	}

	return records, nil
}
