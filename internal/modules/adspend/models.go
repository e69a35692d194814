// Package adspend stores daily ad-platform spend metrics. These rows are not
// transactions; they run through the same import/history discipline but are
// upserted keyed by (campaign id, date) instead of deduped by source tag.
package adspend

import "time"

// AdDailyMetric is one campaign-day of spend data.
type AdDailyMetric struct {
	CampaignID   string    `json:"campaign_id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	CampaignName string    `json:"campaign_name"`
	Spend        float64   `json:"spend"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
}
