package adspend

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/utils"
)

// Repository handles ad metric persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ad spend repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "adspend").Logger(),
	}
}

// Upsert inserts or replaces the metric row for (campaign id, date).
// Returns true when the row was newly inserted, false when an existing row was
// updated - the import runner counts the former as imported and the latter as
// skipped.
func (r *Repository) Upsert(m *AdDailyMetric) (bool, error) {
	dateUnix, err := utils.DateToUnix(m.Date)
	if err != nil {
		return false, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}

	var count int
	err = r.db.QueryRow(
		"SELECT COUNT(*) FROM ad_daily_metrics WHERE campaign_id = ? AND date = ?",
		m.CampaignID, dateUnix,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check metric existence: %w", err)
	}

	updatedAt := time.Now().Unix()
	_, err = r.db.Exec(`
		INSERT INTO ad_daily_metrics (campaign_id, date, campaign_name, spend, impressions, clicks, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (campaign_id, date) DO UPDATE SET
			campaign_name = excluded.campaign_name,
			spend         = excluded.spend,
			impressions   = excluded.impressions,
			clicks        = excluded.clicks,
			currency      = excluded.currency,
			updated_at    = excluded.updated_at
	`, m.CampaignID, dateUnix, m.CampaignName, m.Spend, m.Impressions, m.Clicks, m.Currency, updatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert ad metric: %w", err)
	}

	m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return count == 0, nil
}

// GetByDateRange retrieves metrics within an inclusive date range ordered by
// date then campaign.
func (r *Repository) GetByDateRange(startDate, endDate string) ([]AdDailyMetric, error) {
	startUnix, err := utils.DateToUnix(startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	endUnix, err := utils.DateToUnix(endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}

	rows, err := r.db.Query(`
		SELECT campaign_id, date, campaign_name, spend, impressions, clicks, currency, updated_at
		FROM ad_daily_metrics
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, campaign_id ASC
	`, startUnix, endUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to query ad metrics: %w", err)
	}
	defer rows.Close()

	var metrics []AdDailyMetric
	for rows.Next() {
		var m AdDailyMetric
		var dateUnix, updatedAt int64
		var name sql.NullString
		if err := rows.Scan(&m.CampaignID, &dateUnix, &name, &m.Spend, &m.Impressions, &m.Clicks, &m.Currency, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ad metric: %w", err)
		}
		m.Date = utils.UnixToDate(dateUnix)
		m.CampaignName = name.String
		m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ad metrics: %w", err)
	}
	return metrics, nil
}

// GetTotalSpend sums spend over an inclusive date range.
func (r *Repository) GetTotalSpend(startDate, endDate string) (float64, error) {
	startUnix, err := utils.DateToUnix(startDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	endUnix, err := utils.DateToUnix(endDate)
	if err != nil {
		return 0, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}

	var total float64
	err = r.db.QueryRow(
		"SELECT COALESCE(SUM(spend), 0) FROM ad_daily_metrics WHERE date >= ? AND date <= ?",
		startUnix, endUnix,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ad spend: %w", err)
	}
	return total, nil
}
