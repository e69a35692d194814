// Package adplatform provides a client for the ad platform's campaign insights
// API. The insights endpoint is paginated and rate-limited, so transient
// responses (429, 5xx) are retried with bounded exponential backoff before the
// fetch is failed.
package adplatform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Insight is one campaign-day row from the insights API. Numeric fields arrive
// as decimal strings.
type Insight struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	DateStart    string `json:"date_start"` // YYYY-MM-DD
	Spend        string `json:"spend"`
	Impressions  string `json:"impressions"`
	Clicks       string `json:"clicks"`
	Currency     string `json:"account_currency"`
}

type insightsResponse struct {
	Data   []Insight `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// Client for the ad platform insights API
type Client struct {
	baseURL     string
	accessToken string
	accountID   string
	client      *http.Client
	log         zerolog.Logger
}

// NewClient creates a new ad platform client
func NewClient(baseURL, accessToken, accountID string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		accountID:   accountID,
		client:      &http.Client{Timeout: 20 * time.Second},
		log:         log.With().Str("client", "adplatform").Logger(),
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// GetDailyInsights fetches per-campaign daily insights for [from, to],
// following paging.next until exhausted.
func (c *Client) GetDailyInsights(ctx context.Context, from, to time.Time) ([]Insight, error) {
	params := url.Values{}
	params.Set("level", "campaign")
	params.Set("time_increment", "1")
	params.Set("fields", "campaign_id,campaign_name,spend,impressions,clicks,account_currency")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02")))
	params.Set("access_token", c.accessToken)

	next := fmt.Sprintf("%s/act_%s/insights?%s", c.baseURL, c.accountID, params.Encode())

	var all []Insight
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		next = page.Paging.Next
	}

	c.log.Debug().Int("count", len(all)).Msg("Fetched ad platform insights")
	return all, nil
}

// fetchPage retrieves one insights page, retrying transient responses with
// exponential backoff capped at 30 seconds total.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*insightsResponse, error) {
	var result insightsResponse

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(&domain.ProviderError{Provider: "ad_platform", Message: err.Error(), Err: err})
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Network errors are worth one more try
			return &domain.ProviderError{Provider: "ad_platform", Message: "insights request failed", Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			c.log.Warn().Int("status", resp.StatusCode).Msg("Transient insights response, retrying")
			return &domain.ProviderError{
				Provider: "ad_platform",
				Status:   resp.StatusCode,
				Message:  fmt.Sprintf("insights returned %d", resp.StatusCode),
			}
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(&domain.ProviderError{
				Provider: "ad_platform",
				Status:   resp.StatusCode,
				Message:  fmt.Sprintf("insights returned %d: %s", resp.StatusCode, string(body)),
			})
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(&domain.ProviderError{Provider: "ad_platform", Message: "failed to parse response", Err: err})
		}
		return nil
	}

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(retryBackoff, ctx)); err != nil {
		return nil, err
	}
	return &result, nil
}
