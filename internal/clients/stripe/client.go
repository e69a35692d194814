// Package stripe provides a minimal Stripe charges API client.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Charge is one charge object from the Stripe API. Amounts are integer cents.
type Charge struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Created     int64  `json:"created"` // Unix seconds
	Description string `json:"description"`
	Refunded    bool   `json:"refunded"`
	Status      string `json:"status"`
}

type chargeList struct {
	Data    []Charge `json:"data"`
	HasMore bool     `json:"has_more"`
}

// Client for the Stripe REST API
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Stripe client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://api.stripe.com/v1",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "stripe").Logger(),
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// ListCharges fetches all succeeded charges created within [from, to], paging
// with starting_after until the API reports no more data.
func (c *Client) ListCharges(ctx context.Context, from, to time.Time) ([]Charge, error) {
	var all []Charge
	startingAfter := ""

	for {
		params := url.Values{}
		params.Set("limit", "100")
		params.Set("created[gte]", strconv.FormatInt(from.Unix(), 10))
		params.Set("created[lte]", strconv.FormatInt(to.Unix(), 10))
		if startingAfter != "" {
			params.Set("starting_after", startingAfter)
		}

		page, err := c.fetchPage(ctx, params)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		startingAfter = page.Data[len(page.Data)-1].ID
	}

	c.log.Debug().Int("count", len(all)).Msg("Fetched Stripe charges")
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, params url.Values) (*chargeList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/charges?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "stripe", Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "stripe", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.ProviderError{
			Provider: "stripe",
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("charges list returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var page chargeList
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &domain.ProviderError{Provider: "stripe", Message: "failed to parse response", Err: err}
	}
	return &page, nil
}
