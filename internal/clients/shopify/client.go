// Package shopify provides a minimal Shopify Admin orders API client.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Order is one order from the Shopify Admin API.
type Order struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"` // Human-readable order number, e.g. "#1001"
	TotalPrice      string `json:"total_price"`
	Currency        string `json:"currency"`
	CreatedAt       string `json:"created_at"` // RFC3339
	FinancialStatus string `json:"financial_status"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

// Client for the Shopify Admin REST API
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
	log         zerolog.Logger
}

var pageInfoRe = regexp.MustCompile(`page_info=([^&>;]+)[^>]*>;\s*rel="next"`)

// NewClient creates a new Shopify client for a shop domain
// (e.g. "acme.myshopify.com").
func NewClient(shopDomain, accessToken string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     fmt.Sprintf("https://%s/admin/api/2024-01", shopDomain),
		accessToken: accessToken,
		client:      &http.Client{Timeout: 15 * time.Second},
		log:         log.With().Str("client", "shopify").Logger(),
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// ListOrders fetches all orders created within [from, to], following the Link
// header's page_info cursor.
func (c *Client) ListOrders(ctx context.Context, from, to time.Time) ([]Order, error) {
	var all []Order
	pageInfo := ""

	for {
		params := url.Values{}
		params.Set("limit", "100")
		if pageInfo == "" {
			// Filter params are only valid on the first request; subsequent
			// pages are addressed purely by cursor.
			params.Set("status", "any")
			params.Set("created_at_min", from.UTC().Format(time.RFC3339))
			params.Set("created_at_max", to.UTC().Format(time.RFC3339))
		} else {
			params.Set("page_info", pageInfo)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/orders.json?"+params.Encode(), nil)
		if err != nil {
			return nil, &domain.ProviderError{Provider: "shopify", Message: err.Error(), Err: err}
		}
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, &domain.ProviderError{Provider: "shopify", Message: "orders request failed", Err: err}
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, &domain.ProviderError{
				Provider: "shopify",
				Status:   resp.StatusCode,
				Message:  fmt.Sprintf("orders list returned %d: %s", resp.StatusCode, string(body)),
			}
		}

		var result ordersResponse
		link := resp.Header.Get("Link")
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return nil, &domain.ProviderError{Provider: "shopify", Message: "failed to parse response", Err: err}
		}

		all = append(all, result.Orders...)

		next := nextPageInfo(link)
		if next == "" || len(result.Orders) == 0 {
			break
		}
		pageInfo = next
	}

	c.log.Debug().Int("count", len(all)).Msg("Fetched Shopify orders")
	return all, nil
}

// nextPageInfo extracts the next-page cursor from a Link header, empty when
// there is no next page.
func nextPageInfo(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	m := pageInfoRe.FindStringSubmatch(linkHeader)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
