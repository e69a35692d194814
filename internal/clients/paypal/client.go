// Package paypal provides a minimal PayPal transaction-search API client.
package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Transaction is one entry from the PayPal reporting API.
type Transaction struct {
	Info TransactionInfo `json:"transaction_info"`
}

// TransactionInfo carries the fields the engine cares about.
type TransactionInfo struct {
	TransactionID     string `json:"transaction_id"`
	TransactionAmount Money  `json:"transaction_amount"`
	InitiationDate    string `json:"transaction_initiation_date"` // RFC3339
	Subject           string `json:"transaction_subject"`
	Status            string `json:"transaction_status"`
}

// Money is PayPal's currency/value pair; value is a decimal string.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// Amount parses the decimal value.
func (m Money) Amount() (float64, error) {
	return strconv.ParseFloat(m.Value, 64)
}

type searchResponse struct {
	TransactionDetails []Transaction `json:"transaction_details"`
	TotalPages         int           `json:"total_pages"`
	Page               int           `json:"page"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Client for the PayPal REST API
type Client struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
	log      zerolog.Logger

	token       string
	tokenExpiry time.Time
}

// NewClient creates a new PayPal client
func NewClient(baseURL, clientID, secret string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		client:   &http.Client{Timeout: 20 * time.Second},
		log:      log.With().Str("client", "paypal").Logger(),
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SearchTransactions fetches all transactions in [from, to], paging until
// total_pages is exhausted.
func (c *Client) SearchTransactions(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var all []Transaction
	page := 1

	for {
		params := url.Values{}
		params.Set("start_date", from.UTC().Format(time.RFC3339))
		params.Set("end_date", to.UTC().Format(time.RFC3339))
		params.Set("page_size", "100")
		params.Set("page", strconv.Itoa(page))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/v1/reporting/transactions?"+params.Encode(), nil)
		if err != nil {
			return nil, &domain.ProviderError{Provider: "paypal", Message: err.Error(), Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, &domain.ProviderError{Provider: "paypal", Message: "transaction search failed", Err: err}
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, &domain.ProviderError{
				Provider: "paypal",
				Status:   resp.StatusCode,
				Message:  fmt.Sprintf("transaction search returned %d: %s", resp.StatusCode, string(body)),
			}
		}

		var result searchResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return nil, &domain.ProviderError{Provider: "paypal", Message: "failed to parse response", Err: err}
		}

		all = append(all, result.TransactionDetails...)
		if result.TotalPages == 0 || page >= result.TotalPages {
			break
		}
		page++
	}

	c.log.Debug().Int("count", len(all)).Msg("Fetched PayPal transactions")
	return all, nil
}

// accessToken fetches (and caches) an OAuth2 client-credentials token.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", &domain.ProviderError{Provider: "paypal", Message: err.Error(), Err: err}
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.ProviderError{Provider: "paypal", Message: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.ProviderError{
			Provider: "paypal",
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("token request returned %d", resp.StatusCode),
		}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", &domain.ProviderError{Provider: "paypal", Message: "failed to parse token response", Err: err}
	}

	c.token = tok.AccessToken
	// Renew a minute early to avoid using a token at its expiry boundary
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.token, nil
}
