// Package exchangerate provides the client for the exchangerate-api.com
// "latest rates" endpoint. The client only fetches - caching and fallback
// are the rate service's responsibility.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/fxcalc/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://v6.exchangerate-api.com/v6"

	// Retry policy for HTTP 429 responses. Linear backoff: 1s x attempt.
	maxRetries = 3
	retryDelay = time.Second
)

// Client for exchangerate-api.com
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger

	// sleep is injected so tests run without wall-clock waits.
	sleep func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider URL (used by tests with httptest).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithSleep overrides the backoff delay function.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates a new exchangerate-api.com client.
// An empty apiKey is a configuration error: live rates require a credential.
func NewClient(apiKey string, log zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, &domain.ConfigurationError{
			Key:     "EXCHANGE_RATE_API_KEY",
			Message: "exchange rate API key not configured",
		}
	}

	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "exchangerate-api").Logger(),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiResponse is the provider's "latest rates" payload.
type apiResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// FetchRates fetches the full rate table for the given base currency.
// On HTTP 429 it retries up to maxRetries with linear backoff; any other
// non-success status fails immediately with a RateFetchError.
func (c *Client) FetchRates(ctx context.Context, base domain.Currency) (domain.RateTable, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(retryDelay * time.Duration(attempt))
		}

		table, retryable, err := c.fetchOnce(ctx, base)
		if err == nil {
			return table, nil
		}
		lastErr = err
		if !retryable {
			break
		}

		c.log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Rate limited, retrying")
	}

	return nil, &domain.RateFetchError{Provider: "exchangerate-api", Err: lastErr}
}

// fetchOnce performs a single request. The second return value reports
// whether the failure is retryable (rate limit).
func (c *Client) fetchOnce(ctx context.Context, base domain.Currency) (domain.RateTable, bool, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)
	c.log.Debug().Str("base", string(base)).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("API rate limited (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Result != "success" {
		return nil, false, fmt.Errorf("API returned result %q", result.Result)
	}
	if len(result.ConversionRates) == 0 {
		return nil, false, fmt.Errorf("malformed payload: missing conversion_rates")
	}

	table := make(domain.RateTable, len(domain.SupportedCurrencies))
	for _, currency := range domain.SupportedCurrencies {
		rate, ok := result.ConversionRates[string(currency)]
		if !ok {
			return nil, false, fmt.Errorf("malformed payload: missing rate for %s", currency)
		}
		table[currency] = rate
	}

	if err := table.Validate(); err != nil {
		return nil, false, fmt.Errorf("malformed payload: %w", err)
	}

	c.log.Info().
		Str("base", string(base)).
		Int("currencies", len(table)).
		Msg("Fetched rates")

	return table, false, nil
}
