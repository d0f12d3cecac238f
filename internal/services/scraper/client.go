package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/httpclient"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"golang.org/x/time/rate"
)

// Client talks to the external scraping provider's REST API.
// All calls pass through a rate limiter so poll sweeps cannot hammer
// the provider.
type Client struct {
	config     *common.ScraperConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// submitRequest is the provider's submission body
type submitRequest struct {
	Query      string `json:"query"`
	Location   string `json:"location"`
	Limit      int    `json:"limit"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// submitResponse is the provider's submission acknowledgement
type submitResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
}

// NewClient creates a provider client from configuration
func NewClient(config *common.ScraperConfig, logger arbor.ILogger) *Client {
	interval := config.RateLimit
	if interval <= 0 {
		interval = time.Second
	}

	return &Client{
		config:     config,
		httpClient: httpclient.NewDefaultHTTPClient(config.RequestTimeout),
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		logger:     logger,
	}
}

// Submit starts an asynchronous scrape and returns the provider
// request id
func (c *Client) Submit(ctx context.Context, params models.SearchParams) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter interrupted: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = c.config.DefaultLimit
	}

	body, err := json.Marshal(submitRequest{
		Query:      params.Query,
		Location:   params.Location,
		Limit:      limit,
		WebhookURL: c.config.WebhookURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/scrapes", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider submit failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read submit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("provider submit returned status %d: %s", resp.StatusCode, string(data))
	}

	var ack submitResponse
	if err := json.Unmarshal(data, &ack); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if ack.Error != "" {
		return "", fmt.Errorf("provider rejected submission: %s", ack.Error)
	}
	if ack.RequestID == "" {
		return "", fmt.Errorf("provider returned no request id")
	}

	c.logger.Debug().
		Str("request_id", ack.RequestID).
		Str("query", params.Query).
		Msg("Scrape submitted to provider")

	return ack.RequestID, nil
}

// Status fetches the current state of a previously submitted request
func (c *Client) Status(ctx context.Context, requestID string) (*interfaces.StatusResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v1/scrapes/"+requestID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider status failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider status returned status %d: %s", resp.StatusCode, string(data))
	}

	var status interfaces.StatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}

	return &status, nil
}
