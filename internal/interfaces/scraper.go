package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// ScrapeStatus is the provider-reported state of a scrape request
type ScrapeStatus string

const (
	ScrapeStatusRunning ScrapeStatus = "running"
	ScrapeStatusSuccess ScrapeStatus = "success"
	ScrapeStatusFailed  ScrapeStatus = "failed"
)

// StatusResponse is what the provider reports for a request id
type StatusResponse struct {
	RequestID string           `json:"request_id"`
	Status    ScrapeStatus     `json:"status"`
	Error     string           `json:"error,omitempty"`
	Postings  []models.Posting `json:"postings,omitempty"` // Present when status is success
}

// ScraperClient talks to the external scraping provider
type ScraperClient interface {
	// Submit starts an asynchronous scrape and returns the provider request id
	Submit(ctx context.Context, params models.SearchParams) (string, error)

	// Status fetches the current state of a previously submitted request
	Status(ctx context.Context, requestID string) (*StatusResponse, error)
}

// WebhookPayload is the provider's completion callback body
type WebhookPayload struct {
	RequestID string           `json:"request_id"`
	Status    ScrapeStatus     `json:"status"`
	Error     string           `json:"error,omitempty"`
	Postings  []models.Posting `json:"postings,omitempty"`
}
