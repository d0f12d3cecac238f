package models

import "time"

// Posting is one scraped job posting. Immutable after creation; all
// downstream identity is derived from the content fingerprint.
type Posting struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Source      string    `json:"source"` // Originating board or site
	URL         string    `json:"url"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// ResultBundle is the payload the provider hands back for a finished task
type ResultBundle struct {
	RequestID string    `json:"request_id"`
	Postings  []Posting `json:"postings"`
}
