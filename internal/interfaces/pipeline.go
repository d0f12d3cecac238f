package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// HarvestSummary reports what happened to one task's postings
type HarvestSummary struct {
	ResultCount  int // Raw postings received from the provider
	Survivors    int // Postings left after dedup
	QualityCount int // Postings classified good
	FromCache    int // Verdicts reused from the cache
	Fresh        int // Verdicts obtained from the classifier
	Errors       int // Error-tier fallback verdicts

	Decisions []models.DedupDecision
	Results   []*models.ClassificationResult
}

// HarvestProcessor turns a completed task's raw postings into
// classified results
type HarvestProcessor interface {
	Process(ctx context.Context, task *models.ScrapeTask, postings []models.Posting) (*HarvestSummary, error)
}
