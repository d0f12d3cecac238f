package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// ClassifyItem pairs a posting with its caller-assigned fingerprint.
// The fingerprint is the identity used for reconciliation; provider
// responses are never trusted to echo it back.
type ClassifyItem struct {
	Fingerprint models.Fingerprint
	Posting     models.Posting
}

// Classifier produces a suitability verdict for one posting
type Classifier interface {
	// Classify returns the verdict for a single posting
	Classify(ctx context.Context, item ClassifyItem) (*models.ClassificationResult, error)

	// Name returns the provider name for logging
	Name() string
}

// ClassifierPool runs classification over a batch with bounded concurrency
type ClassifierPool interface {
	// ClassifyBatch returns exactly one result per input item, in any order.
	// Items that could not be classified get an error-tier result.
	ClassifyBatch(ctx context.Context, items []ClassifyItem) []*models.ClassificationResult
}
