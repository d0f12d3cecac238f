package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// DefaultConcurrency is the worker ceiling used when none is configured
const DefaultConcurrency = 20

// Pool runs classification over batches with a hard concurrency
// ceiling. Each worker owns one in-flight provider call at a time;
// workers share only the to-do channel and the results slice (written
// under a mutex), so a slow item delays the batch, never other items.
type Pool struct {
	classifier interfaces.Classifier
	policy     *RetryPolicy
	maxWorkers int
	logger     arbor.ILogger
}

// NewPool creates a classification pool
func NewPool(classifier interfaces.Classifier, policy *RetryPolicy, maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultConcurrency
	}
	if policy == nil {
		policy = NewDefaultRetryPolicy()
	}
	return &Pool{
		classifier: classifier,
		policy:     policy,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// ClassifyBatch classifies every item and returns exactly one result
// per input, in input order. Items whose calls fail permanently get an
// error-tier result; the batch itself never fails.
//
// Results are keyed by the caller-supplied fingerprint. A fingerprint
// echoed back by the provider is never trusted, so after the workers
// finish the output is cross-checked against the input and any hole is
// filled with a synthesized error result.
func (p *Pool) ClassifyBatch(ctx context.Context, items []interfaces.ClassifyItem) []*models.ClassificationResult {
	if len(items) == 0 {
		return nil
	}

	workers := p.maxWorkers
	if workers > len(items) {
		workers = len(items)
	}

	p.logger.Info().
		Int("items", len(items)).
		Int("workers", workers).
		Str("provider", p.classifier.Name()).
		Msg("Starting classification batch")

	type indexedItem struct {
		index int
		item  interfaces.ClassifyItem
	}

	jobs := make(chan indexedItem)
	results := make([]*models.ClassificationResult, len(items))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				result := p.classifyOne(ctx, job.item)
				resultsMu.Lock()
				results[job.index] = result
				resultsMu.Unlock()
			}
		}(w)
	}

	for i, item := range items {
		jobs <- indexedItem{index: i, item: item}
	}
	close(jobs)
	wg.Wait()

	// Reconciliation check: one result per input item, carrying the
	// caller-supplied identity. A missing or misaddressed result here is
	// a logic bug; repair it visibly instead of dropping the item.
	errorCount := 0
	for i, item := range items {
		if results[i] == nil {
			p.logger.Error().
				Str("fingerprint", string(item.Fingerprint)).
				Msg("Classification result missing after batch, synthesizing error result")
			results[i] = models.NewErrorResult(item.Fingerprint, "classification result missing after batch")
		}
		if results[i].Fingerprint != item.Fingerprint {
			p.logger.Error().
				Str("expected", string(item.Fingerprint)).
				Str("got", string(results[i].Fingerprint)).
				Msg("Classification result carries wrong identity, correcting")
			results[i].Fingerprint = item.Fingerprint
		}
		if results[i].Tier == models.TierError {
			errorCount++
		}
	}

	p.logger.Info().
		Int("items", len(items)).
		Int("errors", errorCount).
		Msg("Classification batch complete")

	return results
}

// classifyOne drives one item through the retry policy and always
// returns a usable result
func (p *Pool) classifyOne(ctx context.Context, item interfaces.ClassifyItem) *models.ClassificationResult {
	var lastErr error

	for attempt := 0; attempt <= p.policy.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return models.NewErrorResult(item.Fingerprint, fmt.Sprintf("classification cancelled: %v", ctx.Err()))
		}

		result, err := p.classifier.Classify(ctx, item)
		if err == nil {
			result.Fingerprint = item.Fingerprint
			return result
		}
		lastErr = err

		if !IsRetriable(err) {
			// Malformed request, permanent rejection or unparseable
			// response: retrying cannot help this item
			p.logger.Warn().
				Err(err).
				Str("fingerprint", string(item.Fingerprint)).
				Msg("Classification failed permanently")
			return models.NewErrorResult(item.Fingerprint, err.Error())
		}

		if attempt == p.policy.MaxRetries {
			break
		}

		backoff := p.policy.CalculateBackoff(attempt, ExtractRetryDelay(err))
		p.logger.Warn().
			Err(err).
			Str("fingerprint", string(item.Fingerprint)).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Classification failed, retrying")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return models.NewErrorResult(item.Fingerprint, fmt.Sprintf("classification cancelled: %v", ctx.Err()))
		}
	}

	return models.NewErrorResult(item.Fingerprint, fmt.Sprintf("retries exhausted: %v", lastErr))
}
