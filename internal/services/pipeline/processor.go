package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/cache"
	"github.com/ternarybob/venari/internal/services/dedup"
)

// Processor runs one task's postings through dedup, the classification
// cache and the work queue, then reports counters back to the caller.
// Downstream delivery of results is the caller's concern.
type Processor struct {
	dedup  *dedup.Engine
	cache  *cache.Service
	pool   interfaces.ClassifierPool
	logger arbor.ILogger
}

// NewProcessor creates a harvest processor
func NewProcessor(dedupEngine *dedup.Engine, cacheService *cache.Service, pool interfaces.ClassifierPool, logger arbor.ILogger) *Processor {
	return &Processor{
		dedup:  dedupEngine,
		cache:  cacheService,
		pool:   pool,
		logger: logger,
	}
}

// Process harvests one batch: dedup, cache partition, classify the
// misses, write fresh verdicts back and refresh reused ones. The
// returned summary carries exactly one classification result per
// surviving posting.
func (p *Processor) Process(ctx context.Context, task *models.ScrapeTask, postings []models.Posting) (*interfaces.HarvestSummary, error) {
	dedupResult := p.dedup.Dedup(postings)

	survivors := dedupResult.Survivors
	fps := make([]models.Fingerprint, len(survivors))
	for i, posting := range survivors {
		fps[i] = dedup.Fingerprint(posting)
	}

	hits, err := p.cache.Lookup(ctx, fps, 0)
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}

	// Partition into cache hits and items needing classification.
	// Fingerprints can repeat across survivors when companies post the
	// same job in unresolved markets; classify each distinct one once.
	var missItems []interfaces.ClassifyItem
	seenMiss := make(map[models.Fingerprint]bool)
	for i, posting := range survivors {
		if _, hit := hits[fps[i]]; hit {
			continue
		}
		if seenMiss[fps[i]] {
			continue
		}
		seenMiss[fps[i]] = true
		missItems = append(missItems, interfaces.ClassifyItem{
			Fingerprint: fps[i],
			Posting:     posting,
		})
	}

	fresh := p.pool.ClassifyBatch(ctx, missItems)

	// Write back only usable verdicts; error-tier fallbacks are not
	// worth caching, the next harvest should retry them
	var writeBack []*models.ClassificationResult
	byFp := make(map[models.Fingerprint]*models.ClassificationResult, len(hits)+len(fresh))
	for fp, result := range hits {
		byFp[fp] = result
	}
	for _, result := range fresh {
		byFp[result.Fingerprint] = result
		if result.Tier != models.TierError {
			writeBack = append(writeBack, result)
		}
	}
	if len(writeBack) > 0 {
		if err := p.cache.Write(ctx, writeBack); err != nil {
			return nil, fmt.Errorf("cache write-back failed: %w", err)
		}
	}

	// Keep reused verdicts alive while their postings keep appearing
	var refresh []models.Fingerprint
	for fp := range hits {
		refresh = append(refresh, fp)
	}
	if err := p.cache.Refresh(ctx, refresh); err != nil {
		p.logger.Warn().Err(err).Msg("Cache refresh failed")
	}

	summary := &interfaces.HarvestSummary{
		ResultCount: len(postings),
		Survivors:   len(survivors),
		FromCache:   len(hits),
		Decisions:   dedupResult.Decisions,
	}

	for i := range survivors {
		result, ok := byFp[fps[i]]
		if !ok {
			// The pool guarantees one result per submitted fingerprint,
			// so a hole here is a logic bug. Surface it, do not drop the
			// posting.
			p.logger.Error().
				Str("fingerprint", string(fps[i])).
				Msg("No classification result for surviving posting, synthesizing error result")
			result = models.NewErrorResult(fps[i], "no classification result produced")
		}
		summary.Results = append(summary.Results, result)

		switch {
		case result.Tier == models.TierError:
			summary.Errors++
		case result.IsQuality():
			summary.QualityCount++
		}
		if result.Provenance == models.ProvenanceFresh {
			summary.Fresh++
		}
	}

	p.logger.Info().
		Str("task_id", task.ID).
		Int("postings", len(postings)).
		Int("survivors", summary.Survivors).
		Int("from_cache", summary.FromCache).
		Int("fresh", summary.Fresh).
		Int("quality", summary.QualityCount).
		Int("errors", summary.Errors).
		Msg("Harvest batch processed")

	return summary, nil
}
