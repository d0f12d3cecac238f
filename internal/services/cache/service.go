package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Service is the classification memory cache. Results are keyed by
// content fingerprint, so re-scraped postings reuse previous verdicts
// instead of re-paying the classifier.
type Service struct {
	storage  interfaces.ClassificationStorage
	validate *validator.Validate
	ttl      time.Duration
	logger   arbor.ILogger
}

// NewService creates a cache service with the configured default TTL
func NewService(storage interfaces.ClassificationStorage, ttl time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		validate: validator.New(),
		ttl:      ttl,
		logger:   logger,
	}
}

// TTL returns the configured default validity window
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Lookup returns fresh cached results for the given fingerprints.
// Entries older than ttl are treated as misses even when present,
// forcing re-classification of postings whose verdict may be stale.
// Hits are tagged with cache provenance. A ttl of zero uses the
// configured default.
func (s *Service) Lookup(ctx context.Context, fps []models.Fingerprint, ttl time.Duration) (map[models.Fingerprint]*models.ClassificationResult, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	entries, err := s.storage.GetEntries(ctx, fps)
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}

	now := time.Now()
	hits := make(map[models.Fingerprint]*models.ClassificationResult)
	for _, entry := range entries {
		if !entry.FreshAt(now, ttl) {
			continue
		}
		result := entry.Result
		result.Provenance = models.ProvenanceFromCache
		hits[entry.Fingerprint] = &result
	}

	s.logger.Debug().
		Int("requested", len(fps)).
		Int("hits", len(hits)).
		Msg("Cache lookup")

	return hits, nil
}

// Write upserts classification results into the cache (last write
// wins). Results missing required fields are rejected wholesale so a
// partial provider response can never poison the cache.
func (s *Service) Write(ctx context.Context, results []*models.ClassificationResult) error {
	now := time.Now()
	entries := make([]*models.CacheEntry, 0, len(results))

	for _, result := range results {
		if err := s.validate.Struct(result); err != nil {
			return fmt.Errorf("invalid classification result for %s: %w", result.Fingerprint, err)
		}
		entries = append(entries, &models.CacheEntry{
			Fingerprint:  result.Fingerprint,
			Result:       *result,
			ClassifiedAt: now,
		})
	}

	if err := s.storage.SaveEntries(ctx, entries); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}

	s.logger.Debug().
		Int("count", len(entries)).
		Msg("Cache entries written")

	return nil
}

// Refresh bumps the classification timestamp for entries whose result
// was just reused, keeping long-lived good postings from expiring while
// they are still being seen in harvests.
func (s *Service) Refresh(ctx context.Context, fps []models.Fingerprint) error {
	if len(fps) == 0 {
		return nil
	}
	if err := s.storage.TouchEntries(ctx, fps, time.Now()); err != nil {
		return fmt.Errorf("cache refresh failed: %w", err)
	}
	return nil
}

// Cleanup removes entries older than the retention window
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.storage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache cleanup failed: %w", err)
	}
	return deleted, nil
}
