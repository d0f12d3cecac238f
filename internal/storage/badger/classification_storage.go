package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ErrEntryNotFound is returned when a fingerprint has no cached entry
var ErrEntryNotFound = fmt.Errorf("cache entry not found")

// ClassificationStorage implements the fingerprint-keyed classification
// cache over badgerhold. Freshness decisions live in the cache service;
// this layer only reads and writes entries.
type ClassificationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewClassificationStorage creates a new ClassificationStorage instance
func NewClassificationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ClassificationStorage {
	return &ClassificationStorage{
		db:     db,
		logger: logger,
	}
}

// SaveEntry inserts or updates one cache entry (last write wins)
func (s *ClassificationStorage) SaveEntry(ctx context.Context, entry *models.CacheEntry) error {
	if entry.Fingerprint == "" {
		return fmt.Errorf("cache entry fingerprint is required")
	}

	if err := s.db.Store().Upsert(string(entry.Fingerprint), entry); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// SaveEntries upserts a batch of cache entries
func (s *ClassificationStorage) SaveEntries(ctx context.Context, entries []*models.CacheEntry) error {
	for _, entry := range entries {
		if err := s.SaveEntry(ctx, entry); err != nil {
			return err
		}
	}

	s.logger.Debug().
		Int("count", len(entries)).
		Msg("Cache entries saved")

	return nil
}

// GetEntry retrieves one entry by fingerprint
func (s *ClassificationStorage) GetEntry(ctx context.Context, fp models.Fingerprint) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.db.Store().Get(string(fp), &entry)
	if err == badgerhold.ErrNotFound {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

// GetEntries retrieves entries for a batch of fingerprints.
// Missing fingerprints are simply absent from the result.
func (s *ClassificationStorage) GetEntries(ctx context.Context, fps []models.Fingerprint) ([]*models.CacheEntry, error) {
	entries := make([]*models.CacheEntry, 0, len(fps))
	for _, fp := range fps {
		entry, err := s.GetEntry(ctx, fp)
		if err == ErrEntryNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TouchEntries bumps ClassifiedAt for existing entries without changing
// the stored result. Missing fingerprints are skipped.
func (s *ClassificationStorage) TouchEntries(ctx context.Context, fps []models.Fingerprint, at time.Time) error {
	for _, fp := range fps {
		entry, err := s.GetEntry(ctx, fp)
		if err == ErrEntryNotFound {
			continue
		}
		if err != nil {
			return err
		}

		entry.ClassifiedAt = at
		if err := s.SaveEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOlderThan removes entries classified before the cutoff and
// returns how many were deleted
func (s *ClassificationStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []*models.CacheEntry
	query := badgerhold.Where("ClassifiedAt").Lt(cutoff)
	if err := s.db.Store().Find(&stale, query); err != nil {
		return 0, fmt.Errorf("failed to query stale cache entries: %w", err)
	}

	deleted := 0
	for _, entry := range stale {
		if err := s.db.Store().Delete(string(entry.Fingerprint), &models.CacheEntry{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete cache entry: %w", err)
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Stale cache entries removed")
	}

	return deleted, nil
}

// CountEntries returns the total number of cached classifications
func (s *ClassificationStorage) CountEntries(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.CacheEntry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(count), nil
}
