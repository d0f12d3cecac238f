// -----------------------------------------------------------------------
// Classification - AI suitability verdicts keyed by content fingerprint
// -----------------------------------------------------------------------

package models

import "time"

// Fingerprint identifies a posting by normalized content, not by URL or
// provider id. Two postings with the same fingerprint are the same job.
type Fingerprint string

// Tier is the suitability verdict for a posting
type Tier string

const (
	TierGood  Tier = "good"
	TierSoSo  Tier = "so_so"
	TierBad   Tier = "bad"
	TierError Tier = "error" // Classification could not be obtained
)

// Provenance records where a classification result came from
type Provenance string

const (
	ProvenanceFromCache     Provenance = "from_cache"
	ProvenanceFresh         Provenance = "fresh"
	ProvenanceErrorFallback Provenance = "error_fallback"
)

// ClassificationResult is the verdict for one fingerprint.
// Required fields are enforced before any cache write.
type ClassificationResult struct {
	Fingerprint  Fingerprint `json:"fingerprint" validate:"required"`
	Tier         Tier        `json:"tier" validate:"required,oneof=good so_so bad error"`
	Reason       string      `json:"reason" validate:"required"`
	Summary      string      `json:"summary" validate:"required"`
	RouteTags    []string    `json:"route_tags,omitempty"`       // e.g. regional, otr, local
	Requirements []string    `json:"requirement_tags,omitempty"` // e.g. experience thresholds
	Provenance   Provenance  `json:"provenance"`
}

// IsQuality returns true for postings worth surfacing to the owner
func (r *ClassificationResult) IsQuality() bool {
	return r.Tier == TierGood
}

// NewErrorResult synthesizes the error-tier fallback for a fingerprint
// whose classification could not be obtained.
func NewErrorResult(fp Fingerprint, reason string) *ClassificationResult {
	return &ClassificationResult{
		Fingerprint: fp,
		Tier:        TierError,
		Reason:      reason,
		Provenance:  ProvenanceErrorFallback,
	}
}

// CacheEntry is the stored form of a classification, keyed by fingerprint.
// Freshness is judged against ClassifiedAt at read time; expired entries
// are treated as misses and eventually removed by the retention sweep.
type CacheEntry struct {
	Fingerprint  Fingerprint          `json:"fingerprint" badgerhold:"key"`
	Result       ClassificationResult `json:"result"`
	ClassifiedAt time.Time            `json:"classified_at"`
}

// FreshAt reports whether the entry is within ttl of the given time
func (e *CacheEntry) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.ClassifiedAt) <= ttl
}
