package models

// DedupOutcome says whether a posting survived dedup
type DedupOutcome string

const (
	DedupKept      DedupOutcome = "kept"
	DedupCollapsed DedupOutcome = "collapsed"
)

// DedupReason names the pass that collapsed a posting
type DedupReason string

const (
	ReasonExactDuplicate     DedupReason = "exact_duplicate"
	ReasonSameTitleMarket    DedupReason = "same_company_title_market"
	ReasonSimilarTitleMarket DedupReason = "same_company_market_similar_title"
)

// DedupDecision records what happened to one posting during dedup.
// Every input posting gets exactly one decision; nothing is dropped
// silently.
type DedupDecision struct {
	Fingerprint Fingerprint  `json:"fingerprint"`
	Outcome     DedupOutcome `json:"outcome"`
	Reason      DedupReason  `json:"reason,omitempty"`  // Set only when collapsed
	KeptBy      Fingerprint  `json:"kept_by,omitempty"` // Surviving posting; empty when a fuzzy-title group collapsed whole
}
