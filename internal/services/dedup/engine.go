package dedup

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/models"
)

// Engine collapses near-duplicate postings in three fixed passes.
// Pass order is deterministic and "keep first" always means first by
// arrival order, so results are reproducible for a given input order.
type Engine struct {
	synonyms *SynonymTable
	markets  *MarketTable
	logger   arbor.ILogger
}

// Result pairs the surviving postings with one auditable decision per
// input posting. Nothing is dropped silently.
type Result struct {
	Survivors []models.Posting
	Decisions []models.DedupDecision
}

// NewEngine creates a dedup engine with the given synonym and market tables
func NewEngine(synonyms *SynonymTable, markets *MarketTable, logger arbor.ILogger) *Engine {
	if synonyms == nil {
		synonyms = DefaultSynonymTable()
	}
	if markets == nil {
		markets = DefaultMarketTable()
	}
	return &Engine{
		synonyms: synonyms,
		markets:  markets,
		logger:   logger,
	}
}

// fuzzyTitle strips punctuation and folds synonym groups so titles that
// differ only in phrasing compare equal in pass 3
func (e *Engine) fuzzyTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return e.synonyms.Fold(b.String())
}

// Dedup runs the three passes over one harvest batch.
//
// Pass 1 collapses exact fingerprint duplicates, pass 2 collapses
// same company+title within a resolved market, pass 3 collapses
// same company+market titles that match after normalization. Postings
// whose market cannot be resolved are skipped by passes 2 and 3.
//
// Safety invariant: every company with at least one survivor entering
// pass 3 still has at least one survivor afterwards. Pass 3 can
// eliminate a company entirely when a fuzzy-title group swallows all
// of its postings; in that case the earliest collapsed posting for the
// company is restored.
func (e *Engine) Dedup(postings []models.Posting) *Result {
	n := len(postings)
	fps := make([]models.Fingerprint, n)
	alive := make([]bool, n)
	decisions := make([]models.DedupDecision, n)

	for i, p := range postings {
		fps[i] = Fingerprint(p)
		alive[i] = true
		decisions[i] = models.DedupDecision{
			Fingerprint: fps[i],
			Outcome:     models.DedupKept,
		}
	}

	collapse := func(i int, reason models.DedupReason, keptBy models.Fingerprint) {
		alive[i] = false
		decisions[i].Outcome = models.DedupCollapsed
		decisions[i].Reason = reason
		decisions[i].KeptBy = keptBy
	}

	// Pass 1: exact fingerprint, keep first by arrival
	firstByFp := make(map[models.Fingerprint]int)
	for i := 0; i < n; i++ {
		if first, seen := firstByFp[fps[i]]; seen {
			collapse(i, models.ReasonExactDuplicate, fps[first])
		} else {
			firstByFp[fps[i]] = i
		}
	}

	// Pass 2: company + exact title + resolved market, keep first
	firstByKey := make(map[string]int)
	for i := 0; i < n; i++ {
		if !alive[i] {
			continue
		}
		market, ok := e.markets.Resolve(postings[i].Location)
		if !ok {
			continue
		}
		key := normalizeField(postings[i].Company) + "|" + normalizeField(postings[i].Title) + "|" + market
		if first, seen := firstByKey[key]; seen {
			collapse(i, models.ReasonSameTitleMarket, fps[first])
		} else {
			firstByKey[key] = i
		}
	}

	// Snapshot companies with survivors before pass 3 for the safety check
	companiesBefore := make(map[string]bool)
	for i := 0; i < n; i++ {
		if alive[i] {
			companiesBefore[normalizeField(postings[i].Company)] = true
		}
	}

	// Pass 3: company + market + fuzzy title. Groups of two or more are
	// collapsed whole; the safety check below restores a posting for any
	// company this erases.
	groups := make(map[string][]int)
	var groupOrder []string
	for i := 0; i < n; i++ {
		if !alive[i] {
			continue
		}
		market, ok := e.markets.Resolve(postings[i].Location)
		if !ok {
			continue
		}
		key := normalizeField(postings[i].Company) + "|" + market + "|" + e.fuzzyTitle(postings[i].Title)
		if _, seen := groups[key]; !seen {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], i)
	}

	// Groups collapse whole, so there is no survivor for KeptBy to point
	// at. When the safety check restores a member, the rest of its group
	// is repointed at the restored posting.
	var collapsedOrder []int
	groupOf := make(map[int][]int)
	for _, key := range groupOrder {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			collapse(i, models.ReasonSimilarTitleMarket, "")
			groupOf[i] = members
			collapsedOrder = append(collapsedOrder, i)
		}
	}

	// Safety check: restore the earliest pass-3 collapse for any company
	// that lost its last posting
	companiesAfter := make(map[string]bool)
	for i := 0; i < n; i++ {
		if alive[i] {
			companiesAfter[normalizeField(postings[i].Company)] = true
		}
	}
	for _, i := range collapsedOrder {
		company := normalizeField(postings[i].Company)
		if !companiesBefore[company] || companiesAfter[company] {
			continue
		}
		alive[i] = true
		decisions[i] = models.DedupDecision{
			Fingerprint: fps[i],
			Outcome:     models.DedupKept,
		}
		for _, j := range groupOf[i] {
			if j != i {
				decisions[j].KeptBy = fps[i]
			}
		}
		companiesAfter[company] = true

		e.logger.Warn().
			Str("company", postings[i].Company).
			Str("title", postings[i].Title).
			Msg("Restored posting collapsed by fuzzy-title pass, company would have no survivors")
	}

	result := &Result{Decisions: decisions}
	for i := 0; i < n; i++ {
		if alive[i] {
			result.Survivors = append(result.Survivors, postings[i])
		}
	}

	e.logger.Debug().
		Int("input", n).
		Int("survivors", len(result.Survivors)).
		Msg("Dedup complete")

	return result
}
