package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/models"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultSynonymTable(), DefaultMarketTable(), arbor.NewLogger())
}

func TestDedup_EmptyInput(t *testing.T) {
	result := newTestEngine().Dedup(nil)

	assert.Empty(t, result.Survivors)
	assert.Empty(t, result.Decisions)
}

func TestDedup_NoDuplicates(t *testing.T) {
	postings := []models.Posting{
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"},
		{Title: "Local Delivery Driver", Company: "Beta Logistics", Location: "Houston, TX"},
	}

	result := newTestEngine().Dedup(postings)

	assert.Len(t, result.Survivors, 2)
	require.Len(t, result.Decisions, 2)
	for _, d := range result.Decisions {
		assert.Equal(t, models.DedupKept, d.Outcome)
	}
}

func TestDedup_ExactDuplicatesKeepFirst(t *testing.T) {
	p := models.Posting{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"}
	postings := []models.Posting{p, p, p, p, p}

	result := newTestEngine().Dedup(postings)

	require.Len(t, result.Survivors, 1)
	require.Len(t, result.Decisions, 5)

	assert.Equal(t, models.DedupKept, result.Decisions[0].Outcome)
	for i := 1; i < 5; i++ {
		assert.Equal(t, models.DedupCollapsed, result.Decisions[i].Outcome)
		assert.Equal(t, models.ReasonExactDuplicate, result.Decisions[i].Reason)
		assert.Equal(t, result.Decisions[0].Fingerprint, result.Decisions[i].KeptBy)
	}
}

func TestDedup_SameTitleAcrossMarketAliases(t *testing.T) {
	// Same company and title, different spellings of the same market
	postings := []models.Posting{
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"},
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Fort Worth, TX"},
	}

	result := newTestEngine().Dedup(postings)

	require.Len(t, result.Survivors, 1)
	assert.Equal(t, "Dallas, TX", result.Survivors[0].Location)
	assert.Equal(t, models.ReasonSameTitleMarket, result.Decisions[1].Reason)
}

func TestDedup_UnresolvedMarketSkipsLaterPasses(t *testing.T) {
	// Same company and title but locations nobody can place in a market.
	// Fingerprints differ, so pass 1 keeps both; passes 2 and 3 must not
	// touch them.
	postings := []models.Posting{
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Rural Route 9"},
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Somewhere Else"},
	}

	result := newTestEngine().Dedup(postings)

	assert.Len(t, result.Survivors, 2)
}

func TestDedup_FuzzyTitleCollapsesWholeGroup(t *testing.T) {
	// Three postings in one fuzzy-title group plus a distinct one. The
	// group collapses whole; the distinct posting keeps the company alive
	// so nothing is restored.
	postings := []models.Posting{
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"},
		{Title: "Class A Over The Road Driver", Company: "Acme Freight", Location: "Dallas, TX"},
		{Title: "CDL A OTR Driver!", Company: "Acme Freight", Location: "Fort Worth, TX"},
		{Title: "Dispatcher", Company: "Acme Freight", Location: "Dallas, TX"},
	}

	result := newTestEngine().Dedup(postings)

	require.Len(t, result.Survivors, 1)
	assert.Equal(t, "Dispatcher", result.Survivors[0].Title)

	// The whole group collapsed with no survivor, so KeptBy stays empty
	for i := 0; i < 3; i++ {
		assert.Equal(t, models.DedupCollapsed, result.Decisions[i].Outcome)
		assert.Equal(t, models.ReasonSimilarTitleMarket, result.Decisions[i].Reason)
		assert.Empty(t, result.Decisions[i].KeptBy)
	}
}

func TestDedup_SafetyRestoreWhenCompanyErased(t *testing.T) {
	// Both of Acme's postings land in one fuzzy-title group and collapse,
	// erasing the company. The earliest collapse is restored.
	postings := []models.Posting{
		{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"},
		{Title: "Class A Over The Road Driver", Company: "Acme Freight", Location: "Fort Worth, TX"},
		{Title: "Local Driver", Company: "Beta Logistics", Location: "Houston, TX"},
	}

	result := newTestEngine().Dedup(postings)

	require.Len(t, result.Survivors, 2)
	assert.Equal(t, "Acme Freight", result.Survivors[0].Company)
	assert.Equal(t, "CDL-A OTR Driver", result.Survivors[0].Title)
	assert.Equal(t, "Beta Logistics", result.Survivors[1].Company)

	// Restored posting reads as kept; the other group member stays
	// collapsed and points at the restored survivor
	assert.Equal(t, models.DedupKept, result.Decisions[0].Outcome)
	assert.Equal(t, models.DedupCollapsed, result.Decisions[1].Outcome)
	assert.Equal(t, result.Decisions[0].Fingerprint, result.Decisions[1].KeptBy)
}

func TestDedup_DecisionPerInput(t *testing.T) {
	p := models.Posting{Title: "CDL-A OTR Driver", Company: "Acme Freight", Location: "Dallas, TX"}
	postings := []models.Posting{p, p, {Title: "Dispatcher", Company: "Acme Freight", Location: "Dallas, TX"}}

	result := newTestEngine().Dedup(postings)

	assert.Len(t, result.Decisions, len(postings))
	for i, d := range result.Decisions {
		assert.Equal(t, Fingerprint(postings[i]), d.Fingerprint)
	}
}

func TestFuzzyTitle_PunctuationAndSynonyms(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"hyphenation", "CDL-A Driver", "CDL A Driver"},
		{"synonym group", "Class A Truck Driver", "CDL A Truck Driver"},
		{"otr expansion", "OTR Driver", "Over The Road Driver"},
		{"punctuation noise", "Truck Driver!!!", "Truck Driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, e.fuzzyTitle(tt.a), e.fuzzyTitle(tt.b))
		})
	}
}
